package worker

import (
	"context"
	"fmt"
	"sync"

	"finanzas/internal/log"

	"github.com/robfig/cron/v3"
)

// Reconciler drains movements whose export is still pending.
type Reconciler interface {
	ProcessPendingMovements(ctx context.Context) (int, error)
}

// Scheduler runs the reconcile pass on a cron schedule such as "@every 5m".
type Scheduler struct {
	schedule   string
	reconciler Reconciler
	logger     *log.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewScheduler(schedule string, r Reconciler, logger *log.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Scheduler{
		schedule:   schedule,
		reconciler: r,
		logger:     logger.WithComponent(log.ComponentWorker),
	}, nil
}

// Start registers the job and starts the cron loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule reconcile: %w", err)
	}
	c.Start()
	s.cron = c
	s.running = true

	s.logger.InfoContext(ctx, "Reconcile scheduler started", "schedule", s.schedule)
	return nil
}

// RunOnce performs a single reconcile pass.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	n, err := s.reconciler.ProcessPendingMovements(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Reconcile pass failed", "error", err)
		return n
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Reconcile pass exported movements", "count", n)
	}
	return n
}

// Stop waits for a running job to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		s.logger.InfoContext(ctx, "Reconcile scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
