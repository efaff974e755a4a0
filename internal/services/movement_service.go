package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/storage"
)

// Publisher announces movement changes to the export pipeline.
type Publisher interface {
	PublishMovementEvent(ctx context.Context, movementID, version int64, op amqp.Operation) error
}

// MovementService orchestrates movement operations across SQLite and AMQP.
// SQLite is the source of truth; publishing is best effort.
type MovementService struct {
	storage   *storage.SQLiteRepository
	publisher Publisher
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
}

// NewMovementService wires the service. publisher may be nil to run without a broker.
func NewMovementService(storage *storage.SQLiteRepository, publisher Publisher, logger *log.Logger) *MovementService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentMovement)
	return &MovementService{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

func (s *MovementService) List(ctx context.Context, f storage.MovementFilter) ([]core.Movement, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, err
	}
	return s.storage.ListMovements(ctx, f)
}

func (s *MovementService) Get(ctx context.Context, id int64) (core.Lookup[core.Movement], error) {
	return s.storage.GetMovement(ctx, id)
}

// Create validates the form, saves the movement and publishes an upsert event.
func (s *MovementService) Create(ctx context.Context, form core.MovementForm) (core.Movement, error) {
	m, err := form.Movement()
	if err != nil {
		return core.Movement{}, err
	}
	saved, err := s.storage.CreateMovement(ctx, m)
	if err != nil {
		return core.Movement{}, fmt.Errorf("save movement: %w", err)
	}
	s.logMovement(ctx, log.OpCreate, saved)
	s.publish(ctx, saved.ID, amqp.OpUpsert)
	return saved, nil
}

// Update replaces every field of the movement with id.
func (s *MovementService) Update(ctx context.Context, id int64, form core.MovementForm) (core.Movement, error) {
	m, err := form.Movement()
	if err != nil {
		return core.Movement{}, err
	}
	m.ID = id
	saved, err := s.storage.UpdateMovement(ctx, m)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement: %w", err)
	}
	s.logMovement(ctx, log.OpUpdate, saved)
	s.publish(ctx, saved.ID, amqp.OpUpsert)
	return saved, nil
}

// Patch applies the fields present in p to the stored movement.
func (s *MovementService) Patch(ctx context.Context, id int64, p core.MovementPatch) (core.Movement, error) {
	lookup, err := s.storage.GetMovement(ctx, id)
	if err != nil {
		return core.Movement{}, err
	}
	current, ok := lookup.Get()
	if !ok {
		return core.Movement{}, fmt.Errorf("movement %d: %w", id, storage.ErrNotFound)
	}
	m, err := p.Apply(current)
	if err != nil {
		return core.Movement{}, err
	}
	saved, err := s.storage.UpdateMovement(ctx, m)
	if err != nil {
		return core.Movement{}, fmt.Errorf("patch movement: %w", err)
	}
	s.logMovement(ctx, log.OpUpdate, saved)
	s.publish(ctx, saved.ID, amqp.OpUpsert)
	return saved, nil
}

// Delete removes the movement locally and publishes a delete event.
func (s *MovementService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteMovement(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, amqp.OpDelete)
	return nil
}

// Register is the quick entry path: the category is named rather than
// referenced and is created on first use.
func (s *MovementService) Register(ctx context.Context, form core.QuickForm) (core.Movement, bool, error) {
	m, err := form.Movement(core.DateOf(s.now()))
	if err != nil {
		return core.Movement{}, false, err
	}
	// The category created on first use obeys the same rules as one created
	// through the catalog.
	cat, err := core.CategoryForm{Name: m.CategoryName, Type: string(m.Kind)}.Category()
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return core.Movement{}, false, &core.ValidationError{Field: "categoria", Err: ve.Err}
		}
		return core.Movement{}, false, err
	}
	saved, created, err := s.storage.CreateMovementWithCategory(ctx, m, cat)
	if err != nil {
		return core.Movement{}, false, err
	}
	s.logMovement(ctx, log.OpCreate, saved)
	s.publish(ctx, saved.ID, amqp.OpUpsert)
	return saved, created, nil
}

func (s *MovementService) logMovement(ctx context.Context, op string, m core.Movement) {
	s.events.LogMovement(ctx, op, m.ID, string(m.Kind), m.Amount.Cents, m.CategoryName, m.AccountName)
}

// publish never fails the caller: the reconcile pass picks up anything missed.
func (s *MovementService) publish(ctx context.Context, id int64, op amqp.Operation) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping movement event",
			log.FieldMovementID, id, log.FieldOperation, string(op))
		return
	}

	var version int64
	if op == amqp.OpUpsert {
		v, err := s.storage.MovementVersion(ctx, id)
		if err != nil {
			s.events.LogError(ctx, "Failed to read movement version", err,
				log.ErrorTypeDatabase, log.OpPublish, log.LogFields{log.FieldMovementID: id})
			return
		}
		version = v
	}

	if err := s.publisher.PublishMovementEvent(ctx, id, version, op); err != nil {
		fields := log.NewFields()
		fields[log.FieldMovementID] = id
		fields["event_operation"] = string(op)
		s.events.LogError(ctx, "Failed to publish movement event", err, log.ErrorTypeNetwork, log.OpPublish, fields)
	}
}
