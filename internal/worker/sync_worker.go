package worker

import (
	"context"
	"errors"
	"fmt"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
)

// MovementSource is the slice of the repository the worker reads and acks.
type MovementSource interface {
	GetMovement(ctx context.Context, id int64) (core.Lookup[core.Movement], error)
	MovementVersion(ctx context.Context, id int64) (int64, error)
	GetPendingSyncMovements(ctx context.Context, limit int) ([]storage.PendingSyncMovement, error)
	MarkSynced(ctx context.Context, id, version int64) error
	MarkSyncError(ctx context.Context, id int64) error
	ResetSyncErrors(ctx context.Context) (int64, error)
}

// SyncWorker exports movements from SQLite to the configured sheet.
type SyncWorker struct {
	store     MovementSource
	exporter  sheets.MovementExporter
	batchSize int
	logger    *log.Logger
	events    *log.StructuredLogger
}

func NewSyncWorker(store MovementSource, exporter sheets.MovementExporter, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 20
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// HandleEvent processes a single movement event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, evt *amqp.MovementEvent) error {
	w.logger.InfoContext(ctx, "Processing movement event",
		log.FieldEventID, evt.EventID,
		log.FieldMovementID, evt.MovementID,
		log.FieldOperation, string(evt.Operation),
		"version", evt.Version)

	switch evt.Operation {
	case amqp.OpDelete:
		if err := w.exporter.Delete(ctx, evt.MovementID); err != nil {
			return fmt.Errorf("delete exported movement %d: %w", evt.MovementID, err)
		}
		return nil
	case amqp.OpUpsert:
		return w.export(ctx, evt.MovementID)
	default:
		return fmt.Errorf("unknown operation %q", evt.Operation)
	}
}

// export writes the current state of a movement. The version is read first so
// a concurrent update leaves the row pending instead of acked with stale data.
func (w *SyncWorker) export(ctx context.Context, id int64) error {
	version, err := w.store.MovementVersion(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return w.dropMissing(ctx, id)
		}
		return fmt.Errorf("read movement version: %w", err)
	}
	lookup, err := w.store.GetMovement(ctx, id)
	if err != nil {
		return fmt.Errorf("read movement: %w", err)
	}
	m, ok := lookup.Get()
	if !ok {
		return w.dropMissing(ctx, id)
	}

	ref, err := w.exporter.Upsert(ctx, sheets.RowFromMovement(m, version))
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			w.events.LogError(ctx, "Failed to mark sync error", markErr,
				log.ErrorTypeDatabase, log.OpSync, log.LogFields{log.FieldMovementID: id})
		}
		return fmt.Errorf("export movement %d: %w", id, err)
	}

	if err := w.store.MarkSynced(ctx, id, version); err != nil {
		// The row is written; a later reconcile pass rewrites it idempotently.
		w.logger.WarnContext(ctx, "Failed to mark movement as synced", log.FieldMovementID, id, "error", err)
	}

	w.logger.InfoContext(ctx, "Exported movement",
		log.FieldMovementID, id,
		"version", version,
		"row_ref", ref)
	return nil
}

// dropMissing handles an upsert for a movement deleted before the event was consumed.
func (w *SyncWorker) dropMissing(ctx context.Context, id int64) error {
	w.logger.InfoContext(ctx, "Movement no longer exists, removing exported row", log.FieldMovementID, id)
	if err := w.exporter.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exported movement %d: %w", id, err)
	}
	return nil
}

// ProcessPendingMovements exports one batch of movements that are still
// pending. It is the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPendingMovements(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.GetPendingSyncMovements(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending movements: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending movements", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if err := w.export(ctx, p.ID); err != nil {
			w.events.LogError(ctx, "Failed to export movement", err,
				log.ErrorTypeNetwork, log.OpExport, log.LogFields{log.FieldMovementID: p.ID})
			continue
		}
		synced++
	}
	return synced, nil
}

// StartupSyncCheck requeues failed exports and drains a larger batch at
// worker startup, recovering from downtime or missed messages.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	reset, err := w.store.ResetSyncErrors(ctx)
	if err != nil {
		return fmt.Errorf("reset sync errors: %w", err)
	}

	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}

	w.logger.InfoContext(ctx, "Startup sync completed",
		log.FieldOperation, log.OpStartup,
		"requeued", reset,
		"synced", synced)
	return nil
}
