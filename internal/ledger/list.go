// Package ledger keeps a local movement list in step with a remote store and
// recomputes the summary after every change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// MovementStore is the authoritative home of movements.
type MovementStore interface {
	List(ctx context.Context) ([]core.Movement, error)
	Create(ctx context.Context, m core.Movement) (core.Movement, error)
	Update(ctx context.Context, m core.Movement) (core.Movement, error)
	Delete(ctx context.Context, id int64) error
}

// ErrCancelled is returned by Delete when the confirmation is declined.
var ErrCancelled = errors.New("operation cancelled")

// MovementList mirrors the store's movements newest first.
//
// Mutations are pessimistic: the local list changes only after the store has
// accepted the change, and a failed call leaves it untouched with Err set.
// Concurrent calls are allowed; whichever response lands last is the one the
// list reflects.
type MovementList struct {
	store  MovementStore
	logger *log.Logger

	mu       sync.Mutex
	items    *core.IndexedSet[core.Movement]
	opening  core.Money
	summary  core.Summary
	inFlight int
	err      error
}

func NewMovementList(store MovementStore, opening core.Money, logger *log.Logger) *MovementList {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MovementList{
		store:   store,
		logger:  logger.WithComponent(log.ComponentMovement),
		items:   core.NewIndexedSet[core.Movement](),
		opening: opening,
		summary: core.ComputeSummary(nil, opening),
	}
}

// Load replaces the local list with the store's.
func (l *MovementList) Load(ctx context.Context) error {
	l.begin()
	movs, err := l.store.List(ctx)
	if err != nil {
		l.fail(log.OpList, err)
		return fmt.Errorf("load movements: %w", err)
	}
	for i, m := range movs {
		if verr := m.Validate(); verr != nil {
			err = fmt.Errorf("movement %d at position %d: %w", m.ID, i, verr)
			l.fail(log.OpList, err)
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items.Reset(movs)
	l.finishLocked()
	return nil
}

// Create validates form, stores it and puts the stored record at the head.
func (l *MovementList) Create(ctx context.Context, form core.MovementForm) (core.Movement, error) {
	m, err := form.Movement()
	if err != nil {
		return core.Movement{}, err
	}

	l.begin()
	saved, err := l.store.Create(ctx, m)
	if err != nil {
		l.fail(log.OpCreate, err)
		return core.Movement{}, fmt.Errorf("create movement: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items.Prepend(saved)
	l.finishLocked()
	return saved, nil
}

// Update stores the edited movement and replaces the local element with the
// same id. When no local element has that id the list stays as it is.
func (l *MovementList) Update(ctx context.Context, id int64, form core.MovementForm) (core.Movement, error) {
	m, err := form.Movement()
	if err != nil {
		return core.Movement{}, err
	}
	m.ID = id

	l.begin()
	saved, err := l.store.Update(ctx, m)
	if err != nil {
		l.fail(log.OpUpdate, err)
		return core.Movement{}, fmt.Errorf("update movement %d: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.items.Replace(saved) {
		l.logger.Debug("Updated movement not in local list", log.FieldMovementID, id)
	}
	l.finishLocked()
	return saved, nil
}

// Delete removes the movement once confirm agrees. A declined confirmation
// returns ErrCancelled without touching the store.
func (l *MovementList) Delete(ctx context.Context, id int64, confirm func() bool) error {
	if confirm != nil && !confirm() {
		return ErrCancelled
	}

	l.begin()
	if err := l.store.Delete(ctx, id); err != nil {
		l.fail(log.OpDelete, err)
		return fmt.Errorf("delete movement %d: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items.Remove(id)
	l.finishLocked()
	return nil
}

// SetOpeningBalance changes the balance the summary starts from.
func (l *MovementList) SetOpeningBalance(opening core.Money) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opening = opening
	l.summary = core.ComputeSummary(l.items.Items(), l.opening)
}

func (l *MovementList) Items() []core.Movement {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items.Items()
}

func (l *MovementList) Get(id int64) core.Lookup[core.Movement] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items.Get(id)
}

func (l *MovementList) Summary() core.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

// Saving reports whether a store call is in progress.
func (l *MovementList) Saving() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight > 0
}

// Err returns the failure of the last store call, or nil once a later call
// has succeeded.
func (l *MovementList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *MovementList) begin() {
	l.mu.Lock()
	l.inFlight++
	l.mu.Unlock()
}

func (l *MovementList) finishLocked() {
	l.inFlight--
	l.err = nil
	l.summary = core.ComputeSummary(l.items.Items(), l.opening)
}

func (l *MovementList) fail(op string, err error) {
	l.mu.Lock()
	l.inFlight--
	l.err = err
	l.mu.Unlock()
	l.logger.Warn("Movement store call failed", log.FieldOperation, op, log.FieldError, err.Error())
}
