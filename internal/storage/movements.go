package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"finanzas/internal/core"
)

const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// MovementFilter narrows ListMovements. Zero fields match everything.
type MovementFilter struct {
	Kind       core.Kind
	AccountID  int64
	CategoryID int64
	Range      core.DateRange
	Limit      int
}

// PendingSyncMovement is what the exporter needs to queue a movement.
type PendingSyncMovement struct {
	ID      int64
	Version int64
}

const movementSelect = `SELECT m.id, m.tipo, m.monto_cents, m.categoria_id, c.nombre, m.cuenta_id, a.nombre,
       m.fecha, m.descripcion, m.fecha_registro, m.fecha_actualizacion
FROM movimiento m
JOIN categoria c ON c.id = m.categoria_id
JOIN cuenta a ON a.id = m.cuenta_id`

func scanMovement(s scanner) (core.Movement, error) {
	var (
		m          core.Movement
		kind, date string
		registered string
		updated    sql.NullString
	)
	if err := s.Scan(&m.ID, &kind, &m.Amount.Cents, &m.CategoryID, &m.CategoryName,
		&m.AccountID, &m.AccountName, &date, &m.Description, &registered, &updated); err != nil {
		return core.Movement{}, err
	}
	m.Kind = core.Kind(kind)

	var err error
	if m.OccurredAt, err = parseDate(date); err != nil {
		return core.Movement{}, err
	}
	if m.RegisteredAt, err = parseTimestamp(registered); err != nil {
		return core.Movement{}, err
	}
	if m.UpdatedAt, err = parseOptionalTimestamp(updated); err != nil {
		return core.Movement{}, err
	}
	return m, nil
}

// ListMovements returns movements newest first.
func (r *SQLiteRepository) ListMovements(ctx context.Context, f MovementFilter) ([]core.Movement, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "m.tipo = ?")
		args = append(args, string(f.Kind))
	}
	if f.AccountID > 0 {
		where = append(where, "m.cuenta_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID > 0 {
		where = append(where, "m.categoria_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.Range.From.IsZero() {
		where = append(where, "m.fecha >= ?")
		args = append(args, f.Range.From.String())
	}
	if !f.Range.To.IsZero() {
		where = append(where, "m.fecha <= ?")
		args = append(args, f.Range.To.String())
	}

	query := movementSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY m.fecha DESC, m.id DESC"
	if f.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := []core.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetMovement(ctx context.Context, id int64) (core.Lookup[core.Movement], error) {
	return getMovement(ctx, r.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getMovement(ctx context.Context, q queryRower, id int64) (core.Lookup[core.Movement], error) {
	m, err := scanMovement(q.QueryRowContext(ctx, movementSelect+"\nWHERE m.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound[core.Movement](), nil
	}
	if err != nil {
		return core.NotFound[core.Movement](), fmt.Errorf("get movement %d: %w", id, err)
	}
	return core.Found(m), nil
}

// referenceError reports a missing category or account on insert/update.
func referenceError(err error) error {
	err = translate(err)
	if errors.Is(err, ErrInUse) {
		return ErrInvalidReference
	}
	return err
}

// CreateMovement stores m and returns the stored record with its id, stamps
// and labels filled in. New movements start pending export.
func (r *SQLiteRepository) CreateMovement(ctx context.Context, m core.Movement) (core.Movement, error) {
	var saved core.Movement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		saved, err = insertMovement(ctx, tx, m, r.now())
		return err
	})
	if err != nil {
		return core.Movement{}, err
	}
	r.logger.InfoContext(ctx, "Movement saved to SQLite",
		"id", saved.ID, "tipo", saved.Kind, "amount_cents", saved.Amount.Cents)
	return saved, nil
}

func insertMovement(ctx context.Context, tx *sql.Tx, m core.Movement, now time.Time) (core.Movement, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO movimiento (tipo, monto_cents, categoria_id, cuenta_id, fecha, descripcion, fecha_registro, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(m.Kind), m.Amount.Cents, m.CategoryID, m.AccountID, m.OccurredAt.String(), m.Description,
		formatTimestamp(now), SyncPending)
	if err != nil {
		return core.Movement{}, fmt.Errorf("create movement: %w", referenceError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Movement{}, fmt.Errorf("create movement: %w", err)
	}
	saved, err := getMovement(ctx, tx, id)
	if err != nil {
		return core.Movement{}, err
	}
	out, ok := saved.Get()
	if !ok {
		return core.Movement{}, fmt.Errorf("create movement: %w", ErrNotFound)
	}
	return out, nil
}

// CreateMovementWithCategory stores m under the category named like cat,
// compared case-insensitively, inserting cat when no such category exists.
// It reports whether the category was created.
func (r *SQLiteRepository) CreateMovementWithCategory(ctx context.Context, m core.Movement, cat core.Category) (core.Movement, bool, error) {
	var (
		saved   core.Movement
		created bool
	)
	name := strings.TrimSpace(cat.Name)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		c, err := scanCategory(tx.QueryRowContext(ctx,
			`SELECT `+categoryColumns+` FROM categoria WHERE nombre = ? COLLATE NOCASE`, name))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.ExecContext(ctx, `INSERT INTO categoria (nombre, tipo, color) VALUES (?, ?, ?)`,
				name, string(cat.Type), cat.Color)
			if err != nil {
				return fmt.Errorf("create category %q: %w", name, translate(err))
			}
			if c.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("create category %q: %w", name, err)
			}
			created = true
		case err != nil:
			return fmt.Errorf("find category %q: %w", name, err)
		case c.Type != m.Kind:
			return &core.ValidationError{Field: "categoria", Err: core.ErrCategoryKindMismatch}
		}
		m.CategoryID = c.ID
		saved, err = insertMovement(ctx, tx, m, r.now())
		return err
	})
	if err != nil {
		return core.Movement{}, false, err
	}
	r.logger.InfoContext(ctx, "Movement registered",
		"id", saved.ID, "category", saved.CategoryName, "category_created", created)
	return saved, created, nil
}

// UpdateMovement overwrites the stored movement with the same id, bumps its
// version and marks it pending export again.
func (r *SQLiteRepository) UpdateMovement(ctx context.Context, m core.Movement) (core.Movement, error) {
	var saved core.Movement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE movimiento
			 SET tipo = ?, monto_cents = ?, categoria_id = ?, cuenta_id = ?, fecha = ?, descripcion = ?,
			     fecha_actualizacion = ?, version = version + 1, sync_status = ?
			 WHERE id = ?`,
			string(m.Kind), m.Amount.Cents, m.CategoryID, m.AccountID, m.OccurredAt.String(), m.Description,
			formatTimestamp(r.now()), SyncPending, m.ID)
		if err != nil {
			return fmt.Errorf("update movement %d: %w", m.ID, referenceError(err))
		}
		if err := rowsAffected(res); err != nil {
			return fmt.Errorf("update movement %d: %w", m.ID, err)
		}
		lookup, err := getMovement(ctx, tx, m.ID)
		if err != nil {
			return err
		}
		var ok bool
		if saved, ok = lookup.Get(); !ok {
			return fmt.Errorf("update movement %d: %w", m.ID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return core.Movement{}, err
	}
	return saved, nil
}

func (r *SQLiteRepository) DeleteMovement(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movimiento WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movement %d: %w", id, translate(err))
	}
	if err := rowsAffected(res); err != nil {
		return fmt.Errorf("delete movement %d: %w", id, err)
	}
	r.logger.InfoContext(ctx, "Movement deleted", "id", id)
	return nil
}

// MovementVersion returns the current version of a movement.
func (r *SQLiteRepository) MovementVersion(ctx context.Context, id int64) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM movimiento WHERE id = ?`, id).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("movement %d version: %w", id, translate(err))
	}
	return v, nil
}

// GetPendingSyncMovements returns up to limit movements awaiting export,
// oldest first.
func (r *SQLiteRepository) GetPendingSyncMovements(ctx context.Context, limit int) ([]PendingSyncMovement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM movimiento WHERE sync_status = ? ORDER BY fecha_registro, id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync movements: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncMovement
	for rows.Next() {
		var p PendingSyncMovement
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending movement: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records a successful export of version. A newer version
// written in the meantime stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE movimiento SET sync_status = ?, synced_at = ? WHERE id = ? AND version = ?`,
		SyncSynced, formatTimestamp(r.now()), id, version)
	if err != nil {
		return fmt.Errorf("mark movement synced: %w", err)
	}
	r.logger.DebugContext(ctx, "Movement marked as synced", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE movimiento SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark movement sync error: %w", err)
	}
	r.logger.WarnContext(ctx, "Movement marked with sync error", "id", id)
	return nil
}

// SyncStatus returns the export state of a movement.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	var s string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM movimiento WHERE id = ?`, id).Scan(&s)
	if err != nil {
		return "", fmt.Errorf("movement %d sync status: %w", id, translate(err))
	}
	return s, nil
}

// ResetSyncErrors puts movements whose export failed back in the pending state.
func (r *SQLiteRepository) ResetSyncErrors(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE movimiento SET sync_status = ? WHERE sync_status = ?`, SyncPending, SyncError)
	if err != nil {
		return 0, fmt.Errorf("reset sync errors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset sync errors: %w", err)
	}
	return n, nil
}
