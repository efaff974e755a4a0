package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finanzas/internal/core"
)

const budgetColumns = `id, monto_cents, periodo, fecha_inicio, fecha_fin, categoria_id`

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b          core.Budget
		period     string
		start, end string
	)
	if err := s.Scan(&b.ID, &b.Amount.Cents, &period, &start, &end, &b.CategoryID); err != nil {
		return core.Budget{}, err
	}
	b.Period = core.Period(period)
	var err error
	if b.StartDate, err = parseDate(start); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseDate(end); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM presupuesto ORDER BY fecha_inicio DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Lookup[core.Budget], error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM presupuesto WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound[core.Budget](), nil
	}
	if err != nil {
		return core.NotFound[core.Budget](), fmt.Errorf("get budget %d: %w", id, err)
	}
	return core.Found(b), nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO presupuesto (monto_cents, periodo, fecha_inicio, fecha_fin, categoria_id) VALUES (?, ?, ?, ?, ?)`,
		b.Amount.Cents, string(b.Period), b.StartDate.String(), b.EndDate.String(), b.CategoryID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", referenceError(err))
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE presupuesto SET monto_cents = ?, periodo = ?, fecha_inicio = ?, fecha_fin = ?, categoria_id = ? WHERE id = ?`,
		b.Amount.Cents, string(b.Period), b.StartDate.String(), b.EndDate.String(), b.CategoryID, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, referenceError(err))
	}
	if err := rowsAffected(res); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presupuesto WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := rowsAffected(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}
