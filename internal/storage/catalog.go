package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finanzas/internal/core"
)

const categoryColumns = `id, nombre, tipo, color`

func scanCategory(s scanner) (core.Category, error) {
	var c core.Category
	var kind string
	if err := s.Scan(&c.ID, &c.Name, &kind, &c.Color); err != nil {
		return core.Category{}, err
	}
	c.Type = core.Kind(kind)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categoria ORDER BY nombre COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Lookup[core.Category], error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categoria WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound[core.Category](), nil
	}
	if err != nil {
		return core.NotFound[core.Category](), fmt.Errorf("get category %d: %w", id, err)
	}
	return core.Found(c), nil
}

// FindCategoryByName matches names case-insensitively.
func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, name string) (core.Lookup[core.Category], error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categoria WHERE nombre = ? COLLATE NOCASE`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound[core.Category](), nil
	}
	if err != nil {
		return core.NotFound[core.Category](), fmt.Errorf("find category %q: %w", name, err)
	}
	return core.Found(c), nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categoria (nombre, tipo, color) VALUES (?, ?, ?)`,
		c.Name, string(c.Type), c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", translate(err))
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	r.logger.DebugContext(ctx, "Category created", "id", c.ID, "name", c.Name)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categoria SET nombre = ?, tipo = ?, color = ? WHERE id = ?`,
		c.Name, string(c.Type), c.Color, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, translate(err))
	}
	if err := rowsAffected(res); err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categoria WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, translate(err))
	}
	if err := rowsAffected(res); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

const accountColumns = `id, nombre, saldo_inicial_cents, descripcion`

func scanAccount(s scanner) (core.Account, error) {
	var a core.Account
	if err := s.Scan(&a.ID, &a.Name, &a.OpeningBalance.Cents, &a.Description); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM cuenta ORDER BY nombre COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Lookup[core.Account], error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM cuenta WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound[core.Account](), nil
	}
	if err != nil {
		return core.NotFound[core.Account](), fmt.Errorf("get account %d: %w", id, err)
	}
	return core.Found(a), nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cuenta (nombre, saldo_inicial_cents, descripcion) VALUES (?, ?, ?)`,
		a.Name, a.OpeningBalance.Cents, a.Description)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", translate(err))
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	r.logger.DebugContext(ctx, "Account created", "id", a.ID, "name", a.Name)
	return a, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cuenta SET nombre = ?, saldo_inicial_cents = ?, descripcion = ? WHERE id = ?`,
		a.Name, a.OpeningBalance.Cents, a.Description, a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, translate(err))
	}
	if err := rowsAffected(res); err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return a, nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cuenta WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, translate(err))
	}
	if err := rowsAffected(res); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

// TotalOpeningBalance sums the opening balances of every account.
func (r *SQLiteRepository) TotalOpeningBalance(ctx context.Context) (core.Money, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(saldo_inicial_cents), 0) FROM cuenta`).Scan(&total); err != nil {
		return core.Money{}, fmt.Errorf("sum opening balances: %w", err)
	}
	return core.Cents(total), nil
}
