package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finanzas/internal/config"
)

// ApplySeed inserts the seed categories and accounts into an empty catalog.
// A catalog that already has rows is left alone.
func (r *SQLiteRepository) ApplySeed(ctx context.Context, seed *config.Seed) (int, error) {
	if seed == nil {
		return 0, nil
	}
	inserted := 0
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM categoria) + (SELECT COUNT(*) FROM cuenta)`).Scan(&n); err != nil {
			return fmt.Errorf("count catalog: %w", err)
		}
		if n > 0 {
			return nil
		}
		for _, sc := range seed.Categories {
			c, err := sc.Form().Category()
			if err != nil {
				return fmt.Errorf("seed category %q: %w", sc.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO categoria (nombre, tipo, color) VALUES (?, ?, ?)`,
				c.Name, string(c.Type), c.Color); err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, translate(err))
			}
			inserted++
		}
		for _, sa := range seed.Accounts {
			a, err := sa.Form().Account()
			if err != nil {
				return fmt.Errorf("seed account %q: %w", sa.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO cuenta (nombre, saldo_inicial_cents, descripcion) VALUES (?, ?, ?)`,
				a.Name, a.OpeningBalance.Cents, a.Description); err != nil {
				return fmt.Errorf("seed account %q: %w", a.Name, translate(err))
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		r.logger.InfoContext(ctx, "Catalog seeded", "rows", inserted)
	}
	return inserted, nil
}
