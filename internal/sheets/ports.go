package sheets

import (
	"context"
	"strconv"

	"finanzas/internal/core"
)

// Header is the first row of the export sheet. Column A holds the movement
// id and is the key every write is matched on.
var Header = []string{"ID", "Fecha", "Tipo", "Monto", "Categoria", "Cuenta", "Descripcion", "Version"}

// Ports for outbound adapters.
type (
	MovementExporter interface {
		// Upsert writes the row for r.ID, replacing an existing one.
		Upsert(ctx context.Context, r Row) (rowRef string, err error)
		// Delete removes the row for the movement id. Missing rows are not an error.
		Delete(ctx context.Context, movementID int64) error
	}
)

// Row is one exported movement.
type Row struct {
	ID          int64
	Date        core.Date
	Kind        core.Kind
	Amount      core.Money
	Category    string
	Account     string
	Description string
	Version     int64
}

func RowFromMovement(m core.Movement, version int64) Row {
	return Row{
		ID:          m.ID,
		Date:        m.OccurredAt,
		Kind:        m.Kind,
		Amount:      m.Amount,
		Category:    m.CategoryName,
		Account:     m.AccountName,
		Description: m.Description,
		Version:     version,
	}
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	return []any{
		strconv.FormatInt(r.ID, 10),
		r.Date.String(),
		string(r.Kind),
		r.Amount.String(),
		r.Category,
		r.Account,
		r.Description,
		r.Version,
	}
}
