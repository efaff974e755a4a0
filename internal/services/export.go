package services

import (
	"fmt"
	"io"

	"finanzas/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	movementsSheet = "Movimientos"
	summarySheet   = "Resumen"
)

var movementsHeader = []any{"ID", "Fecha", "Tipo", "Monto", "Categoria", "Cuenta", "Descripcion"}

// WriteMovementsXLSX writes a workbook with one row per movement and a
// summary sheet.
func WriteMovementsXLSX(w io.Writer, movements []core.Movement, sum core.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", movementsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, movementsSheet, 1, movementsHeader); err != nil {
		return err
	}
	for i, m := range movements {
		row := []any{
			m.ID,
			m.OccurredAt.String(),
			string(m.Kind),
			m.Amount.Decimal().InexactFloat64(),
			m.CategoryName,
			m.AccountName,
			m.Description,
		}
		if err := setRow(f, movementsSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(movementsSheet, "G", "G", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Saldo inicial", sum.OpeningBalance.Decimal().InexactFloat64()},
		{"Total ingresos", sum.TotalIncome.Decimal().InexactFloat64()},
		{"Total gastos", sum.TotalExpense.Decimal().InexactFloat64()},
		{"Balance neto", sum.NetBalance.Decimal().InexactFloat64()},
		{"Saldo total", sum.CurrentBalance.Decimal().InexactFloat64()},
		{"Movimientos", sum.Count},
	}
	for i, r := range summaryRows {
		if err := setRow(f, summarySheet, i+1, r); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
