package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"finanzas/internal/core"
)

var (
	incomeColor  = color.New(color.FgGreen)
	expenseColor = color.New(color.FgHiRed)
	headerColor  = color.New(color.Bold)
)

// signedAmount prints income as positive and expenses as negative.
func signedAmount(kind core.Kind, m core.Money) string {
	if kind == core.Expense {
		return expenseColor.Sprint("-" + m.String())
	}
	return incomeColor.Sprint("+" + m.String())
}

func balance(m core.Money) string {
	if m.Cents < 0 {
		return expenseColor.Sprint(m.String())
	}
	return incomeColor.Sprint(m.String())
}

func printSummary(w io.Writer, s core.Summary) {
	headerColor.Fprintln(w, "Resumen")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Saldo inicial\t%s\n", s.OpeningBalance)
	fmt.Fprintf(tw, "Ingresos\t%s\n", incomeColor.Sprint(s.TotalIncome.String()))
	fmt.Fprintf(tw, "Gastos\t%s\n", expenseColor.Sprint(s.TotalExpense.String()))
	fmt.Fprintf(tw, "Balance neto\t%s\n", balance(s.NetBalance))
	fmt.Fprintf(tw, "Saldo total\t%s\n", balance(s.CurrentBalance))
	fmt.Fprintf(tw, "Movimientos\t%d\n", s.Count)
	tw.Flush()
}

func printMovements(w io.Writer, movs []core.Movement) {
	if len(movs) == 0 {
		fmt.Fprintln(w, "Sin movimientos")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headerColor.Fprintln(tw, "ID\tFECHA\tMONTO\tCATEGORIA\tCUENTA\tDESCRIPCION")
	for _, m := range movs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.OccurredAt, signedAmount(m.Kind, m.Amount),
			nameOr(m.CategoryName, m.CategoryID), nameOr(m.AccountName, m.AccountID), m.Description)
	}
	tw.Flush()
}

func printMovement(w io.Writer, m core.Movement) {
	fmt.Fprintf(w, "#%d %s %s %s (%s / %s)\n",
		m.ID, m.OccurredAt, m.Kind, signedAmount(m.Kind, m.Amount),
		nameOr(m.CategoryName, m.CategoryID), nameOr(m.AccountName, m.AccountID))
}

func printMessage(w io.Writer, msg core.WhatsAppMessage) {
	status := string(msg.Status)
	switch msg.Status {
	case core.StatusError:
		status = expenseColor.Sprint(status)
	case core.StatusCompleted:
		status = incomeColor.Sprint(status)
	}
	fmt.Fprintf(w, "Mensaje #%d: %s\n", msg.ID, status)
	if msg.BotReply != "" {
		fmt.Fprintf(w, "Respuesta: %s\n", msg.BotReply)
	}
	if msg.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", msg.Error)
	}
}

func nameOr(name string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
