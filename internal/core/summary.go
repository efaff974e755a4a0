package core

import "github.com/shopspring/decimal"

// Summary is the aggregate view of a movement list. It is derived data and
// is never stored.
type Summary struct {
	TotalIncome    Money `json:"totalIngresos"`
	TotalExpense   Money `json:"totalGastos"`
	NetBalance     Money `json:"balanceNeto"`
	OpeningBalance Money `json:"saldoInicial"`
	CurrentBalance Money `json:"saldoTotal"`
	Count          int   `json:"cantidad"`
}

// ComputeSummary totals income and expense over movements. The result does
// not depend on the order of movements. Kinds are checked when movements
// enter the system, so only INGRESO and GASTO reach this point.
func ComputeSummary(movements []Movement, opening Money) Summary {
	var income, expense int64
	for _, m := range movements {
		switch m.Kind {
		case Income:
			income += m.Amount.Cents
		case Expense:
			expense += m.Amount.Cents
		}
	}
	net := income - expense
	return Summary{
		TotalIncome:    Money{Cents: income},
		TotalExpense:   Money{Cents: expense},
		NetBalance:     Money{Cents: net},
		OpeningBalance: opening,
		CurrentBalance: Money{Cents: opening.Cents + net},
		Count:          len(movements),
	}
}

// Signed returns the amount with the sign its kind gives it.
func (m Movement) Signed() int64 {
	if m.Kind == Expense {
		return -m.Amount.Cents
	}
	return m.Amount.Cents
}

// DateRange bounds a report. Zero dates leave that side open.
type DateRange struct {
	From Date
	To   Date
}

func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From.Time) {
		return ErrDateRange
	}
	return nil
}

// Filter keeps the movements that satisfy keep.
func Filter(movements []Movement, keep func(Movement) bool) []Movement {
	out := make([]Movement, 0, len(movements))
	for _, m := range movements {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// AccountBalance is the opening balance of the account plus the net of its
// movements inside r.
func AccountBalance(account Account, movements []Movement, r DateRange) Money {
	total := account.OpeningBalance.Cents
	for _, m := range movements {
		if m.AccountID == account.ID && m.OccurredAt.Within(r.From, r.To) {
			total += m.Signed()
		}
	}
	return Money{Cents: total}
}

// CategoryNet is the net of the movements filed under categoryID inside r.
func CategoryNet(categoryID int64, movements []Movement, r DateRange) Money {
	var total int64
	for _, m := range movements {
		if m.CategoryID == categoryID && m.OccurredAt.Within(r.From, r.To) {
			total += m.Signed()
		}
	}
	return Money{Cents: total}
}

const (
	BudgetUnder = "under"
	BudgetNear  = "near"
	BudgetOver  = "over"
)

// BudgetStatus reports how much of a budget has been spent.
type BudgetStatus struct {
	Budget      Budget  `json:"presupuesto"`
	Spent       Money   `json:"gastado"`
	Remaining   Money   `json:"restante"`
	PercentUsed float64 `json:"porcentaje"`
	Status      string  `json:"estado"`
}

// EvaluateBudget sums the GASTO movements of the budget's category between
// its start and end dates. The status is near from 80% and over past 100%.
func EvaluateBudget(b Budget, movements []Movement) BudgetStatus {
	var spent int64
	for _, m := range movements {
		if m.Kind == Expense && m.CategoryID == b.CategoryID && m.OccurredAt.Within(b.StartDate, b.EndDate) {
			spent += m.Amount.Cents
		}
	}
	status := BudgetStatus{
		Budget:    b,
		Spent:     Money{Cents: spent},
		Remaining: Money{Cents: b.Amount.Cents - spent},
		Status:    BudgetUnder,
	}
	if b.Amount.Cents > 0 {
		pct := decimal.NewFromInt(spent).
			Div(decimal.NewFromInt(b.Amount.Cents)).
			Mul(decimal.NewFromInt(100)).
			Round(1)
		status.PercentUsed = pct.InexactFloat64()
		switch {
		case spent > b.Amount.Cents:
			status.Status = BudgetOver
		case spent*100 >= b.Amount.Cents*80:
			status.Status = BudgetNear
		}
	}
	return status
}
