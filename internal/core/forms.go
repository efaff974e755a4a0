package core

import "strings"

// MovementForm is the raw input for creating or editing a movement.
type MovementForm struct {
	Kind        string     `json:"tipo"`
	Amount      AmountText `json:"monto"`
	CategoryID  int64      `json:"categoriaId"`
	AccountID   int64      `json:"cuentaId"`
	Date        string     `json:"fecha"`
	Description string     `json:"descripcion"`
}

// Movement parses and validates the form. The returned movement has no id.
func (f MovementForm) Movement() (Movement, error) {
	kind, err := ParseKind(f.Kind)
	if err != nil {
		return Movement{}, invalid("tipo", err)
	}
	amount, err := ParseAmount(string(f.Amount))
	if err != nil {
		return Movement{}, invalid("monto", err)
	}
	if strings.TrimSpace(f.Date) == "" {
		return Movement{}, invalid("fecha", ErrInvalidDate)
	}
	date, err := ParseDate(f.Date)
	if err != nil {
		return Movement{}, invalid("fecha", err)
	}
	m := Movement{
		Kind:        kind,
		Amount:      amount,
		CategoryID:  f.CategoryID,
		AccountID:   f.AccountID,
		OccurredAt:  date,
		Description: strings.TrimSpace(f.Description),
	}
	if m.CategoryID <= 0 {
		return Movement{}, invalid("categoriaId", ErrMissingCategory)
	}
	if m.AccountID <= 0 {
		return Movement{}, invalid("cuentaId", ErrMissingAccount)
	}
	return m, m.Validate()
}

// MovementPatch carries a partial update; nil fields keep the stored value.
type MovementPatch struct {
	Kind        *string     `json:"tipo"`
	Amount      *AmountText `json:"monto"`
	CategoryID  *int64      `json:"categoriaId"`
	AccountID   *int64      `json:"cuentaId"`
	Date        *string     `json:"fecha"`
	Description *string     `json:"descripcion"`
}

// Apply merges the patch onto m and validates the result.
func (p MovementPatch) Apply(m Movement) (Movement, error) {
	if p.Kind != nil {
		kind, err := ParseKind(*p.Kind)
		if err != nil {
			return m, invalid("tipo", err)
		}
		m.Kind = kind
	}
	if p.Amount != nil {
		amount, err := ParseAmount(string(*p.Amount))
		if err != nil {
			return m, invalid("monto", err)
		}
		m.Amount = amount
	}
	if p.CategoryID != nil {
		m.CategoryID = *p.CategoryID
		m.CategoryName = ""
	}
	if p.AccountID != nil {
		m.AccountID = *p.AccountID
		m.AccountName = ""
	}
	if p.Date != nil {
		date, err := ParseDate(*p.Date)
		if err != nil {
			return m, invalid("fecha", err)
		}
		m.OccurredAt = date
	}
	if p.Description != nil {
		m.Description = strings.TrimSpace(*p.Description)
	}
	return m, m.Validate()
}

// QuickForm registers a movement by category name, creating the category
// when it does not exist yet.
type QuickForm struct {
	Kind         string     `json:"tipo"`
	Amount       AmountText `json:"monto"`
	CategoryName string     `json:"categoria"`
	AccountID    int64      `json:"cuentaId"`
	Date         string     `json:"fecha"`
	Description  string     `json:"descripcion"`
}

// Movement validates the quick form against today: the amount must be
// strictly positive and the date, when given, not later than today.
func (f QuickForm) Movement(today Date) (Movement, error) {
	kind, err := ParseKind(f.Kind)
	if err != nil {
		return Movement{}, invalid("tipo", err)
	}
	amount, err := ParsePositiveAmount(string(f.Amount))
	if err != nil {
		return Movement{}, invalid("monto", err)
	}
	date := today
	if strings.TrimSpace(f.Date) != "" {
		if date, err = ParseDate(f.Date); err != nil {
			return Movement{}, invalid("fecha", err)
		}
	}
	if date.After(today.Time) {
		return Movement{}, invalid("fecha", ErrFutureDate)
	}
	if f.AccountID <= 0 {
		return Movement{}, invalid("cuentaId", ErrMissingAccount)
	}
	m := Movement{
		Kind:         kind,
		Amount:       amount,
		CategoryName: strings.TrimSpace(f.CategoryName),
		AccountID:    f.AccountID,
		OccurredAt:   date,
		Description:  strings.TrimSpace(f.Description),
	}
	return m, m.Validate()
}

type CategoryForm struct {
	Name  string `json:"nombre"`
	Type  string `json:"tipo"`
	Color string `json:"color"`
}

func (f CategoryForm) Category() (Category, error) {
	kind, err := ParseKind(f.Type)
	if err != nil {
		return Category{}, invalid("tipo", err)
	}
	c := Category{Name: strings.TrimSpace(f.Name), Type: kind, Color: strings.TrimSpace(f.Color)}
	return c, c.Validate()
}

type AccountForm struct {
	Name           string     `json:"nombre"`
	OpeningBalance AmountText `json:"saldoInicial"`
	Description    string     `json:"descripcion"`
}

func (f AccountForm) Account() (Account, error) {
	var opening Money
	if strings.TrimSpace(string(f.OpeningBalance)) != "" {
		m, err := ParseAmount(string(f.OpeningBalance))
		if err != nil {
			return Account{}, invalid("saldoInicial", err)
		}
		opening = m
	}
	a := Account{
		Name:           strings.TrimSpace(f.Name),
		OpeningBalance: opening,
		Description:    strings.TrimSpace(f.Description),
	}
	return a, a.Validate()
}

type BudgetForm struct {
	Amount     AmountText `json:"monto"`
	Period     string     `json:"periodo"`
	StartDate  string     `json:"fechaInicio"`
	EndDate    string     `json:"fechaFin"`
	CategoryID int64      `json:"categoriaId"`
}

func (f BudgetForm) Budget() (Budget, error) {
	amount, err := ParsePositiveAmount(string(f.Amount))
	if err != nil {
		return Budget{}, invalid("monto", err)
	}
	period, err := ParsePeriod(f.Period)
	if err != nil {
		return Budget{}, invalid("periodo", err)
	}
	start, err := ParseDate(f.StartDate)
	if err != nil {
		return Budget{}, invalid("fechaInicio", err)
	}
	end, err := ParseDate(f.EndDate)
	if err != nil {
		return Budget{}, invalid("fechaFin", err)
	}
	b := Budget{Amount: amount, Period: period, StartDate: start, EndDate: end, CategoryID: f.CategoryID}
	return b, b.Validate()
}
