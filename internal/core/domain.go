package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind classifies a movement, and the category it is filed under.
type Kind string

const (
	Income  Kind = "INGRESO"
	Expense Kind = "GASTO"
)

// Period is the recurrence window of a budget.
type Period string

const (
	Monthly Period = "MENSUAL"
	Weekly  Period = "SEMANAL"
)

const (
	maxDescriptionLen = 255
	maxNameLen        = 100
	dateLayout        = "2006-01-02"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Movement struct {
		ID           int64      `json:"id"`
		Kind         Kind       `json:"tipo"`
		Amount       Money      `json:"monto"`
		CategoryID   int64      `json:"categoriaId"`
		CategoryName string     `json:"categoria,omitempty"`
		AccountID    int64      `json:"cuentaId"`
		AccountName  string     `json:"cuenta,omitempty"`
		OccurredAt   Date       `json:"fecha"`
		Description  string     `json:"descripcion,omitempty"`
		RegisteredAt time.Time  `json:"fechaRegistro"`
		UpdatedAt    *time.Time `json:"fechaActualizacion,omitempty"`
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"nombre"`
		Type  Kind   `json:"tipo"`
		Color string `json:"color,omitempty"`
	}

	Account struct {
		ID             int64  `json:"id"`
		Name           string `json:"nombre"`
		OpeningBalance Money  `json:"saldoInicial"`
		Description    string `json:"descripcion,omitempty"`
	}

	Budget struct {
		ID         int64  `json:"id"`
		Amount     Money  `json:"monto"`
		Period     Period `json:"periodo"`
		StartDate  Date   `json:"fechaInicio"`
		EndDate    Date   `json:"fechaFin"`
		CategoryID int64  `json:"categoriaId"`
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrInvalidKind          = errors.New("invalid movement type")
	ErrInvalidPeriod        = errors.New("invalid budget period")
	ErrInvalidDate          = errors.New("invalid date")
	ErrFutureDate           = errors.New("date cannot be in the future")
	ErrDateRange            = errors.New("end date must not be before start date")
	ErrMissingCategory      = errors.New("category is required")
	ErrMissingAccount       = errors.New("account is required")
	ErrEmptyName            = errors.New("empty name")
	ErrNameTooLong          = errors.New("name too long (max 100 characters)")
	ErrDescriptionTooLong   = errors.New("description too long (max 255 characters)")
	ErrInvalidColor         = errors.New("invalid color, expected #RRGGBB")
	ErrCategoryKindMismatch = errors.New("category type does not match movement type")
)

// ValidationError ties a rejected value to the field it came from.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseKind accepts the stored names and their English aliases, in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INGRESO", "INCOME":
		return Income, nil
	case "GASTO", "EXPENSE":
		return Expense, nil
	}
	return "", ErrInvalidKind
}

func (k Kind) Validate() error {
	if k != Income && k != Expense {
		return ErrInvalidKind
	}
	return nil
}

func ParsePeriod(s string) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MENSUAL", "MONTHLY":
		return Monthly, nil
	case "SEMANAL", "WEEKLY":
		return Weekly, nil
	}
	return "", ErrInvalidPeriod
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate reads an ISO date (YYYY-MM-DD). An RFC 3339 timestamp is
// accepted and truncated to its date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Within reports whether d falls in [from, to]; zero bounds are open.
func (d Date) Within(from, to Date) bool {
	if !from.IsZero() && d.Before(from.Time) {
		return false
	}
	if !to.IsZero() && d.After(to.Time) {
		return false
	}
	return true
}

// Key identifies the movement inside an IndexedSet.
func (m Movement) Key() int64 { return m.ID }

// Validate checks a movement before it reaches a store or the summary.
func (m Movement) Validate() error {
	if err := m.Kind.Validate(); err != nil {
		return invalid("tipo", err)
	}
	if m.Amount.Cents < 0 {
		return invalid("monto", ErrNegativeAmount)
	}
	if m.Amount.Cents > MaxAmountCents {
		return invalid("monto", ErrInvalidAmount)
	}
	if err := m.OccurredAt.Validate(); err != nil {
		return invalid("fecha", err)
	}
	if m.CategoryID <= 0 && strings.TrimSpace(m.CategoryName) == "" {
		return invalid("categoria", ErrMissingCategory)
	}
	if m.AccountID <= 0 && strings.TrimSpace(m.AccountName) == "" {
		return invalid("cuenta", ErrMissingAccount)
	}
	if utf8.RuneCountInString(m.Description) > maxDescriptionLen {
		return invalid("descripcion", ErrDescriptionTooLong)
	}
	return nil
}

func (c Category) Key() int64 { return c.ID }

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return invalid("nombre", err)
	}
	if err := c.Type.Validate(); err != nil {
		return invalid("tipo", err)
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return invalid("color", ErrInvalidColor)
	}
	return nil
}

func (a Account) Key() int64 { return a.ID }

func (a Account) Validate() error {
	if err := validateName(a.Name); err != nil {
		return invalid("nombre", err)
	}
	if a.OpeningBalance.Cents < 0 {
		return invalid("saldoInicial", ErrNegativeAmount)
	}
	if utf8.RuneCountInString(a.Description) > maxDescriptionLen {
		return invalid("descripcion", ErrDescriptionTooLong)
	}
	return nil
}

func (b Budget) Key() int64 { return b.ID }

func (b Budget) Validate() error {
	if b.Amount.Cents <= 0 {
		return invalid("monto", ErrInvalidAmount)
	}
	if b.Period != Monthly && b.Period != Weekly {
		return invalid("periodo", ErrInvalidPeriod)
	}
	if err := b.StartDate.Validate(); err != nil {
		return invalid("fechaInicio", err)
	}
	if err := b.EndDate.Validate(); err != nil {
		return invalid("fechaFin", err)
	}
	if b.EndDate.Before(b.StartDate.Time) {
		return invalid("fechaFin", ErrDateRange)
	}
	if b.CategoryID <= 0 {
		return invalid("categoriaId", ErrMissingCategory)
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return ErrNameTooLong
	}
	return nil
}
