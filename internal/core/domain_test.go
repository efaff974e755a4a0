package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"INGRESO", Income, true},
		{"ingreso", Income, true},
		{"INCOME", Income, true},
		{" gasto ", Expense, true},
		{"EXPENSE", Expense, true},
		{"TRANSFERENCIA", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("%q: expected ErrInvalidKind, got %v", tc.in, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, 3, 9)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2025-03-09"` {
		t.Fatalf("unexpected json %s", b)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"2025-03-09T15:04:05Z"`), &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("expected %v, got %v", d, back)
	}

	if err := json.Unmarshal([]byte(`"09/03/2025"`), &back); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}

func TestDateWithin(t *testing.T) {
	d := NewDate(2025, 1, 15)
	if !d.Within(Date{}, Date{}) {
		t.Fatal("open range must contain every date")
	}
	if !d.Within(NewDate(2025, 1, 15), NewDate(2025, 1, 15)) {
		t.Fatal("bounds are inclusive")
	}
	if d.Within(NewDate(2025, 1, 16), Date{}) {
		t.Fatal("date before lower bound")
	}
	if d.Within(Date{}, NewDate(2025, 1, 14)) {
		t.Fatal("date after upper bound")
	}
}

func TestMovementValidate(t *testing.T) {
	good := Movement{
		Kind:       Income,
		Amount:     Cents(0),
		CategoryID: 1,
		AccountID:  1,
		OccurredAt: NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("zero amount is valid, got %v", err)
	}

	bads := map[string]Movement{
		"kind":        {Kind: "OTRO", Amount: Cents(1), CategoryID: 1, AccountID: 1, OccurredAt: NewDate(2025, 1, 1)},
		"negative":    {Kind: Expense, Amount: Cents(-1), CategoryID: 1, AccountID: 1, OccurredAt: NewDate(2025, 1, 1)},
		"date":        {Kind: Expense, Amount: Cents(1), CategoryID: 1, AccountID: 1},
		"category":    {Kind: Expense, Amount: Cents(1), AccountID: 1, OccurredAt: NewDate(2025, 1, 1)},
		"account":     {Kind: Expense, Amount: Cents(1), CategoryID: 1, OccurredAt: NewDate(2025, 1, 1)},
		"description": {Kind: Expense, Amount: Cents(1), CategoryID: 1, AccountID: 1, OccurredAt: NewDate(2025, 1, 1), Description: strings.Repeat("x", 256)},
		"too large":   {Kind: Income, Amount: Cents(MaxAmountCents + 1), CategoryID: 1, AccountID: 1, OccurredAt: NewDate(2025, 1, 1)},
	}
	for name, m := range bads {
		err := m.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %T", name, err)
		}
	}
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	accented := Movement{Kind: Expense, Amount: Cents(1), CategoryID: 1, AccountID: 1, OccurredAt: NewDate(2025, 1, 1),
		Description: strings.Repeat("ñ", 255)}
	if err := accented.Validate(); err != nil {
		t.Fatalf("255 accented characters must be accepted, got %v", err)
	}
	accented.Description += "á"
	if err := accented.Validate(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}

	if err := (Category{Name: strings.Repeat("é", 100), Type: Expense}).Validate(); err != nil {
		t.Fatalf("100 accented characters must be accepted, got %v", err)
	}
	if err := (Category{Name: strings.Repeat("é", 101), Type: Expense}).Validate(); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
	if err := (Account{Name: "Caja", Description: strings.Repeat("ó", 255)}).Validate(); err != nil {
		t.Fatalf("255 accented characters must be accepted, got %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Comida", Type: Expense, Color: "#FF8800"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "Comida", Type: Expense, Color: "red"}).Validate(); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
	if err := (Category{Name: " ", Type: Income}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Name: "Principal", OpeningBalance: Cents(0)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Account{Name: "Principal", OpeningBalance: Cents(-100)}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Amount: Cents(10000), Period: Monthly, StartDate: NewDate(2025, 1, 1), EndDate: NewDate(2025, 1, 31), CategoryID: 2}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	b.EndDate = NewDate(2024, 12, 31)
	if err := b.Validate(); !errors.Is(err, ErrDateRange) {
		t.Fatalf("expected ErrDateRange, got %v", err)
	}
}

func TestMovementFormParsesAmountText(t *testing.T) {
	var f MovementForm
	body := `{"tipo":"INGRESO","monto":"250","categoriaId":1,"cuentaId":2,"fecha":"2025-01-10"}`
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		t.Fatal(err)
	}
	m, err := f.Movement()
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if m.Amount.Cents != 25000 || m.Kind != Income {
		t.Fatalf("unexpected movement %+v", m)
	}

	if err := json.Unmarshal([]byte(`{"monto":12.5}`), &f); err != nil {
		t.Fatal(err)
	}
	if f.Amount != "12.5" {
		t.Fatalf("numeric monto should decode as text, got %q", f.Amount)
	}
}

func TestMovementFormRejects(t *testing.T) {
	base := MovementForm{Kind: "GASTO", Amount: "10", CategoryID: 1, AccountID: 1, Date: "2025-01-01"}
	cases := []struct {
		name  string
		edit  func(*MovementForm)
		field string
	}{
		{"kind", func(f *MovementForm) { f.Kind = "X" }, "tipo"},
		{"amount", func(f *MovementForm) { f.Amount = "abc" }, "monto"},
		{"negative", func(f *MovementForm) { f.Amount = "-5" }, "monto"},
		{"date", func(f *MovementForm) { f.Date = "" }, "fecha"},
		{"category", func(f *MovementForm) { f.CategoryID = 0 }, "categoriaId"},
		{"account", func(f *MovementForm) { f.AccountID = 0 }, "cuentaId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			tc.edit(&f)
			_, err := f.Movement()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, ve.Field)
			}
		})
	}
}

func TestMovementPatchApply(t *testing.T) {
	m := Movement{ID: 3, Kind: Expense, Amount: Cents(500), CategoryID: 1, CategoryName: "Comida", AccountID: 1, OccurredAt: NewDate(2025, 1, 1)}
	amount := AmountText("7,25")
	desc := "cena"
	got, err := MovementPatch{Amount: &amount, Description: &desc}.Apply(m)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount.Cents != 725 || got.Description != "cena" || got.CategoryName != "Comida" {
		t.Fatalf("unexpected patch result %+v", got)
	}
}

func TestQuickFormRules(t *testing.T) {
	today := NewDate(2025, 6, 1)
	if _, err := (QuickForm{Kind: "GASTO", Amount: "0", CategoryName: "Comida", AccountID: 1}).Movement(today); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := (QuickForm{Kind: "GASTO", Amount: "1", CategoryName: "Comida", AccountID: 1, Date: "2025-06-02"}).Movement(today); !errors.Is(err, ErrFutureDate) {
		t.Fatalf("expected ErrFutureDate, got %v", err)
	}
	m, err := QuickForm{Kind: "gasto", Amount: "25.50", CategoryName: "Comida", AccountID: 1}.Movement(today)
	if err != nil {
		t.Fatal(err)
	}
	if !m.OccurredAt.Equal(today.Time) {
		t.Fatalf("date should default to today, got %v", m.OccurredAt)
	}
}

func TestDateOfTruncates(t *testing.T) {
	d := DateOf(time.Date(2025, 2, 3, 23, 59, 0, 0, time.UTC))
	if d.String() != "2025-02-03" {
		t.Fatalf("unexpected %s", d)
	}
}
