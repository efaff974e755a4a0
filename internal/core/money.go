// Package core holds the finance domain: entities, their validation, money
// handling and the summary computations built on top of them.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents is the largest accepted amount, 9,999,999,999.99. Summing
// millions of such amounts still fits in int64 cents.
const MaxAmountCents = 999_999_999_999

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.New(MaxAmountCents, -2)
)

// ParseAmount converts a decimal string to Money.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Digits
// past the second decimal are rounded half-up. Zero is a valid amount; negative
// values are rejected with ErrNegativeAmount, amounts above MaxAmountCents
// with ErrInvalidAmount.
//
//	ParseAmount("250")    -> 25000 cents
//	ParseAmount("12,50")  -> 1250 cents
//	ParseAmount("1.005")  -> 101 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// ParsePositiveAmount is ParseAmount restricted to amounts above zero.
func ParsePositiveAmount(s string) (Money, error) {
	m, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents == 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// MoneyFromDecimal rounds d half-up to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return toCents(d)
}

func toCents(d decimal.Decimal) (Money, error) {
	d = d.Round(2)
	if d.Abs().GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Mul(hundred).IntPart()}, nil
}

// Cents builds Money from a cent count.
func Cents(c int64) Money { return Money{Cents: c} }

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// String formats with two decimals, e.g. "250.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Negative values
// decode so that validation can report them against their field; values
// beyond MaxAmountCents do not.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := strings.ReplaceAll(strings.Trim(string(b), `"`), ",", ".")
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ErrInvalidAmount
	}
	money, err := toCents(d)
	if err != nil {
		return err
	}
	*m = money
	return nil
}

// AmountText is an amount as typed by a user. It decodes from either a JSON
// string or a JSON number so forms can carry "250" and 250 alike.
type AmountText string

func (a *AmountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	*a = AmountText(strings.Trim(string(b), `"`))
	return nil
}
