// Package core provides money parsing and handling utilities.
//
// This file contains the Money value used by every ledger amount and the
// functions for parsing amounts typed by users.
package core

import (
	"strings"
	"unicode"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the smallest difference treated as a real mismatch
// when comparing balances.
var BalanceTolerance = NewMoney(0.01)

// DisplayCurrency is the ISO code used by Money.String.
var DisplayCurrency = gomoney.MXN

// Money is a signed amount in major units.
type Money struct {
	value decimal.Decimal
}

// NewMoney builds a Money from a float amount in major units.
func NewMoney(v float64) Money {
	return Money{value: decimal.NewFromFloat(v)}
}

// Zero is the zero amount.
func Zero() Money { return Money{} }

// ParseAmount converts a user supplied decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Thousands separators are not supported.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("-5")     -> -5, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" || strings.Count(body, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range body {
		if r != '.' && !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d}, nil
}

// ParsePositiveAmount parses s and rejects zero or negative values.
func ParsePositiveAmount(s string) (Money, error) {
	m, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if err := m.ValidatePositive(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// ValidatePositive reports ErrInvalidAmount unless m > 0.
func (m Money) ValidatePositive() error {
	if !m.value.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(n Money) Money        { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money        { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money               { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money               { return Money{value: m.value.Abs()} }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) }
func (m Money) LessThan(n Money) bool    { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool { return m.value.GreaterThan(n.value) }
func (m Money) Cmp(n Money) int          { return m.value.Cmp(n.value) }
func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) Round() Money             { return Money{value: m.value.Round(2)} }
func (m Money) Max(n Money) Money        { return Money{value: decimal.Max(m.value, n.value)} }
func (m Money) Min(n Money) Money        { return Money{value: decimal.Min(m.value, n.value)} }

func (m Money) Float64() float64 {
	f, _ := m.value.Float64()
	return f
}

// WithinTolerance reports whether m and n differ by less than BalanceTolerance.
func (m Money) WithinTolerance(n Money) bool {
	return m.Sub(n).Abs().LessThan(BalanceTolerance)
}

// Percent returns m/of*100, or zero when of is not positive.
func (m Money) Percent(of Money) float64 {
	if !of.value.IsPositive() {
		return 0
	}
	f, _ := m.value.Div(of.value).Mul(decimal.NewFromInt(100)).Float64()
	return f
}

// String formats the amount in DisplayCurrency, e.g. "$1,234.50".
func (m Money) String() string {
	cents := m.value.Shift(2).Round(0).IntPart()
	return gomoney.New(cents, DisplayCurrency).Display()
}

// MarshalJSON writes the amount as a bare JSON number, the format backups
// have always used.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts numbers and quoted numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	m.value = d
	return nil
}
