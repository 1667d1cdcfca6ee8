// Package core provides money parsing and handling utilities.
//
// This file wraps shopspring/decimal so that sums over the transaction log
// never accumulate binary floating point error. Rounding happens only when
// values are formatted for display.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in the configured display currency.
type Money struct {
	amount decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{}

// NewMoney creates a whole-unit amount.
func NewMoney(units int64) Money {
	return Money{amount: decimal.NewFromInt(units)}
}

// MoneyFromDecimal wraps an existing decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d}
}

// ParseMoney parses a decimal string.
//
// It accepts either a dot (12.34) or a comma (12,34) as the decimal
// separator. Input mixing both, or a comma followed by exactly three digits
// (1,500), reads like a thousands separator and is rejected. Unlike the
// record validators it does not reject zero or negative values.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("12,34") -> 12.34, nil
//	ParseMoney("1,500") -> 0, ErrInvalidAmount
//	ParseMoney("abc")   -> 0, ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		if strings.Contains(s, ".") || len(s)-i-1 == 3 {
			return Zero, fmt.Errorf("%w: %q: ambiguous separator, use a dot for decimals", ErrInvalidAmount, s)
		}
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{amount: d}, nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Add(o Money) Money { return Money{amount: m.amount.Add(o.amount)} }

func (m Money) Sub(o Money) Money { return Money{amount: m.amount.Sub(o.amount)} }

func (m Money) Neg() Money { return Money{amount: m.amount.Neg()} }

func (m Money) Abs() Money { return Money{amount: m.amount.Abs()} }

// DivInt splits the amount into n equal parts.
func (m Money) DivInt(n int64) Money {
	return Money{amount: m.amount.Div(decimal.NewFromInt(n))}
}

func (m Money) Cmp(o Money) int { return m.amount.Cmp(o.amount) }

func (m Money) Equal(o Money) bool { return m.amount.Equal(o.amount) }

func (m Money) GreaterThan(o Money) bool { return m.amount.GreaterThan(o.amount) }

func (m Money) LessThan(o Money) bool { return m.amount.LessThan(o.amount) }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if m.LessThan(o) {
		return o
	}
	return m
}

// Float64 returns the nearest float for charting; never use it for sums.
func (m Money) Float64() float64 {
	return m.amount.InexactFloat64()
}

func (m Money) String() string { return m.amount.String() }

// Format renders the amount with thousands separators, at most two
// decimals, and the currency as a suffix.
func (m Money) Format(currency string) string {
	s := m.amount.Round(2).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}

// Percent returns part as a percentage of whole, or 0 when whole is zero.
func Percent(part, whole Money) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.amount.Div(whole.amount).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.amount.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	m.amount = d
	return nil
}
