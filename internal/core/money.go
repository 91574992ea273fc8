// Package core holds the domain model and the rollup engine.
//
// Money is kept in integer cents. Line revenue and gross totals are
// exact cent sums, so the two-decimal rounding the reports promise
// holds without any floating point involvement.
package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators
// are accepted. Zero is valid (free items exist); negative amounts are
// not.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPrice
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidPrice
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidPrice
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidPrice
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidPrice
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Dollars returns the amount as a float64 for display. Use cents for
// any arithmetic.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals, e.g. "24.00".
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return sign + strconv.FormatInt(c/100, 10) + "." + pad2(int(c%100))
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Mul(n int64) Money {
	return Money{Cents: m.Cents * n}
}

// MarshalJSON emits a plain JSON number of dollars so persisted blobs
// stay interchangeable with the legacy storage format.
func (m Money) MarshalJSON() ([]byte, error) {
	whole := m.Cents / 100
	frac := m.Cents % 100
	if frac == 0 {
		return []byte(strconv.FormatInt(whole, 10)), nil
	}
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (dollars) or a numeric string,
// rounding half-up past two decimals.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		m.Cents = 0
		return nil
	case string:
		cents, err := ParseDecimalToCents(v)
		if err != nil {
			return err
		}
		m.Cents = cents
		return nil
	case float64:
		// Route through the string parser so exact decimal input is
		// never disturbed by binary float representation.
		cents, err := ParseDecimalToCents(strconv.FormatFloat(v, 'f', -1, 64))
		if err != nil {
			return err
		}
		m.Cents = cents
		return nil
	default:
		return ErrInvalidPrice
	}
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
