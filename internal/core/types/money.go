// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for every monetary column.
const MoneyScale = 2

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// NewMoneyFromInt creates a whole Money value.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// LineTotal returns price * qty.
func LineTotal(price Money, qty int64) Money {
	return price.Mul(decimal.NewFromInt(qty))
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Round normalizes a value to MoneyScale, halves away from zero, the
// same rule NUMERIC(15,2) columns apply on insert.
func Round(m Money) Money {
	return m.Round(MoneyScale)
}

// HasMoneyScale reports whether m is stored without rounding.
func HasMoneyScale(m Money) bool {
	return m.Equal(m.Truncate(MoneyScale))
}

// Equal compares two amounts at MoneyScale.
func Equal(a, b Money) bool {
	return Round(a).Equal(Round(b))
}
