// Package money provides BRL-centric money handling: integer-cent values
// via go-money for safe arithmetic, decimal conversion for the statement
// pipeline and pt-BR display formatting.
package money

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL is the only currency the tracker deals in.
const BRL = "BRL"

// Money is a BRL amount in integer cents.
type Money struct {
	m *money.Money
}

// New creates Money from cents.
func New(cents int64) *Money {
	return &Money{m: money.New(cents, BRL)}
}

// NewFromDecimal converts a decimal amount (reais) to Money.
func NewFromDecimal(amount decimal.Decimal) *Money {
	cents := amount.Mul(decimal.New(1, 2)).Round(0).IntPart()
	return New(cents)
}

// Zero is the zero BRL value.
func Zero() *Money {
	return New(0)
}

// Cents returns the amount in minor units.
func (m *Money) Cents() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Decimal returns the amount in reais.
func (m *Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents(), -2)
}

// Add returns the sum of two amounts.
func (m *Money) Add(other *Money) (*Money, error) {
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("failed to add amounts: %w", err)
	}
	return &Money{m: sum}, nil
}

// IsNegative reports whether the amount is below zero.
func (m *Money) IsNegative() bool {
	return m.Cents() < 0
}

// Display formats the amount the Brazilian way: R$ 1.234,56.
func (m *Money) Display() string {
	cents := m.Cents()
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	reais := cents / 100
	fraction := cents % 100

	intPart := groupThousands(fmt.Sprintf("%d", reais))
	return fmt.Sprintf("%sR$ %s,%02d", sign, intPart, fraction)
}

// DisplayDecimal formats a decimal amount in reais as pt-BR currency.
func DisplayDecimal(amount decimal.Decimal) string {
	return NewFromDecimal(amount).Display()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return strings.Join(groups, ".")
}
