package networth

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value, an Amount in a given currency.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M returns the money value of a in currency.
func M(a Amount, currency string) Money {
	return Money{value: a.value, cur: currency}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

// Currency returns the ISO 4217 code of m.
func (m Money) Currency() string { return m.cur }

// ValidateCurrency checks that code is an upper case 3-letter ISO 4217 code
// known to the currency table.
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("currency code must be exactly 3 letters, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("currency code must be upper case letters, got %q", code)
		}
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown currency %q", code)
	}
	return nil
}

// normalizeCurrency is the quick fix applied before ValidateCurrency.
func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
