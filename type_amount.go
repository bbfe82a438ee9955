package networth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Amount is an exact signed number with no currency attached.
//
// Every numeric account field is an Amount. It is persisted as a plain JSON
// number, and accepts numeric-looking strings when decoded.
type Amount struct {
	value decimal.Decimal
}

// A returns an Amount for value.
func A[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Amount {
	return Amount{value: newDecimal(value)}
}

// Amounts have at most maxIntDigits digits before the decimal point and
// maxScale after it.
const (
	maxIntDigits = 30
	maxScale     = 30
)

// ErrOutOfRange is returned for numbers too large or too precise to be an Amount.
var ErrOutOfRange = errors.New("number out of range")

// ParseAmount parses a decimal number, surrounding spaces are ignored.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("%q is not a number", s)
	}
	return checkRange(d)
}

// checkRange rejects d when its expansion would be unreasonably long.
func checkRange(d decimal.Decimal) (Amount, error) {
	if d.IsZero() {
		return Amount{}, nil
	}
	exp := int64(d.Exponent())
	if exp < -maxScale || int64(d.NumDigits())+exp > maxIntDigits {
		return Amount{}, fmt.Errorf("%w: %d digits with exponent %d", ErrOutOfRange, d.NumDigits(), exp)
	}
	return Amount{value: d}, nil
}

func (a Amount) Equal(b Amount) bool       { return a.value.Equal(b.value) }
func (a Amount) LessThan(b Amount) bool    { return a.value.LessThan(b.value) }
func (a Amount) GreaterThan(b Amount) bool { return a.value.GreaterThan(b.value) }
func (a Amount) IsZero() bool              { return a.value.IsZero() }
func (a Amount) IsNegative() bool          { return a.value.IsNegative() }
func (a Amount) IsPositive() bool          { return a.value.IsPositive() }
func (a Amount) Neg() Amount               { return Amount{value: a.value.Neg()} }
func (a Amount) Abs() Amount               { return Amount{value: a.value.Abs()} }
func (a Amount) Add(b Amount) Amount       { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Mul(b Amount) Amount       { return Amount{value: a.value.Mul(b.value)} }
func (a Amount) String() string            { return a.value.String() }
func (a Amount) Decimal() decimal.Decimal  { return a.value }

// Float returns the nearest float64, for display and LLM projections only.
func (a Amount) Float() float64 { return a.value.InexactFloat64() }

// MarshalJSON writes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.value.String()), nil
}

// UnmarshalJSON reads a JSON number, or a string holding a number. null is zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
