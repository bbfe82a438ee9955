package networth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/etnz/networth/date"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an account is submitted without a currency.
const DefaultCurrency = "USD"

// Payload is an untrusted account submission, as decoded from JSON.
type Payload map[string]any

// ParsePayload decodes a JSON object into a Payload. Numbers are kept
// as json.Number so that no precision is lost before validation.
func ParsePayload(data []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if p == nil {
		return nil, errors.New("invalid JSON: expecting an object")
	}
	return p, nil
}

// PayloadOf converts an account into a Payload, for resubmission.
func PayloadOf(a Account) Payload {
	data, err := json.Marshal(a)
	if err != nil {
		panic(fmt.Sprintf("account %q cannot be marshaled: %v", a.Common().ID, err))
	}
	p, err := ParsePayload(data)
	if err != nil {
		panic(fmt.Sprintf("account %q cannot be parsed back: %v", a.Common().ID, err))
	}
	return p
}

// FieldError is a validation failure on a single field.
type FieldError struct {
	Path    string `json:"path"` // like "holdings[0].ticker"
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Path + ": " + e.Message }

// ValidationError lists every field that failed validation, in contract order.
type ValidationError []FieldError

// Error returns all failures joined in a single line.
func (v ValidationError) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, ", ")
}

// Fields returns the failure message for each path.
func (v ValidationError) Fields() map[string]string {
	m := make(map[string]string, len(v))
	for _, e := range v {
		m[e.Path] = e.Message
	}
	return m
}

// Validate checks p against the contract of its type and returns the
// corresponding account with quick fixes applied, or a ValidationError.
//
// Quick fixes are: text is trimmed and stripped of HTML, numeric strings
// become numbers, dates are normalized, absent optional fields take their
// zero value, and the currency is upper-cased or defaults to USD.
// An incoming balance is ignored, the returned account balance is not derived.
func Validate(p Payload) (Account, error) {
	t, err := payloadType(p)
	if err != nil {
		return nil, ValidationError{{Path: "type", Message: err.Error()}}
	}
	contract, _ := FieldsFor(t)

	v := new(validator)
	out := v.object("", contract, p, "balance")
	out["type"] = string(t)

	cur, _ := out["currency"].(string)
	if cur == "" {
		cur = DefaultCurrency
	}
	cur = normalizeCurrency(cur)
	if err := ValidateCurrency(cur); err != nil {
		v.fail("currency", err.Error())
	}
	out["currency"] = cur

	if len(v.errs) > 0 {
		return nil, v.errs
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("cannot encode validated %s account: %w", t, err)
	}
	a := newAccount(t)
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("cannot decode validated %s account: %w", t, err)
	}
	return a, nil
}

func payloadType(p Payload) (AccountType, error) {
	raw, ok := p["type"]
	if !ok || raw == nil {
		return "", errors.New("is required")
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.New("must be text")
	}
	if strings.TrimSpace(s) == "" {
		return "", errors.New("is required")
	}
	t, err := ParseType(s)
	if err != nil {
		return "", fmt.Errorf("unknown account type %q", strings.TrimSpace(s))
	}
	return t, nil
}

// sanitizer strips every HTML tag from free text.
var sanitizer = bluemonday.StrictPolicy()

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
}

// validator walks a payload against a contract, accumulating failures.
type validator struct {
	errs ValidationError
}

func (v *validator) fail(path, msg string) {
	v.errs = append(v.errs, FieldError{Path: path, Message: msg})
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// object validates in against c and returns the normalized object.
// Keys of in listed in ignore are silently dropped.
func (v *validator) object(path string, c Contract, in map[string]any, ignore ...string) map[string]any {
	out := make(map[string]any, len(c))
	for _, f := range c {
		p := join(path, f.Name)
		raw, present := in[f.Name]
		if present && isBlank(raw) {
			present = false
		}
		if !present {
			if f.Required {
				v.fail(p, "is required")
			}
			out[f.Name] = zero(f)
			continue
		}
		if val, ok := v.value(p, f, raw); ok {
			out[f.Name] = val
		}
	}

	var unknown []string
	for k := range in {
		if _, ok := c.Field(k); !ok && !slices.Contains(ignore, k) {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	for _, k := range unknown {
		v.fail(join(path, k), "is not a known field")
	}
	return out
}

// value validates a present value of field f.
func (v *validator) value(path string, f Field, raw any) (any, bool) {
	switch f.Kind {
	case KindNumber:
		a, err := toAmount(raw)
		if errors.Is(err, ErrOutOfRange) {
			v.fail(path, "is out of range")
			return nil, false
		}
		if err != nil {
			v.fail(path, "must be a number")
			return nil, false
		}
		if f.NonNegative && a.IsNegative() {
			v.fail(path, "must not be negative")
			return nil, false
		}
		return a, true

	case KindText:
		s, ok := toText(raw)
		if !ok {
			v.fail(path, "must be text")
			return nil, false
		}
		s = cleanText(s)
		if f.Required && s == "" {
			v.fail(path, "is required")
			return nil, false
		}
		return s, true

	case KindDate:
		s, ok := raw.(string)
		if !ok {
			v.fail(path, "must be a date (YYYY-MM-DD)")
			return nil, false
		}
		d, err := date.Parse(s)
		if err != nil {
			v.fail(path, "must be a date (YYYY-MM-DD)")
			return nil, false
		}
		return d.String(), true

	case KindBool:
		switch b := raw.(type) {
		case bool:
			return b, true
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "yes":
				return true, true
			case "false", "no":
				return false, true
			}
		}
		v.fail(path, "must be true or false")
		return nil, false

	case KindRecord:
		m, ok := raw.(map[string]any)
		if !ok {
			if p, isPayload := raw.(Payload); isPayload {
				m, ok = p, true
			}
		}
		if !ok {
			v.fail(path, "must be an object")
			return nil, false
		}
		return v.object(path, f.Elem, m), true

	case KindList:
		items, ok := raw.([]any)
		if !ok {
			v.fail(path, "must be a list")
			return nil, false
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			p := fmt.Sprintf("%s[%d]", path, i)
			m, ok := item.(map[string]any)
			if !ok {
				v.fail(p, "must be an object")
				continue
			}
			out = append(out, v.object(p, f.Elem, m))
		}
		return out, true
	}
	panic(fmt.Sprintf("field %q has an unsupported kind %q", f.Name, f.Kind))
}

// isBlank reports values that are treated as absent: null and blank strings.
func isBlank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// zero is the value given to an absent optional field.
func zero(f Field) any {
	switch f.Kind {
	case KindNumber:
		return Amount{}
	case KindBool:
		return false
	case KindList:
		return []any{}
	case KindRecord:
		out := make(map[string]any, len(f.Elem))
		for _, e := range f.Elem {
			out[e.Name] = zero(e)
		}
		return out
	}
	return ""
}

func toAmount(raw any) (Amount, error) {
	switch n := raw.(type) {
	case json.Number:
		return ParseAmount(n.String())
	case string:
		return ParseAmount(n)
	case float64:
		return checkRange(newDecimal(n))
	case float32:
		return checkRange(newDecimal(n))
	case int:
		return A(n), nil
	case int64:
		return A(n), nil
	case Amount:
		return checkRange(n.value)
	case decimal.Decimal:
		return checkRange(n)
	}
	return Amount{}, fmt.Errorf("%v is not a number", raw)
}

// toText accepts strings, and numbers written where text was expected (like a loan term of 30).
func toText(raw any) (string, bool) {
	switch s := raw.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64, int, int64:
		return fmt.Sprint(s), true
	}
	return "", false
}
