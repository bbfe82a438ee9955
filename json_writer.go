package networth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// jsonObjectWriter builds a JSON object whose keys keep their insertion order.
// Its zero value is ready to use. The first error is kept and returned by MarshalJSON.
type jsonObjectWriter struct {
	buf bytes.Buffer
	err error
}

// Append adds key with value marshaled by json.Marshal.
func (w *jsonObjectWriter) Append(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal value for key %q: %w", key, err)
		return w
	}
	k, _ := json.Marshal(key)
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
	w.buf.WriteByte(',')
	return w
}

// Optional is like Append but skips zero values.
func (w *jsonObjectWriter) Optional(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.IsZero() {
		return w
	}
	return w.Append(key, value)
}

// EmbedFrom marshals v, that must be a JSON object, and merges its fields
// into the object being built.
func (w *jsonObjectWriter) EmbedFrom(v any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal for embedding: %w", err)
		return w
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		w.err = fmt.Errorf("cannot embed %T: not a JSON object", v)
		return w
	}
	if inner := raw[1 : len(raw)-1]; len(inner) > 0 {
		w.buf.Write(inner)
		w.buf.WriteByte(',')
	}
	return w
}

// MarshalJSON wraps the fields in braces.
func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	content := bytes.TrimSuffix(w.buf.Bytes(), []byte(","))
	out := make([]byte, 0, len(content)+2)
	out = append(out, '{')
	out = append(out, content...)
	return append(out, '}'), nil
}
