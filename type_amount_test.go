package networth

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
		err   error
	}{
		{" 12.50 ", "12.5", nil},
		{"-3", "-3", nil},
		{"1e3", "1000", nil},
		{"0e-100", "0", nil},
		{"123456789012345678901234567890", "123456789012345678901234567890", nil},
		{"1234567890123456789012345678901", "", ErrOutOfRange},
		{"1e50000000", "", ErrOutOfRange},
		{"1e-31", "", ErrOutOfRange},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("ParseAmount(%q) error = %v, want %v", tt.input, err, tt.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) error: %v", tt.input, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if _, err := ParseAmount("lots"); err == nil || errors.Is(err, ErrOutOfRange) {
		t.Errorf("ParseAmount(\"lots\") error = %v, want a parse error", err)
	}
}

func TestAmountUnmarshalOutOfRange(t *testing.T) {
	var a Amount
	if err := a.UnmarshalJSON([]byte(`"9e99999999"`)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("UnmarshalJSON() error = %v, want ErrOutOfRange", err)
	}
}
