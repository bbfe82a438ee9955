package date

import (
	"encoding/json"
	"testing"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		want      Date
		expectErr bool
	}{
		{"canonical", "2024-03-05", New(2024, 3, 5), false},
		{"lenient", "2024-3-5", New(2024, 3, 5), false},
		{"timestamp", "2024-03-05T10:11:12Z", New(2024, 3, 5), false},
		{"padded", "  2024-03-05 ", New(2024, 3, 5), false},
		{"empty", "", Date{}, false},
		{"garbage", "next tuesday", Date{}, true},
		{"month overflow", "2024-13-01", Date{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if (err != nil) != tc.expectErr {
				t.Fatalf("Parse(%q) error = %v, want error: %v", tc.input, err, tc.expectErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestJSONZeroIsEmpty(t *testing.T) {
	var s struct {
		On Date `json:"on"`
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"on":""}`; got != want {
		t.Errorf("marshal zero date = %s, want %s", got, want)
	}

	if err := json.Unmarshal([]byte(`{"on":"2025-1-2"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.On != New(2025, 1, 2) {
		t.Errorf("unmarshal = %v, want 2025-01-02", s.On)
	}

	if err := json.Unmarshal([]byte(`{"on":null}`), &s); err != nil {
		t.Fatal(err)
	}
	if !s.On.IsZero() {
		t.Errorf("null should unmarshal to the zero date, got %v", s.On)
	}
}
