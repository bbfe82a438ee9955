package networth

import (
	"errors"
	"slices"
	"testing"
)

func TestTypes(t *testing.T) {
	want := []AccountType{
		"Investment", "HSA", "Traditional IRA", "Roth IRA", "Retirement 401k", "Roth 401k",
		"Credit Card", "Checking", "Savings", "Loan", "Payroll", "Other",
	}
	if got := Types(); !slices.Equal(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}
}

// TestRegistryComplete checks that every registered type builds the matching
// variant and has a contract starting with the common header.
func TestRegistryComplete(t *testing.T) {
	for _, typ := range Types() {
		a := newAccount(typ)
		if a.Kind() != typ {
			t.Errorf("newAccount(%q).Kind() = %q", typ, a.Kind())
		}
		if a.Common().Type != typ {
			t.Errorf("newAccount(%q) has type tag %q", typ, a.Common().Type)
		}
		c, ok := FieldsFor(typ)
		if !ok {
			t.Errorf("FieldsFor(%q) not found", typ)
			continue
		}
		for i, f := range headerContract {
			if c[i].Name != f.Name {
				t.Errorf("FieldsFor(%q)[%d] = %q, want %q", typ, i, c[i].Name, f.Name)
			}
		}
		if _, ok := c.Field("balance"); ok {
			t.Errorf("FieldsFor(%q) must not accept a balance", typ)
		}
	}
}

func TestFieldsFor(t *testing.T) {
	c, ok := FieldsFor(TypeOther)
	if !ok {
		t.Fatal("Other is not registered")
	}
	var names []string
	for _, f := range c {
		names = append(names, f.Name)
	}
	want := []string{"id", "name", "type", "currency", "totalIncome", "totalDebt"}
	if !slices.Equal(names, want) {
		t.Errorf("FieldsFor(Other) = %v, want %v", names, want)
	}
	if f, _ := c.Field("totalDebt"); !f.Required || !f.NonNegative {
		t.Errorf("totalDebt should be required and non negative: %+v", f)
	}

	if _, ok := FieldsFor("Crypto"); ok {
		t.Error("FieldsFor(Crypto) should not exist")
	}

	// contracts must not share their backing arrays.
	c1, _ := FieldsFor(TypeHSA)
	c1[len(c1)-1].Name = "changed"
	c2, _ := FieldsFor(TypeHSA)
	if c2[len(c2)-1].Name == "changed" {
		t.Error("FieldsFor returned a shared contract")
	}
}

func TestParseType(t *testing.T) {
	testCases := []struct {
		input string
		want  AccountType
	}{
		{"Investment", TypeInvestment},
		{" credit card ", TypeCreditCard},
		{"ROTH IRA", TypeRothIRA},
		{"Checking/Savings", TypeChecking},
	}
	for _, tc := range testCases {
		got, err := ParseType(tc.input)
		if err != nil {
			t.Errorf("ParseType(%q) error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseType(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}

	if _, err := ParseType("Crypto"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ParseType(Crypto) error = %v, want ErrUnknownType", err)
	}
}
