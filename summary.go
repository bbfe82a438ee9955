package networth

import (
	"cmp"
	"slices"
)

// Totals is the net worth picture for a single currency.
type Totals struct {
	Currency    string `json:"currency"`
	Assets      Amount `json:"assets"`      // sum of positive balances
	Liabilities Amount `json:"liabilities"` // sum of negative balances, as a positive amount
	Net         Amount `json:"net"`         // Assets - Liabilities
	Accounts    int    `json:"accounts"`    // number of accounts in that currency
}

// Money returns the net in its currency.
func (t Totals) Money() Money { return M(t.Net, t.Currency) }

// Summary is the net worth per currency, sorted by currency code.
// Balances in different currencies are never converted nor added together.
type Summary []Totals

// NetWorth computes the per currency summary of accounts.
func NetWorth(accounts []Account) Summary {
	index := make(map[string]int)
	var s Summary
	for _, a := range accounts {
		h := a.Common()
		i, ok := index[h.Currency]
		if !ok {
			i = len(s)
			index[h.Currency] = i
			s = append(s, Totals{Currency: h.Currency})
		}
		t := &s[i]
		t.Accounts++
		if h.Balance.IsNegative() {
			t.Liabilities = t.Liabilities.Add(h.Balance.Neg())
		} else {
			t.Assets = t.Assets.Add(h.Balance)
		}
		t.Net = t.Assets.Sub(t.Liabilities)
	}
	slices.SortFunc(s, func(a, b Totals) int { return cmp.Compare(a.Currency, b.Currency) })
	return s
}

// Of returns the totals for currency, zero if there is no account in that currency.
func (s Summary) Of(currency string) Totals {
	for _, t := range s {
		if t.Currency == currency {
			return t
		}
	}
	return Totals{Currency: currency}
}

// MarshalJSON writes the summary as an object keyed by currency, in currency order.
func (s Summary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	for _, t := range s {
		var tw jsonObjectWriter
		tw.Append("assets", t.Assets).
			Append("liabilities", t.Liabilities).
			Append("net", t.Net).
			Append("accounts", t.Accounts)
		w.Append(t.Currency, &tw)
	}
	return w.MarshalJSON()
}
