package renderer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/etnz/networth"
)

// Emojis decorate account types in titles.
var Emojis = map[networth.AccountType]string{
	networth.TypeInvestment:     "📈",
	networth.TypeHSA:            "🏥",
	networth.TypeTraditionalIRA: "👴",
	networth.TypeRothIRA:        "🌅",
	networth.TypeRetirement401k: "🏢",
	networth.TypeRoth401k:       "🏦",
	networth.TypeCreditCard:     "💳",
	networth.TypeChecking:       "💵",
	networth.TypeSavings:        "💰",
	networth.TypeLoan:           "📄",
	networth.TypePayroll:        "💼",
	networth.TypeOther:          "🧾",
}

type accountRow struct {
	ID, Name, Balance string
}

type accountGroup struct {
	Type     networth.AccountType
	Emoji    string
	Accounts []accountRow
}

// RenderAccounts renders the accounts grouped by type, in registry order.
func RenderAccounts(accounts networth.Accounts) string {
	var groups []accountGroup
	for _, t := range networth.Types() {
		g := accountGroup{Type: t, Emoji: Emojis[t]}
		for _, a := range accounts {
			if a.Kind() != t {
				continue
			}
			h := a.Common()
			g.Accounts = append(g.Accounts, accountRow{ID: h.ID, Name: h.Name, Balance: h.Money().String()})
		}
		if len(g.Accounts) > 0 {
			groups = append(groups, g)
		}
	}
	return renderTemplate("accounts", "accounts.md", nil, groups)
}

type fieldRow struct {
	Label, Value string
}

type table struct {
	Label   string
	Columns []string
	Rows    [][]string
}

type accountDetail struct {
	Emoji   string
	Header  *networth.Header
	Balance string
	Fields  []fieldRow
	Records []table // one row tables
	Lists   []table
}

// RenderAccount renders every field of a, in the order of its type contract.
func RenderAccount(a networth.Account) string {
	h := a.Common()
	d := accountDetail{Emoji: Emojis[h.Type], Header: h, Balance: h.Money().String()}

	contract, _ := networth.FieldsFor(h.Type)
	values := networth.PayloadOf(a)
	for _, f := range contract {
		switch f.Name {
		case "id", "name", "type":
			continue
		}
		switch f.Kind {
		case networth.KindList:
			items, _ := values[f.Name].([]any)
			t := table{Label: f.Label}
			for _, e := range f.Elem {
				t.Columns = append(t.Columns, e.Label)
			}
			for _, item := range items {
				m, _ := item.(map[string]any)
				t.Rows = append(t.Rows, row(f.Elem, m, h.Currency))
			}
			d.Lists = append(d.Lists, t)
		case networth.KindRecord:
			m, _ := values[f.Name].(map[string]any)
			t := table{Label: f.Label, Rows: [][]string{row(f.Elem, m, h.Currency)}}
			for _, e := range f.Elem {
				t.Columns = append(t.Columns, e.Label)
			}
			d.Records = append(d.Records, t)
		default:
			d.Fields = append(d.Fields, fieldRow{Label: f.Label, Value: format(f, values[f.Name], h.Currency)})
		}
	}
	partials := map[string]string{
		"account_fields": "account_fields.md",
		"account_tables": "account_tables.md",
	}
	return renderTemplate("account", "account.md", partials, d)
}

func row(fields networth.Contract, values map[string]any, currency string) []string {
	cells := make([]string, len(fields))
	for i, f := range fields {
		cells[i] = format(f, values[f.Name], currency)
	}
	return cells
}

// format renders a field value: amounts as money in the account currency,
// rates as percent.
func format(f networth.Field, v any, currency string) string {
	switch f.Kind {
	case networth.KindNumber:
		n, ok := v.(json.Number)
		if !ok {
			return ""
		}
		a, err := networth.ParseAmount(n.String())
		if err != nil {
			return n.String()
		}
		switch {
		case strings.HasSuffix(f.Name, "Rate"):
			return networth.Percent(a.Float()).String()
		case f.Name == "quantity":
			return a.String()
		}
		return networth.M(a, currency).String()
	case networth.KindBool:
		if b, _ := v.(bool); b {
			return "yes"
		}
		return "no"
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

type typeView struct {
	Type   networth.AccountType
	Emoji  string
	Fields networth.Contract
}

// RenderTypes renders the account types and the fields they accept.
func RenderTypes() string {
	var views []typeView
	for _, t := range networth.Types() {
		c, _ := networth.FieldsFor(t)
		views = append(views, typeView{Type: t, Emoji: Emojis[t], Fields: c})
	}
	return renderTemplate("types", "types.md", map[string]string{"field_row": "field_row.md"}, views)
}
