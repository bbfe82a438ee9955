package renderer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/etnz/networth"
	"github.com/etnz/networth/chat"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// tables parses md and returns the number of body rows of each table.
func tables(t *testing.T, md string) []int {
	t.Helper()
	if strings.Contains(md, "error ") {
		t.Fatalf("rendering failed:\n%s", md)
	}
	parser := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
	root := parser.Parse(text.NewReader([]byte(md)))

	var rows []int
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*east.Table); ok {
			count := 0
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*east.TableRow); ok {
					count++
				}
			}
			rows = append(rows, count)
		}
		return ast.WalkContinue, nil
	})
	return rows
}

func accounts(t *testing.T) networth.Accounts {
	t.Helper()
	var list networth.Accounts
	err := json.Unmarshal([]byte(`[
		{"id":"c1","name":"Main | joint","type":"Checking","currency":"USD","currentAmount":2500,"fee":{"monthlyFee":5},"transactions":[]},
		{"id":"l1","name":"Mortgage","type":"Loan","currency":"USD","principalLeft":12500.75,"interestRate":3.75,
		 "paymentHistory":[{"id":"p1","date":"2024-01-02","amount":800,"note":"jan"},{"id":"p2","date":"2024-02-02","amount":800}]},
		{"id":"c2","name":"Savings","type":"Checking","currency":"EUR","currentAmount":10}
	]`), &list)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range list {
		networth.Derive(a)
	}
	return list
}

func TestRenderAccounts(t *testing.T) {
	md := RenderAccounts(accounts(t))
	got := tables(t, md)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("tables rows = %v, want [2 1]\n%s", got, md)
	}
	// checking comes before loan, whatever the insertion order.
	if strings.Index(md, "Checking") > strings.Index(md, "Loan") {
		t.Errorf("groups are not in registry order:\n%s", md)
	}
	if !strings.Contains(md, `Main \| joint`) {
		t.Errorf("pipes must be escaped:\n%s", md)
	}
	if !strings.Contains(md, "-$12,500.75") {
		t.Errorf("loan balance is missing:\n%s", md)
	}

	if md := RenderAccounts(nil); !strings.Contains(md, "No accounts yet.") {
		t.Errorf("empty list:\n%s", md)
	}
}

func TestRenderAccount(t *testing.T) {
	loan := accounts(t)[1]
	md := RenderAccount(loan)
	got := tables(t, md)
	// fields, fees record, payment history.
	if len(got) != 3 || got[1] != 1 || got[2] != 2 {
		t.Errorf("tables rows = %v, want [n 1 2]\n%s", got, md)
	}
	for _, want := range []string{"# 📄 Mortgage", "Principal Left", "3.75%", "2024-01-02", "$800.00"} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
	// fields are rendered in contract order.
	if strings.Index(md, "Principal Left") > strings.Index(md, "Interest Rate") {
		t.Errorf("fields out of order:\n%s", md)
	}
}

func TestRenderTypes(t *testing.T) {
	md := RenderTypes()
	got := tables(t, md)
	if len(got) != len(networth.Types()) {
		t.Errorf("got %d tables, want one per type\n%s", len(got), md)
	}
	if !strings.Contains(md, "`holdings`") || !strings.Contains(md, "`ticker`") {
		t.Errorf("nested fields are missing:\n%s", md)
	}
}

func TestRenderNetWorth(t *testing.T) {
	md := RenderNetWorth(networth.NetWorth(accounts(t)))
	got := tables(t, md)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("tables rows = %v, want [2]\n%s", got, md)
	}
	if !strings.Contains(md, "**-$10,000.75**") {
		t.Errorf("USD net is missing:\n%s", md)
	}
}

func TestRenderProfile(t *testing.T) {
	md := RenderProfile(&networth.Profile{Name: "Ada", Age: 36, IsTaxResident: true})
	if got := tables(t, md); len(got) != 1 || got[0] != 7 {
		t.Errorf("tables rows = %v, want [7]\n%s", got, md)
	}
	if md := RenderProfile(nil); !strings.Contains(md, "No profile yet.") {
		t.Errorf("nil profile:\n%s", md)
	}
}

func TestRenderTranscript(t *testing.T) {
	md := RenderTranscript([]chat.Message{
		{ID: "1", Sender: chat.User, Text: "hello"},
		{ID: "2", Sender: chat.Bot, Text: "hi there"},
	})
	if !strings.Contains(md, "**You**") || !strings.Contains(md, "**Assistant**") || !strings.Contains(md, "hi there") {
		t.Errorf("transcript:\n%s", md)
	}
	if md := RenderTranscript(nil); !strings.Contains(md, "No messages yet.") {
		t.Errorf("empty transcript:\n%s", md)
	}
}
