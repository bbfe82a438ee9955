package networth

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/etnz/networth/slot"
	"github.com/rs/zerolog"
)

// newTestStore opens a store on a fresh adapter of backend b, with predictable ids.
func newTestStore(t *testing.T, b slot.Backend) *Store {
	t.Helper()
	a := slot.New(b, zerolog.Nop())
	t.Cleanup(a.Close)
	s := OpenStore(a, zerolog.Nop())
	t.Cleanup(s.Close)
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("id%d", n) }
	return s
}

func payload(t *testing.T, data string) Payload {
	t.Helper()
	p, err := ParsePayload([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// eventually polls cond until it is true or a second has passed.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStoreAdd(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())

	a, err := s.Add(payload(t, `{"name":"Visa","type":"Credit Card","outstandingDebt":1200.5,"balance":5,"transactions":[{"amount":12,"category":"food"},{"id":"keep","amount":3}]}`))
	if err != nil {
		t.Fatal(err)
	}
	cc := a.(*CreditCard)
	if cc.ID != "id1" {
		t.Errorf("id = %q, want a generated one", cc.ID)
	}
	if !cc.Balance.Equal(A(-1200.5)) {
		t.Errorf("balance = %v, want -1200.5", cc.Balance)
	}
	if cc.Transactions[0].ID != "id2" || cc.Transactions[1].ID != "keep" {
		t.Errorf("nested ids = %q, %q", cc.Transactions[0].ID, cc.Transactions[1].ID)
	}

	if got := s.List(); len(got) != 1 || !Equal(got[0], a) {
		t.Errorf("List() = %v", got)
	}
}

func TestStoreAddDuplicate(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())
	if _, err := s.Add(payload(t, `{"id":"x","name":"A","type":"Other","totalIncome":1,"totalDebt":0}`)); err != nil {
		t.Fatal(err)
	}
	_, err := s.Add(payload(t, `{"id":"x","name":"B","type":"Checking","currentAmount":5}`))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("error = %v, want ErrDuplicateID", err)
	}
	list := s.List()
	if len(list) != 1 || list[0].Common().Name != "A" {
		t.Errorf("duplicate must not change the collection: %v", list)
	}
}

func TestStoreAddInvalid(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())
	_, err := s.Add(payload(t, `{"name":"A","type":"Other","totalIncome":1}`))
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(s.List()) != 0 {
		t.Error("an invalid account must not be added")
	}
}

func TestStoreEdit(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())
	for _, p := range []string{
		`{"id":"a","name":"A","type":"Checking","currentAmount":1}`,
		`{"id":"b","name":"B","type":"Loan","principalLeft":100}`,
		`{"id":"c","name":"C","type":"Savings","currentAmount":3}`,
	} {
		if _, err := s.Add(payload(t, p)); err != nil {
			t.Fatal(err)
		}
	}

	// changing type, position is kept.
	b, err := s.Edit(payload(t, `{"id":"b","name":"B2","type":"Other","totalIncome":10,"totalDebt":4}`))
	if err != nil {
		t.Fatal(err)
	}
	list := s.List()
	if list[1].Kind() != TypeOther || list[1].Common().Name != "B2" {
		t.Errorf("edited account = %+v", list[1])
	}
	if !b.Common().Balance.Equal(A(6)) {
		t.Errorf("balance = %v, want 6", b.Common().Balance)
	}

	// resubmitting the same account is a no-op.
	before := s.List()
	if _, err := s.Edit(PayloadOf(before[2])); err != nil {
		t.Fatal(err)
	}
	after := s.List()
	for i := range before {
		if !Equal(before[i], after[i]) {
			t.Errorf("#%d changed on identical edit", i)
		}
	}

	if _, err := s.Edit(payload(t, `{"id":"zzz","name":"Z","type":"Other","totalIncome":1,"totalDebt":0}`)); !errors.Is(err, ErrNotFound) {
		t.Errorf("edit of unknown id error = %v, want ErrNotFound", err)
	}
	if _, err := s.Edit(payload(t, `{"name":"Z","type":"Other","totalIncome":1,"totalDebt":0}`)); err == nil {
		t.Error("edit without id must fail")
	}
}

func TestStoreEditKeepsNestedIDs(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())
	a, err := s.Add(payload(t, `{"name":"Brokerage","type":"Investment","uninvestedAmount":5,"holdings":[{"ticker":"VTI"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := PayloadOf(a)
	edited, err := s.Edit(p)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := edited.(*Investment).Holdings[0].ID, a.(*Investment).Holdings[0].ID; got != want {
		t.Errorf("holding id changed from %q to %q", want, got)
	}
}

func TestStoreRemove(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())
	if _, err := s.Add(payload(t, `{"id":"a","name":"A","type":"Checking","currentAmount":1}`)); err != nil {
		t.Fatal(err)
	}
	if !s.Remove("a") {
		t.Error("Remove(a) = false")
	}
	if s.Remove("a") {
		t.Error("second Remove(a) = true")
	}
	if _, ok := s.Get("a"); ok {
		t.Error("a is still there")
	}
}

func TestStoreGetIsACopy(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())
	if _, err := s.Add(payload(t, `{"id":"a","name":"A","type":"Checking","currentAmount":1}`)); err != nil {
		t.Fatal(err)
	}
	a, _ := s.Get("a")
	a.Common().Name = "changed"
	if b, _ := s.Get("a"); b.Common().Name != "A" {
		t.Error("mutating a returned account changed the store")
	}
}

func TestStorePersistence(t *testing.T) {
	m := slot.NewMemory()
	s := newTestStore(t, m)
	if _, err := s.Add(payload(t, `{"id":"l","name":"Mortgage","type":"Loan","principalLeft":12500.75}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(payload(t, `{"id":"i","name":"Brokerage","type":"Investment","uninvestedAmount":0,"holdings":[]}`)); err != nil {
		t.Fatal(err)
	}

	reopened := newTestStore(t, m)
	list := reopened.List()
	if len(list) != 2 {
		t.Fatalf("reloaded %d accounts, want 2", len(list))
	}
	if !list[0].Common().Balance.Equal(A(-12500.75)) {
		t.Errorf("loan balance = %v", list[0].Common().Balance)
	}
	if h := list[1].(*Investment).Holdings; h == nil || len(h) != 0 {
		t.Errorf("holdings = %#v, want empty", h)
	}
}

func TestStoreRederivesOnLoad(t *testing.T) {
	m := slot.NewMemory()
	raw := `[{"id":"x","name":"Card","type":"Credit Card","currency":"USD","balance":999,"outstandingDebt":50}]`
	if err := m.Set(AccountsKey, []byte(raw)); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, m)
	a, ok := s.Get("x")
	if !ok {
		t.Fatal("x not loaded")
	}
	if !a.Common().Balance.Equal(A(-50)) {
		t.Errorf("balance = %v, want -50", a.Common().Balance)
	}
}

func TestStoreCorruptSlot(t *testing.T) {
	m := slot.NewMemory()
	if err := m.Set(AccountsKey, []byte(`[{"type":"Crypto"}]`)); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, m)
	if len(s.List()) != 0 {
		t.Error("a corrupt slot should load as an empty collection")
	}
}

// TestStoreExternalChange checks that a write from another context replaces
// the collection, dropping local additions.
func TestStoreExternalChange(t *testing.T) {
	m := slot.NewMemory()
	tab1 := newTestStore(t, m)
	tab2 := newTestStore(t, m)

	if _, err := tab1.Add(payload(t, `{"id":"a","name":"A","type":"Checking","currentAmount":1}`)); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { _, ok := tab2.Get("a"); return ok })

	// an external write, not made through any store, with a wrong balance.
	external, _ := json.Marshal([]map[string]any{
		{"id": "z", "name": "Z", "type": "Other", "currency": "USD", "balance": 1, "totalIncome": 10, "totalDebt": 2},
	})
	if err := m.Set(AccountsKey, external); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Store{tab1, tab2} {
		eventually(t, func() bool { _, ok := s.Get("z"); return ok })
		list := s.List()
		if len(list) != 1 {
			t.Fatalf("got %d accounts, want only the external one", len(list))
		}
		if !list[0].Common().Balance.Equal(A(8)) {
			t.Errorf("balance = %v, want re-derived 8", list[0].Common().Balance)
		}
	}
}

func TestStoreNetWorth(t *testing.T) {
	s := newTestStore(t, slot.NewMemory())
	for _, p := range []string{
		`{"name":"A","type":"Checking","currentAmount":1000}`,
		`{"name":"B","type":"Loan","principalLeft":300}`,
		`{"name":"C","type":"Savings","currentAmount":50,"currency":"EUR"}`,
	} {
		if _, err := s.Add(payload(t, p)); err != nil {
			t.Fatal(err)
		}
	}
	sum := s.NetWorth()
	usd := sum.Of("USD")
	if !usd.Assets.Equal(A(1000)) || !usd.Liabilities.Equal(A(300)) || !usd.Net.Equal(A(700)) || usd.Accounts != 2 {
		t.Errorf("USD totals = %+v", usd)
	}
	if eur := sum.Of("EUR"); !eur.Net.Equal(A(50)) {
		t.Errorf("EUR totals = %+v", eur)
	}
	data, err := json.Marshal(sum)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"EUR":{"assets":50,"liabilities":0,"net":50,"accounts":1},"USD":{"assets":1000,"liabilities":300,"net":700,"accounts":2}}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestStoreRapidAdds(t *testing.T) {
	for round := 0; round < 20; round++ {
		s := newTestStore(t, slot.NewMemory())
		for i := 0; i < 30; i++ {
			if _, err := s.Add(payload(t, fmt.Sprintf(`{"name":"A%d","type":"Other","totalIncome":1,"totalDebt":0}`, i))); err != nil {
				t.Fatal(err)
			}
		}
		// let the backend deliver the echoes of every write.
		time.Sleep(20 * time.Millisecond)
		if got := len(s.List()); got != 30 {
			t.Fatalf("round %d: List() has %d accounts, want 30", round, got)
		}
	}
}

func TestStoreStorageFailure(t *testing.T) {
	m := slot.NewMemory()
	s := newTestStore(t, m)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Add(payload(t, `{"id":"a","name":"A","type":"Checking","currentAmount":10}`)); err != nil {
		t.Fatalf("Add() with a failing storage: %v", err)
	}
	if _, err := s.Add(payload(t, `{"id":"b","name":"B","type":"Checking","currentAmount":5}`)); err != nil {
		t.Fatalf("Add() with a failing storage: %v", err)
	}
	if _, err := s.Edit(payload(t, `{"id":"a","name":"A2","type":"Checking","currentAmount":20}`)); err != nil {
		t.Fatalf("Edit() with a failing storage: %v", err)
	}
	if !s.Remove("b") {
		t.Fatal("Remove() with a failing storage returned false")
	}

	list := s.List()
	if len(list) != 1 || list[0].Common().Name != "A2" || !list[0].Common().Balance.Equal(A(20)) {
		t.Errorf("List() = %v, want only the edited account", list)
	}
}
