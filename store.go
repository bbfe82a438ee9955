package networth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/networth/slot"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountsKey is the storage slot holding the account collection.
const AccountsKey = "accounts"

var (
	// ErrDuplicateID is returned when adding an account whose id is already used.
	ErrDuplicateID = errors.New("an account with this ID already exists")
	// ErrNotFound is returned when editing an account that does not exist.
	ErrNotFound = errors.New("account not found")
)

// Store is the account collection of one execution context.
//
// It is persisted write-through to its storage slot. When another context
// changes the slot, the whole collection is replaced by the new content:
// local changes made in between are lost, the last external write wins.
type Store struct {
	slot   *slot.Adapter
	log    zerolog.Logger
	newID  func() string
	cancel func()

	mu       sync.RWMutex
	accounts Accounts
}

// OpenStore loads the collection from the storage slot, and keeps it
// in sync with changes made by other contexts until Close.
func OpenStore(a *slot.Adapter, log zerolog.Logger) *Store {
	s := &Store{
		slot:  a,
		log:   log.With().Str("component", "store").Logger(),
		newID: uuid.NewString,
	}
	s.accounts = hydrate(slot.Load(a, AccountsKey, Accounts{}))
	s.cancel = a.Subscribe(AccountsKey, s.external)
	return s
}

// Close stops following external changes.
func (s *Store) Close() { s.cancel() }

// hydrate re-derives every balance, stored balances are never trusted.
func hydrate(accounts Accounts) Accounts {
	for _, a := range accounts {
		Derive(a)
	}
	return accounts
}

// external replaces the collection with a value written by another context.
func (s *Store) external(raw []byte) {
	var accounts Accounts
	if err := json.Unmarshal(raw, &accounts); err != nil {
		s.log.Warn().Err(err).Msg("ignoring corrupt accounts written by another context")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = hydrate(accounts)
	s.log.Debug().Int("accounts", len(accounts)).Msg("accounts reloaded")
}

// persist writes the collection. The caller must hold the lock.
//
// The adapter logs failures: the in-memory collection stays authoritative.
func (s *Store) persist() {
	_ = s.slot.Save(AccountsKey, s.accounts)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.accounts, func(a Account) bool { return a.Common().ID == id })
}

// Add validates p and appends the resulting account to the collection.
//
// A new id is generated if p has none. Adding an id that already exists
// fails with ErrDuplicateID and leaves the collection unchanged.
func (s *Store) Add(p Payload) (Account, error) {
	a, err := Validate(p)
	if err != nil {
		return nil, err
	}
	Derive(a)

	s.mu.Lock()
	defer s.mu.Unlock()
	h := a.Common()
	if h.ID == "" {
		h.ID = s.newID()
	} else if s.indexOf(h.ID) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, h.ID)
	}
	a.keyElements(s.newID)
	s.accounts = append(s.accounts, a)
	s.persist()
	s.log.Info().Str("id", h.ID).Str("type", string(h.Type)).Msg("account added")
	return Clone(a), nil
}

// Edit replaces the account identified by the id of p, keeping its position.
// The whole account is replaced: fields absent from p are reset. The type may change.
func (s *Store) Edit(p Payload) (Account, error) {
	id, _ := p["id"].(string)
	if id = strings.TrimSpace(id); id == "" {
		return nil, ValidationError{{Path: "id", Message: "is required"}}
	}
	a, err := Validate(p)
	if err != nil {
		return nil, err
	}
	Derive(a)

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	a.Common().ID = id
	a.keyElements(s.newID)
	s.accounts[i] = a
	s.persist()
	s.log.Info().Str("id", id).Str("type", string(a.Kind())).Msg("account updated")
	return Clone(a), nil
}

// Remove deletes the account id. It reports whether there was such an account.
// Removing an unknown id is a no-op.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.accounts = slices.Delete(s.accounts, i, i+1)
	s.persist()
	s.log.Info().Str("id", id).Msg("account removed")
	return true
}

// Get returns a copy of the account id.
func (s *Store) Get(id string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return Clone(s.accounts[i]), true
}

// List returns a copy of all the accounts, in insertion order.
func (s *Store) List() Accounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make(Accounts, len(s.accounts))
	for i, a := range s.accounts {
		list[i] = Clone(a)
	}
	return list
}

// NetWorth returns the per currency summary of the collection.
func (s *Store) NetWorth() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NetWorth(s.accounts)
}
