package networth

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/etnz/networth/slot"
	"github.com/rs/zerolog"
)

// ProfileKey is the storage slot holding the user profile.
const ProfileKey = "user_details"

// Profile describes the user, it gives context to the assistant.
type Profile struct {
	Name            string `json:"name"`
	Age             int    `json:"age"`
	State           string `json:"state"`
	Country         string `json:"country"`
	CitizenOf       string `json:"citizenOf"`
	TaxFilingStatus string `json:"taxFilingStatus"`
	IsTaxResident   bool   `json:"isTaxResident"`
}

// ProfileFields is the contract of a Profile.
var ProfileFields = Contract{
	required(text("name", "Name")),
	pos("age", "Age"),
	text("state", "State"),
	text("country", "Country"),
	text("citizenOf", "Citizen Of"),
	text("taxFilingStatus", "Tax Filing Status"),
	{Name: "isTaxResident", Label: "Tax Resident", Kind: KindBool},
}

const maxAge = 150

// ValidateProfile checks p against ProfileFields and returns the profile with quick fixes applied.
func ValidateProfile(p Payload) (Profile, error) {
	v := new(validator)
	out := v.object("", ProfileFields, p)
	if age, ok := out["age"].(Amount); ok {
		switch {
		case !age.Decimal().IsInteger():
			v.fail("age", "must be a whole number")
		case age.GreaterThan(A(maxAge)):
			v.fail("age", fmt.Sprintf("must not be over %d", maxAge))
		}
	}
	if len(v.errs) > 0 {
		return Profile{}, v.errs
	}
	data, err := json.Marshal(out)
	if err != nil {
		return Profile{}, fmt.Errorf("cannot encode validated profile: %w", err)
	}
	var pr Profile
	if err := json.Unmarshal(data, &pr); err != nil {
		return Profile{}, fmt.Errorf("cannot decode validated profile: %w", err)
	}
	return pr, nil
}

// ProfileStore holds the optional user profile of one execution context,
// kept in sync with other contexts like the Store.
type ProfileStore struct {
	slot   *slot.Adapter
	log    zerolog.Logger
	cancel func()

	mu      sync.RWMutex
	profile *Profile
}

// OpenProfileStore loads the profile from its storage slot.
func OpenProfileStore(a *slot.Adapter, log zerolog.Logger) *ProfileStore {
	s := &ProfileStore{
		slot:    a,
		log:     log.With().Str("component", "profile").Logger(),
		profile: slot.Load[*Profile](a, ProfileKey, nil),
	}
	s.cancel = a.Subscribe(ProfileKey, s.external)
	return s
}

func (s *ProfileStore) Close() { s.cancel() }

func (s *ProfileStore) external(raw []byte) {
	var p *Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Warn().Err(err).Msg("ignoring corrupt profile written by another context")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// Get returns the profile, nil if it was never set.
func (s *ProfileStore) Get() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Set validates and saves the profile.
func (s *ProfileStore) Set(p Payload) (Profile, error) {
	pr, err := ValidateProfile(p)
	if err != nil {
		return Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &pr
	_ = s.slot.Save(ProfileKey, s.profile)
	return pr, nil
}

// Clear forgets the profile.
func (s *ProfileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	_ = s.slot.Save(ProfileKey, nil)
}
