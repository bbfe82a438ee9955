package chat

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/etnz/networth"
	"github.com/etnz/networth/slot"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Thinking is the text of the placeholder shown while waiting for the backend.
	Thinking = "Thinking..."
	// Apology replaces the placeholder when the backend fails.
	Apology = "Sorry, I couldn't get a response. Please try again."
)

// ErrBusy is returned by Send while another message is being answered.
var ErrBusy = errors.New("a message is already being sent")

// AccountLister provides the accounts sent along every message.
type AccountLister interface {
	List() networth.Accounts
}

// ProfileGetter provides the user profile sent along every message.
type ProfileGetter interface {
	Get() *networth.Profile
}

// Session is the conversation of one execution context.
// Its transcript is persisted, and follows changes made by other contexts.
type Session struct {
	slot     *slot.Adapter
	backend  Backend
	accounts AccountLister
	profile  ProfileGetter
	log      zerolog.Logger
	cancel   func()
	now      func() time.Time
	newID    func() string

	sending atomic.Bool

	mu       sync.Mutex
	messages []Message
}

// NewSession loads the transcript and returns a Session answering with backend.
// profile may be nil.
func NewSession(a *slot.Adapter, backend Backend, accounts AccountLister, profile ProfileGetter, log zerolog.Logger) *Session {
	s := &Session{
		slot:     a,
		backend:  backend,
		accounts: accounts,
		profile:  profile,
		log:      log.With().Str("component", "chat").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
		messages: slot.Load(a, MessagesKey, []Message{}),
	}
	s.cancel = a.Subscribe(MessagesKey, s.external)
	return s
}

// Close stops following external changes.
func (s *Session) Close() { s.cancel() }

func (s *Session) external(raw []byte) {
	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		s.log.Warn().Err(err).Msg("ignoring corrupt transcript written by another context")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = msgs
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Sending reports whether a message is waiting for its answer.
func (s *Session) Sending() bool { return s.sending.Load() }

// Clear empties the transcript.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []Message{}
	s.save()
}

// save persists the transcript. The caller must hold the lock.
func (s *Session) save() {
	_ = s.slot.Save(MessagesKey, s.messages)
}

func (s *Session) message(sender Sender, text string) Message {
	return Message{ID: s.newID(), Sender: sender, Text: text, Timestamp: s.now().UnixMilli()}
}

// Send appends text to the transcript and waits for the assistant answer.
//
// Blank text is ignored. While a message is being answered, Send fails with
// ErrBusy: messages are never queued. A placeholder answer is visible in the
// transcript until the backend replies; if the backend fails, the
// placeholder is replaced by an apology and the error is only logged.
// Send returns the final bot message.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, nil
	}
	if !s.sending.CompareAndSwap(false, true) {
		return Message{}, ErrBusy
	}
	defer s.sending.Store(false)

	req := Request{Accounts: s.accounts.List()}
	if s.profile != nil {
		req.UserDetails = s.profile.Get()
	}

	s.mu.Lock()
	s.messages = append(s.messages, s.message(User, text))
	req.ChatMessages = slices.DeleteFunc(slices.Clone(s.messages), func(m Message) bool { return m.IsLoading })
	pending := s.message(Bot, Thinking)
	pending.IsLoading = true
	s.messages = append(s.messages, pending)
	s.save()
	s.mu.Unlock()

	reply, err := s.backend.Reply(ctx, req)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("cannot get an answer from the chat backend")
		reply = Apology
	}

	final := pending
	final.Text, final.IsLoading = reply, false

	s.mu.Lock()
	defer s.mu.Unlock()
	// the transcript may have been cleared in the meantime.
	if i := slices.IndexFunc(s.messages, func(m Message) bool { return m.ID == pending.ID }); i >= 0 {
		s.messages[i] = final
		s.save()
	}
	return final, nil
}
