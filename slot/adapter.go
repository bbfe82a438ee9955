package slot

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Adapter is the view of a Backend from one execution context.
type Adapter struct {
	backend Backend
	log     zerolog.Logger
	stop    context.CancelFunc

	mu      sync.Mutex
	pending map[string][]digest // digests written by this Adapter and not yet echoed, oldest first
	subs    map[string]map[int]func([]byte)
	next    int
}

type digest = [sha256.Size]byte

// maxPending bounds the writes awaiting their echo, per key. Backends that
// poll may never echo a value overwritten before the next poll.
const maxPending = 64

// New returns an Adapter on b. It starts watching b immediately.
//
// If the watch cannot be established the Adapter still works, but never
// notifies subscribers; the failure is logged.
func New(b Backend, log zerolog.Logger) *Adapter {
	ctx, stop := context.WithCancel(context.Background())
	a := &Adapter{
		backend: b,
		log:     log.With().Str("component", "slot").Logger(),
		stop:    stop,
		pending: make(map[string][]digest),
		subs:    make(map[string]map[int]func([]byte)),
	}
	if err := b.Watch(ctx, a.dispatch); err != nil {
		a.log.Warn().Err(err).Msg("cannot watch storage, changes from other contexts will not be seen")
	}
	return a
}

// Close stops watching the backend. It does not close the backend, that may be shared.
func (a *Adapter) Close() { a.stop() }

// Load reads the value stored in key into a T.
//
// fallback is returned when the slot is absent, unreadable or does not hold
// a valid T. Corrupt content is logged and otherwise ignored.
func Load[T any](a *Adapter, key string, fallback T) T {
	raw, ok, err := a.backend.Get(key)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("cannot read storage, using default value")
		return fallback
	}
	if !ok {
		return fallback
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("corrupt storage slot, using default value")
		return fallback
	}
	return v
}

// Save serializes v into key.
//
// A failure is logged and returned, but the caller's in-memory state stays
// authoritative: the change may just not persist.
func (a *Adapter) Save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("cannot serialize value, changes may not persist")
		return fmt.Errorf("cannot serialize %q: %w", key, err)
	}
	sum := a.expect(key, raw)
	if err := a.backend.Set(key, raw); err != nil {
		a.forget(key, sum)
		a.log.Warn().Err(err).Str("key", key).Msg("cannot write storage, changes may not persist")
		return fmt.Errorf("cannot write %q: %w", key, err)
	}
	return nil
}

// Subscribe calls fn with the new raw value of key each time another context changes it.
// Changes written by this Adapter are not reported. Call cancel to unsubscribe.
func (a *Adapter) Subscribe(key string, fn func(raw []byte)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	if a.subs[key] == nil {
		a.subs[key] = make(map[int]func([]byte))
	}
	a.subs[key][id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs[key], id)
	}
}

// expect records that key is about to be written with raw by this Adapter.
func (a *Adapter) expect(key string, raw []byte) digest {
	sum := sha256.Sum256(raw)
	a.mu.Lock()
	defer a.mu.Unlock()
	p := append(a.pending[key], sum)
	if len(p) > maxPending {
		p = p[len(p)-maxPending:]
	}
	a.pending[key] = p
	return sum
}

// forget drops the most recent pending write of sum, after a failed Set.
func (a *Adapter) forget(key string, sum digest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.pending[key]
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == sum {
			a.pending[key] = append(p[:i:i], p[i+1:]...)
			return
		}
	}
}

// echo reports whether raw is one of this Adapter's own writes to key.
// The matching write and every older one are consumed: once the backend
// shows a write, the writes before it will not show up anymore.
func (a *Adapter) echo(key string, sum digest) bool {
	p := a.pending[key]
	for i, s := range p {
		if s == sum {
			if i == len(p)-1 {
				delete(a.pending, key)
			} else {
				a.pending[key] = p[i+1:]
			}
			return true
		}
	}
	return false
}

// dispatch is the backend watch callback.
func (a *Adapter) dispatch(key string, raw []byte) {
	sum := sha256.Sum256(raw)
	a.mu.Lock()
	if a.echo(key, sum) {
		a.mu.Unlock()
		return
	}
	fns := make([]func([]byte), 0, len(a.subs[key]))
	for _, fn := range a.subs[key] {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	a.log.Debug().Str("key", key).Msg("storage changed in another context")
	for _, fn := range fns {
		fn(raw)
	}
}
