package slot

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Backend. Two Adapters on the same Memory behave
// like two browser tabs sharing their storage: changes are delivered
// asynchronously, in order, to every watcher.
type Memory struct {
	mu       sync.Mutex
	values   map[string][]byte
	watchers map[int]*queue
	next     int
	closed   bool
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		watchers: make(map[int]*queue),
	}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.values[key]
	return slices.Clone(v), ok, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.values[key] = slices.Clone(value)
	for _, q := range m.watchers {
		q.push(change{key, slices.Clone(value)})
	}
	return nil
}

func (m *Memory) Watch(ctx context.Context, fn func(string, []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	id := m.next
	m.next++
	q := newQueue(fn)
	m.watchers[id] = q
	context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if q, ok := m.watchers[id]; ok {
			q.close()
			delete(m.watchers, id)
		}
	})
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, q := range m.watchers {
		q.close()
		delete(m.watchers, id)
	}
	return nil
}

type change struct {
	key   string
	value []byte
}

// queue delivers changes to fn from its own goroutine, in push order.
// push never blocks.
type queue struct {
	mu      sync.Mutex
	pending []change
	closed  bool
	wake    chan struct{}
}

func newQueue(fn func(string, []byte)) *queue {
	q := &queue{wake: make(chan struct{}, 1)}
	go q.run(fn)
	return q
}

func (q *queue) push(c change) {
	q.mu.Lock()
	q.pending = append(q.pending, c)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue) run(fn func(string, []byte)) {
	for range q.wake {
		q.mu.Lock()
		batch, closed := q.pending, q.closed
		q.pending = nil
		q.mu.Unlock()
		if closed {
			return
		}
		for _, c := range batch {
			fn(c.key, c.value)
		}
	}
}
