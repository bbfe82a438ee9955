// Package slot persists JSON values in named storage slots and notifies
// listeners when a slot is changed from another execution context.
//
// A Backend is the raw storage shared by several contexts: an in-process
// map, a directory, a SQLite database or a Redis server. An Adapter is one
// context's view of it: it serializes values, swallows storage failures
// after logging them, and only reports changes it did not write itself.
package slot

import (
	"context"
	"errors"
)

// Backend is a key/value storage shared between execution contexts.
type Backend interface {
	// Get returns the raw value stored in key. ok is false if the key was never set.
	Get(key string) (value []byte, ok bool, err error)
	// Set replaces the value stored in key.
	Set(key string, value []byte) error
	// Watch calls fn for every change of any key, until ctx is done.
	// It returns as soon as the watch is established.
	//
	// fn may be called for changes made through the same backend, it is up
	// to the caller to filter them out.
	Watch(ctx context.Context, fn func(key string, value []byte)) error
	// Close releases the backend resources.
	Close() error
}

// ErrClosed is returned when using a closed Backend.
var ErrClosed = errors.New("slot backend closed")
