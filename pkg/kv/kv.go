// Package kv provides a small key-value store with hierarchical path-based
// keys, used to persist session-scoped identity (UI session ID, refresh
// token) across process restarts.
//
// Keys are string slices (e.g. ["auth", "default"]) joined with ':' for
// storage. A BadgerDB-backed implementation serves real use; an in-memory
// implementation serves tests.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in the encoded form. Segments must not
// contain it.
const Separator = ":"

// Key is a hierarchical path represented as a slice of string segments.
type Key []string

// String returns the encoded form of the key.
func (k Key) String() string {
	return strings.Join(k, Separator)
}

// decodeKey splits an encoded key back into segments.
func decodeKey(s string) Key {
	return Key(strings.Split(s, Separator))
}

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates entries whose key starts with prefix, in lexicographic
	// order of the encoded key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases resources held by the store.
	Close() error
}

// encodePrefix returns the storage prefix for List: the encoded key followed
// by the separator, so ["a","b"] does not match "a:bc".
func encodePrefix(prefix Key) string {
	if len(prefix) == 0 {
		return ""
	}
	return prefix.String() + Separator
}
