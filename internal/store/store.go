// internal/store/store.go

// Package store persists partial results keyed by chunk index. Indices are
// unique per chunk, so concurrent workers never write the same key; backends
// only have to make a single Put atomic.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound reports a Get for an index with no stored partial.
var ErrNotFound = errors.New("partial not found")

// Store is the checkpoint backend.
type Store interface {
	// Put durably writes the partial for index. Must be atomic: a crash
	// mid-Put leaves either the previous state or the full new payload.
	Put(ctx context.Context, index int, data []byte) error
	// Get returns the payload for index, or ErrNotFound.
	Get(ctx context.Context, index int) ([]byte, error)
	// List returns all stored indices in ascending order.
	List(ctx context.Context) ([]int, error)
	// Delete removes the partial for index; absent indices are not an error.
	Delete(ctx context.Context, index int) error
	Close() error
}

// Error wraps a backend failure with enough context to name the chunk.
type Error struct {
	Op    string
	Index int // -1 when not index-specific
	Err   error
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s chunk %d: %v", e.Op, e.Index, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
