// Package storage is the persistent key/value collaborator. The engine
// only relies on get/set/remove/clear with possibly-failing semantics; it
// never assumes durability beyond what the backing store offers.
package storage

import (
	"context"
	"fmt"
)

// Store is the contract every backend satisfies.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Error tags a storage failure with the operation that produced it.
type Error struct {
	Op  string // get, set, remove, clear
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
