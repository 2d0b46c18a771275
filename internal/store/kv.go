// ABOUTME: KV interface and sentinel errors for hassle-chat persistence
// ABOUTME: The durable store is a plain string-keyed byte store, like the browser's localStorage

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("not found")

// KV is a durable string-keyed byte store. SQLiteKV is the production
// implementation; MockKV backs tests and ephemeral mode.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
