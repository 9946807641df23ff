// Package kv is the key-value store behind every collection. Values are
// opaque bytes (JSON text in practice) addressed by string keys.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Bucket is the read/write surface shared by a Store and an open transaction.
type Bucket interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store is a Bucket that can also run all-or-nothing updates. Writes made
// through the Bucket handed to fn become visible only when fn returns nil;
// any error discards all of them. Updates are serialized against each other.
type Store interface {
	Bucket
	Update(ctx context.Context, fn func(ctx context.Context, tx Bucket) error) error
	Close() error
}
