// Package metadata persists small key/value records in the local database:
// the vault passphrase salt and verifier, and the wrapped vault key.
package metadata

import "context"

type Repository interface {
	// Get returns the value for key, or (nil, nil) if absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetIfAbsent stores value only when key is missing and reports whether
	// it did.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
}
