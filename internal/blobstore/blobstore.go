// Package blobstore stores the encrypted vault payloads and thumbnails.
//
// Blobs are opaque: callers encrypt before Put and decrypt after Get. Two
// backends exist, a local directory tree and an S3-compatible bucket.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	// Put writes data under key, replacing any existing blob.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the blob stored under key, or common.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh storage key for a vault blob. The suffix tells the
// payload apart from its thumbnail.
func NewKey(vaultItemID, suffix string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("vault/%d/%02d/%s/%s.%s", d.Year(), d.Month(), vaultItemID, uuid.NewString(), suffix)
}
