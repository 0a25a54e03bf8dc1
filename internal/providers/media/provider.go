// Package media abstracts the host photo and video library.
//
// Provider is the contract the scan, the face matcher and the vault rely on.
// Library implements it over a directory tree, which is how exeraser runs
// outside a phone: a synced camera roll folder, a mounted backup, and so on.
package media

import (
	"context"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/models"
)

// AuthStatus is the library access state reported by the host.
type AuthStatus string

const (
	AuthAuthorized    AuthStatus = "authorized"
	AuthLimited       AuthStatus = "limited"
	AuthDenied        AuthStatus = "denied"
	AuthNotDetermined AuthStatus = "notDetermined"
)

// Readable reports whether assets can be enumerated under s.
func (s AuthStatus) Readable() bool {
	return s == AuthAuthorized || s == AuthLimited
}

type Asset struct {
	ID           string           `json:"id"`
	URI          string           `json:"uri"`
	ThumbnailURI string           `json:"thumbnail_uri"`
	Kind         models.MediaKind `json:"media_kind"`
	CreationDate time.Time        `json:"creation_date"`
	IsFavorite   bool             `json:"is_favorite"`
	IsCloudAsset bool             `json:"is_cloud_asset"`
}

type Provider interface {
	// FetchByDateRange returns photos and videos created within [start, end],
	// newest first.
	FetchByDateRange(ctx context.Context, start, end time.Time) ([]Asset, error)

	// ListAll returns every photo and video, newest first.
	ListAll(ctx context.Context) ([]Asset, error)

	// Open returns the raw bytes of an asset.
	Open(ctx context.Context, id string) ([]byte, error)

	// ExportToSandbox copies the asset into dir and returns the new path.
	ExportToSandbox(ctx context.Context, id, dir string) (string, error)

	// Delete removes the asset, failing with common.ErrNotFound when the id
	// no longer resolves.
	Delete(ctx context.Context, id string) error

	// Restore adds the file at path back to the library and returns its new id.
	Restore(ctx context.Context, path string) (string, error)

	TotalCount(ctx context.Context) (int, error)
	AuthorizationStatus(ctx context.Context) (AuthStatus, error)
	RequestAuthorization(ctx context.Context) (AuthStatus, error)
}
