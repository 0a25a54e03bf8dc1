package vaultitems

import (
	"context"

	"github.com/dmitrijs2005/exeraser/internal/models"
)

// Repository describes the vault index operations.
type Repository interface {
	Insert(ctx context.Context, item *models.VaultItem) error

	// SetPaths records the encrypted file and thumbnail locations once
	// materialization completes.
	SetPaths(ctx context.Context, id, filePath, thumbnailPath string) error

	// SetMetadata replaces the item's metadata map.
	SetMetadata(ctx context.Context, id string, md map[string]any) error

	GetByID(ctx context.Context, id string) (*models.VaultItem, error)

	// List returns all items, newest first.
	List(ctx context.Context) ([]*models.VaultItem, error)

	Delete(ctx context.Context, id string) error
}
