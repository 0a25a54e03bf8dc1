// Package coolingoff persists CoolingOffItems: pending permanent deletions and
// their terminal outcomes.
package coolingoff

import (
	"context"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/models"
)

type Repository interface {
	// Insert stores a new item. A second pending item for the same vault
	// item is rejected by the schema.
	Insert(ctx context.Context, item *models.CoolingOffItem) error

	GetByID(ctx context.Context, id string) (*models.CoolingOffItem, error)

	// GetPendingByVaultItem returns the active item for a vault item, or
	// common.ErrNotFound.
	GetPendingByVaultItem(ctx context.Context, vaultItemID string) (*models.CoolingOffItem, error)

	// ListPending returns pending items ordered by DeleteAfter.
	ListPending(ctx context.Context) ([]*models.CoolingOffItem, error)

	// MarkReminded sets the reminded flag on a pending item. It reports
	// false when the item was already reminded or is no longer pending.
	MarkReminded(ctx context.Context, id string) (bool, error)

	// Resolve moves a pending item into a terminal status. Items that are
	// not pending are left untouched and common.ErrInvalidTransition is
	// returned.
	Resolve(ctx context.Context, id string, status models.CoolingOffStatus) error

	// DueBefore returns pending items whose DeleteAfter is at or before t.
	DueBefore(ctx context.Context, t time.Time) ([]*models.CoolingOffItem, error)
}
