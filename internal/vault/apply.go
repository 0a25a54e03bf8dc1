package vault

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/exeraser/internal/models"
)

// ApplyDecisions carries out reviewed scan decisions: vault moves the item
// into the vault, delete does the same and starts the cooling-off period,
// keep leaves the original alone. Assets already in the vault are only
// re-materialized, so a failed run can be repeated.
func (m *Manager) ApplyDecisions(ctx context.Context, decided []models.MatchCandidate) error {
	existing, err := m.List(ctx)
	if err != nil {
		return err
	}
	byOriginal := make(map[string]*models.VaultItem, len(existing))
	for _, it := range existing {
		byOriginal[it.OriginalID] = it
	}

	for _, c := range decided {
		if c.Decision != models.DecisionVault && c.Decision != models.DecisionDelete {
			continue
		}

		item, ok := byOriginal[c.AssetID]
		if !ok {
			if item, err = m.MoveToVault(ctx, c); err != nil {
				return fmt.Errorf("vault %s: %w", c.AssetID, err)
			}
			byOriginal[c.AssetID] = item
		}

		if _, err := m.Materialize(ctx, item.ID); err != nil {
			return fmt.Errorf("materialize %s: %w", c.AssetID, err)
		}

		if c.Decision == models.DecisionDelete {
			if _, err := m.MarkForDeletion(ctx, item.ID); err != nil {
				return fmt.Errorf("schedule deletion of %s: %w", c.AssetID, err)
			}
		}
	}
	return nil
}
