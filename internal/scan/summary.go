package scan

import "github.com/dmitrijs2005/exeraser/internal/models"

// Dedupe returns the incoming candidates whose asset ids are not already in
// accumulated, keeping the first of any duplicates within incoming. The
// earlier phase owns an asset regardless of confidence.
func Dedupe(accumulated, incoming []models.MatchCandidate) []models.MatchCandidate {
	seen := make(map[string]struct{}, len(accumulated)+len(incoming))
	for _, c := range accumulated {
		seen[c.AssetID] = struct{}{}
	}

	out := make([]models.MatchCandidate, 0, len(incoming))
	for _, c := range incoming {
		if _, dup := seen[c.AssetID]; dup {
			continue
		}
		seen[c.AssetID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// BuildSummary counts results by decision. Undecided results count towards
// the totals only, so the partitions may sum to less than TotalMatched.
func BuildSummary(results []models.MatchCandidate) models.CleanupSummary {
	s := models.CleanupSummary{
		TotalScanned: len(results),
		TotalMatched: len(results),
	}
	for _, r := range results {
		switch r.Decision {
		case models.DecisionVault:
			s.TotalVaulted++
		case models.DecisionDelete:
			s.TotalDeleted++
		case models.DecisionKeep:
			s.TotalKept++
		}
	}
	return s
}
