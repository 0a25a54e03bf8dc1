package models

import "time"

// MediaKind is the kind of asset a candidate points at.
type MediaKind string

const (
	MediaPhoto         MediaKind = "photo"
	MediaVideo         MediaKind = "video"
	MediaCalendarEvent MediaKind = "calendar_event"
)

// MatchSource records which scan phase produced a candidate.
type MatchSource string

const (
	SourceFace      MatchSource = "face"
	SourceDateRange MatchSource = "date_range"
	SourceContact   MatchSource = "contact"
)

// ScanPhase identifies the running phase in progress events.
type ScanPhase string

const (
	PhaseFaces    ScanPhase = "faces"
	PhaseDates    ScanPhase = "dates"
	PhaseCalendar ScanPhase = "calendar"
)

// Decision is the user's triage verdict on a candidate. The zero value means
// no decision yet.
type Decision string

const (
	DecisionNone   Decision = ""
	DecisionVault  Decision = "vault"
	DecisionDelete Decision = "delete"
	DecisionKeep   Decision = "keep"
)

// Valid reports whether d is one of the three user decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionVault, DecisionDelete, DecisionKeep:
		return true
	}
	return false
}

// MatchCandidate is one scored hit produced during a scan. Only Decision is
// mutated after creation.
type MatchCandidate struct {
	ID           string      `json:"id"`
	AssetID      string      `json:"asset_id"`
	Kind         MediaKind   `json:"kind"`
	Source       MatchSource `json:"source"`
	Confidence   float64     `json:"confidence"`
	Timestamp    time.Time   `json:"timestamp"`
	ThumbnailURI string      `json:"thumbnail_uri"`
	IsCloudAsset bool        `json:"is_cloud_asset,omitempty"`
	Decision     Decision    `json:"decision,omitempty"`
}

// CleanupSummary is the reduction of a reviewed result set.
type CleanupSummary struct {
	TotalScanned int `json:"total_scanned"`
	TotalMatched int `json:"total_matched"`
	TotalVaulted int `json:"total_vaulted"`
	TotalDeleted int `json:"total_deleted"`
	TotalKept    int `json:"total_kept"`
}
