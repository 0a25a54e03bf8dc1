package models

import (
	"fmt"
	"time"
)

// VaultKind is the kind of data held by a vault item.
type VaultKind string

const (
	VaultPhoto    VaultKind = "photo"
	VaultVideo    VaultKind = "video"
	VaultCalendar VaultKind = "calendar"
	VaultMessage  VaultKind = "message"
)

// VaultKindFor maps a candidate media kind to the vault kind: calendar events
// become calendar items, everything else keeps its native kind.
func VaultKindFor(k MediaKind) VaultKind {
	switch k {
	case MediaCalendarEvent:
		return VaultCalendar
	case MediaVideo:
		return VaultVideo
	default:
		return VaultPhoto
	}
}

// VaultSource is the provider an item originally came from.
type VaultSource string

const (
	OriginCameraRoll VaultSource = "camera_roll"
	OriginICloud     VaultSource = "icloud"
	OriginCalendar   VaultSource = "calendar"
	OriginMessages   VaultSource = "messages"
)

// VaultItem is a triaged piece of media or event data held in the encrypted
// vault. FilePath and ThumbnailPath are empty until materialization
// completes; ThumbnailPath stays empty for kinds without a thumbnail.
type VaultItem struct {
	ID            string         `json:"id"`
	OriginalID    string         `json:"original_id"`
	Kind          VaultKind      `json:"kind"`
	FilePath      string         `json:"file_path,omitempty"`
	ThumbnailPath string         `json:"thumbnail_path,omitempty"`
	Metadata      map[string]any `json:"metadata"`
	MatchSource   MatchSource    `json:"match_source"`
	CreatedAt     time.Time      `json:"created_at"`
	Source        VaultSource    `json:"source"`
}

// Materialized reports whether the encrypted payload has been written.
func (v VaultItem) Materialized() bool {
	return v.FilePath != ""
}

// CoolingOffStatus is the state of a pending permanent deletion.
type CoolingOffStatus string

const (
	CoolingOffPending  CoolingOffStatus = "pending"
	CoolingOffDeleted  CoolingOffStatus = "deleted"
	CoolingOffRestored CoolingOffStatus = "restored"
)

// Terminal reports whether no further transitions are allowed.
func (s CoolingOffStatus) Terminal() bool {
	return s == CoolingOffDeleted || s == CoolingOffRestored
}

// CanTransition reports whether s may move to next. Only pending items move,
// and only into a terminal state.
func (s CoolingOffStatus) CanTransition(next CoolingOffStatus) bool {
	return s == CoolingOffPending && next.Terminal()
}

// CoolingOffItem tracks a pending permanent deletion of a vault item.
type CoolingOffItem struct {
	ID          string           `json:"id"`
	VaultItemID string           `json:"vault_item_id"`
	DeleteAfter time.Time        `json:"delete_after"`
	Reminded    bool             `json:"reminded"`
	Status      CoolingOffStatus `json:"status"`
}

// Expired reports whether the grace period has elapsed at now.
func (c CoolingOffItem) Expired(now time.Time) bool {
	return !now.Before(c.DeleteAfter)
}

// DaysRemaining returns the whole days left until DeleteAfter, rounded up,
// and 0 once expired.
func (c CoolingOffItem) DaysRemaining(now time.Time) int {
	diff := c.DeleteAfter.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func (c CoolingOffItem) String() string {
	return fmt.Sprintf("%s (vault item %s, %s, delete after %s)",
		c.ID, c.VaultItemID, c.Status, c.DeleteAfter.Format(time.RFC3339))
}
