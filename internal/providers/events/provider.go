// Package events abstracts the host calendar store.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/providers/media"
)

type Attendee struct {
	Name string `yaml:"name" json:"name"`
	// ContactID is the attendee's contact identifier, usually a tel: or
	// mailto: URI.
	ContactID string `yaml:"contact,omitempty" json:"contact,omitempty"`
}

type Event struct {
	EventID      string     `yaml:"id" json:"event_id"`
	Title        string     `yaml:"title" json:"title"`
	Notes        string     `yaml:"notes,omitempty" json:"notes,omitempty"`
	StartDate    time.Time  `yaml:"start" json:"start_date"`
	EndDate      time.Time  `yaml:"end" json:"end_date"`
	Location     string     `yaml:"location,omitempty" json:"location,omitempty"`
	Attendees    []Attendee `yaml:"attendees,omitempty" json:"attendees,omitempty"`
	CalendarName string     `yaml:"calendar" json:"calendar_name"`
}

type Provider interface {
	// SearchEvents returns events starting within [from, to] that match name
	// or phone, see Matches.
	SearchEvents(ctx context.Context, name, phone string, from, to time.Time) ([]Event, error)

	// Delete fails with common.ErrNotFound for unknown ids.
	Delete(ctx context.Context, eventID string) error

	ExportJSON(ctx context.Context, eventID string) (string, error)

	// RestoreJSON recreates an exported event and returns its new id.
	RestoreJSON(ctx context.Context, data string) (string, error)

	RequestAccess(ctx context.Context) (bool, error)
	AuthorizationStatus(ctx context.Context) (media.AuthStatus, error)
}

// Matches reports whether e concerns the person identified by name or phone.
// Name matches case-insensitively against title, notes, location and
// attendee names. Phone matches when the normalized attendee contact
// contains the normalized phone. Empty inputs never match.
func Matches(e Event, name, phone string) bool {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle != "" {
		for _, field := range []string{e.Title, e.Notes, e.Location} {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		for _, a := range e.Attendees {
			if strings.Contains(strings.ToLower(a.Name), needle) {
				return true
			}
		}
	}

	digits := NormalizePhone(phone)
	if digits == "" || digits == "+" {
		return false
	}
	for _, a := range e.Attendees {
		if strings.Contains(NormalizePhone(a.ContactID), digits) {
			return true
		}
	}
	return false
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
