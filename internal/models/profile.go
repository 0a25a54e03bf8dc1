package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
)

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the range, endpoints included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ExProfile is the search target. It is read-only input to a scan.
type ExProfile struct {
	Name              string      `json:"name"`
	PhoneNumber       string      `json:"phone_number,omitempty"`
	ReferencePhotoIDs []string    `json:"reference_photo_ids"`
	DateRanges        []DateRange `json:"date_ranges,omitempty"`
}

// HasDateRanges reports whether the profile asks for a date-range phase.
func (p ExProfile) HasDateRanges() bool {
	return len(p.DateRanges) > 0
}

// Validate checks the profile invariants: a non-empty name, 3 to 5 reference
// photos and well-ordered date ranges.
func (p ExProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrInvalidProfile)
	}
	n := len(p.ReferencePhotoIDs)
	if n < common.MinReferencePhotos || n > common.MaxReferencePhotos {
		return fmt.Errorf("%w: need %d-%d reference photos, got %d",
			common.ErrInvalidProfile, common.MinReferencePhotos, common.MaxReferencePhotos, n)
	}
	for i, r := range p.DateRanges {
		if r.End.Before(r.Start) {
			return fmt.Errorf("%w: date range %d ends before it starts", common.ErrInvalidProfile, i)
		}
	}
	return nil
}
