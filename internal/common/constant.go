// Package common contains shared constants and sentinel errors used across
// exeraser components.
package common

import "time"

const (
	// CoolingOffDays is the grace window between a delete decision and
	// irreversible removal.
	CoolingOffDays = 7

	// CoolingOffReminderDay is the day of the cooling-off window on which the
	// "last chance" reminder is sent.
	CoolingOffReminderDay = 6

	// FaceMatchThreshold is the default minimum similarity for a face match.
	// Lower values yield more matches and more false positives.
	FaceMatchThreshold = 0.6

	// ScanBatchSize is the number of library images processed per batch.
	ScanBatchSize = 50

	// MinReferencePhotos and MaxReferencePhotos bound the reference set.
	MinReferencePhotos = 3
	MaxReferencePhotos = 5

	// CalendarLookbackYears bounds the calendar phase search window.
	CalendarLookbackYears = 5
)

// Day is a calendar day as used by the cooling-off arithmetic.
const Day = 24 * time.Hour
