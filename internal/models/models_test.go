package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExProfile_Validate(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		profile ExProfile
		wantErr bool
	}{
		{name: "ok", profile: ExProfile{Name: "Sam", ReferencePhotoIDs: []string{"a", "b", "c"}}},
		{name: "five refs", profile: ExProfile{Name: "Sam", ReferencePhotoIDs: []string{"a", "b", "c", "d", "e"}}},
		{name: "blank name", profile: ExProfile{Name: "  ", ReferencePhotoIDs: []string{"a", "b", "c"}}, wantErr: true},
		{name: "too few refs", profile: ExProfile{Name: "Sam", ReferencePhotoIDs: []string{"a", "b"}}, wantErr: true},
		{name: "too many refs", profile: ExProfile{Name: "Sam", ReferencePhotoIDs: []string{"a", "b", "c", "d", "e", "f"}}, wantErr: true},
		{name: "inverted range", profile: ExProfile{
			Name: "Sam", ReferencePhotoIDs: []string{"a", "b", "c"},
			DateRanges: []DateRange{{Start: day, End: day.Add(-time.Hour)}},
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidProfile)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDateRange_ContainsIsInclusive(t *testing.T) {
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC)
	r := DateRange{Start: start, End: end}

	assert.True(t, r.Contains(start))
	assert.True(t, r.Contains(end))
	assert.True(t, r.Contains(start.Add(48*time.Hour)))
	assert.False(t, r.Contains(start.Add(-time.Second)))
	assert.False(t, r.Contains(end.Add(time.Second)))
}

func TestVaultKindFor(t *testing.T) {
	assert.Equal(t, VaultCalendar, VaultKindFor(MediaCalendarEvent))
	assert.Equal(t, VaultPhoto, VaultKindFor(MediaPhoto))
	assert.Equal(t, VaultVideo, VaultKindFor(MediaVideo))
}

func TestDecision_Valid(t *testing.T) {
	assert.True(t, DecisionVault.Valid())
	assert.True(t, DecisionDelete.Valid())
	assert.True(t, DecisionKeep.Valid())
	assert.False(t, DecisionNone.Valid())
	assert.False(t, Decision("shred").Valid())
}

func TestCoolingOffStatus_Transitions(t *testing.T) {
	assert.True(t, CoolingOffPending.CanTransition(CoolingOffDeleted))
	assert.True(t, CoolingOffPending.CanTransition(CoolingOffRestored))
	assert.False(t, CoolingOffPending.CanTransition(CoolingOffPending))
	assert.False(t, CoolingOffDeleted.CanTransition(CoolingOffRestored))
	assert.False(t, CoolingOffRestored.CanTransition(CoolingOffDeleted))
	assert.True(t, CoolingOffDeleted.Terminal())
	assert.False(t, CoolingOffPending.Terminal())
}

func TestCoolingOffItem_ExpiryAndDaysRemaining(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		deleteAfter time.Time
		expired     bool
		days        int
	}{
		{name: "past", deleteAfter: now.Add(-time.Second), expired: true, days: 0},
		{name: "exactly now", deleteAfter: now, expired: true, days: 0},
		{name: "12 hours", deleteAfter: now.Add(12 * time.Hour), days: 1},
		{name: "exactly one day", deleteAfter: now.Add(24 * time.Hour), days: 1},
		{name: "one day and a minute", deleteAfter: now.Add(24*time.Hour + time.Minute), days: 2},
		{name: "ten days", deleteAfter: now.Add(10 * 24 * time.Hour), days: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CoolingOffItem{DeleteAfter: tt.deleteAfter}
			assert.Equal(t, tt.expired, c.Expired(now))
			assert.Equal(t, tt.days, c.DaysRemaining(now))
		})
	}
}

func TestVaultItem_Materialized(t *testing.T) {
	assert.False(t, VaultItem{}.Materialized())
	assert.True(t, VaultItem{FilePath: "blobs/x"}.Materialized())
}
