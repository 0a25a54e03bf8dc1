package events

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `events:
  - id: e1
    title: Coffee with Jordan
    start: 2023-05-01T09:00:00Z
    end: 2023-05-01T10:00:00Z
    calendar: Personal
  - id: e2
    title: Team sync
    start: 2023-06-01T09:00:00Z
    end: 2023-06-01T10:00:00Z
    calendar: Work
    attendees:
      - name: J.
        contact: "tel:+1 555 010 2000"
  - id: e3
    title: Dentist
    start: 2023-07-01T09:00:00Z
    end: 2023-07-01T10:00:00Z
    calendar: Personal
  - id: e4
    title: Jordan birthday
    start: 2010-01-01T00:00:00Z
    end: 2010-01-01T23:00:00Z
    calendar: Personal
`

func newCalendar(t *testing.T) *Calendar {
	t.Helper()
	p := filepath.Join(t.TempDir(), "calendar.yaml")
	require.NoError(t, os.WriteFile(p, []byte(fixture), 0o600))
	return NewCalendar(p)
}

var (
	from = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func TestCalendar_SearchEvents(t *testing.T) {
	c := newCalendar(t)

	got, err := c.SearchEvents(context.Background(), "Jordan", "+15550102000", from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].EventID)
	assert.Equal(t, "e1", got[1].EventID)
	assert.Equal(t, "Personal", got[1].CalendarName)
}

func TestCalendar_SearchEvents_WindowInclusive(t *testing.T) {
	c := newCalendar(t)
	start := time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC)

	got, err := c.SearchEvents(context.Background(), "jordan", "", start, start)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].EventID)
}

func TestCalendar_ExportDeleteRestore(t *testing.T) {
	c := newCalendar(t)
	ctx := context.Background()

	exported, err := c.ExportJSON(ctx, "e1")
	require.NoError(t, err)
	assert.Contains(t, exported, "Coffee with Jordan")

	require.NoError(t, c.Delete(ctx, "e1"))
	require.ErrorIs(t, c.Delete(ctx, "e1"), common.ErrNotFound)
	_, err = c.ExportJSON(ctx, "e1")
	require.ErrorIs(t, err, common.ErrNotFound)

	newID, err := c.RestoreJSON(ctx, exported)
	require.NoError(t, err)
	assert.NotEqual(t, "e1", newID)

	got, err := c.SearchEvents(ctx, "coffee", "", from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newID, got[0].EventID)
	assert.True(t, got[0].StartDate.Equal(time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC)))

	_, err = c.RestoreJSON(ctx, "{not json")
	require.Error(t, err)
}

func TestCalendar_Access(t *testing.T) {
	ctx := context.Background()
	c := NewCalendar(filepath.Join(t.TempDir(), "sub", "calendar.yaml"))

	status, err := c.AuthorizationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, media.AuthNotDetermined, status)

	_, err = c.SearchEvents(ctx, "x", "", from, to)
	require.ErrorIs(t, err, common.ErrProviderUnauthorized)

	granted, err := c.RequestAccess(ctx)
	require.NoError(t, err)
	assert.True(t, granted)

	status, err = c.AuthorizationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, media.AuthAuthorized, status)

	got, err := c.SearchEvents(ctx, "x", "", from, to)
	require.NoError(t, err)
	assert.Empty(t, got)
}
