package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"batch_size":     10,
		"face_threshold": 0.7,
		"redis_addr":     "cache:6379",
	})

	fs := newFlagSet(t,
		"--config", path,
		"--data-dir", "/srv/exeraser",
		"--threshold", "0.9",
		"--sweep-interval", "1h",
		"--cascade", "/opt/facefinder",
	)

	got, err := Load(fs)
	require.NoError(t, err)

	want := &Config{
		DataDir:               "/srv/exeraser",
		DatabasePath:          filepath.Join("/srv/exeraser", "exeraser.db"),
		LibraryDir:            filepath.Join("/srv/exeraser", "library"),
		CalendarPath:          filepath.Join("/srv/exeraser", "calendar.yaml"),
		SandboxDir:            filepath.Join("/srv/exeraser", "sandbox"),
		BlobDir:               filepath.Join("/srv/exeraser", "blobs"),
		FaceThreshold:         0.9,
		BatchSize:             10,
		CascadePath:           "/opt/facefinder",
		CalendarLookbackYears: 5,
		CoolingOffDays:        7,
		ReminderDay:           6,
		SweepInterval:         time.Hour,
		BlobBackend:           BlobBackendLocal,
		RedisAddr:             "cache:6379",
		RedisChannel:          "exeraser:reminders",
		LogLevel:              "info",
		LogFormat:             "text",
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestLoad_UnsetFlagsDoNotOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{"reminder_day": 2, "cooling_off_days": 3})

	got, err := Load(newFlagSet(t, "-c", path))
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReminderDay)
	assert.Equal(t, 3, got.CoolingOffDays)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(newFlagSet(t, "--batch-size", "0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
}

func TestBindFlags_RejectsBadValue(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.Error(t, fs.Parse([]string{"--threshold", "high"}))
}
