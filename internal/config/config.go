package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/spf13/pflag"
)

const (
	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"
)

// Config holds runtime settings for the exeraser CLI.
type Config struct {
	DataDir      string
	DatabasePath string
	LibraryDir   string
	CalendarPath string
	SandboxDir   string
	BlobDir      string

	FaceThreshold         float64
	BatchSize             int
	CascadePath           string
	CalendarLookbackYears int

	CoolingOffDays int
	ReminderDay    int
	SweepInterval  time.Duration

	BlobBackend string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	RedisAddr    string
	RedisChannel string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.FaceThreshold = common.FaceMatchThreshold
	c.BatchSize = common.ScanBatchSize
	c.CalendarLookbackYears = common.CalendarLookbackYears
	c.CoolingOffDays = common.CoolingOffDays
	c.ReminderDay = common.CoolingOffReminderDay
	c.SweepInterval = 6 * time.Hour
	c.BlobBackend = BlobBackendLocal
	c.RedisChannel = "exeraser:reminders"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".exeraser"
	}
	return filepath.Join(home, ".exeraser")
}

// resolvePaths fills paths left empty from DataDir.
func (c *Config) resolvePaths() {
	def := func(p *string, name string) {
		if *p == "" {
			*p = filepath.Join(c.DataDir, name)
		}
	}
	def(&c.DatabasePath, "exeraser.db")
	def(&c.LibraryDir, "library")
	def(&c.CalendarPath, "calendar.yaml")
	def(&c.SandboxDir, "sandbox")
	def(&c.BlobDir, "blobs")
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.FaceThreshold < 0 || c.FaceThreshold > 1 {
		errs = append(errs, fmt.Errorf("face_threshold must be in [0,1], got %v", c.FaceThreshold))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.CalendarLookbackYears <= 0 {
		errs = append(errs, fmt.Errorf("calendar_lookback_years must be positive, got %d", c.CalendarLookbackYears))
	}
	if c.CoolingOffDays <= 0 {
		errs = append(errs, fmt.Errorf("cooling_off_days must be positive, got %d", c.CoolingOffDays))
	}
	if c.ReminderDay <= 0 || c.ReminderDay >= c.CoolingOffDays {
		errs = append(errs, fmt.Errorf("reminder_day must be in [1,%d), got %d", c.CoolingOffDays, c.ReminderDay))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval))
	}
	switch c.BlobBackend {
	case BlobBackendLocal:
	case BlobBackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3_bucket is required for the s3 blob backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob_backend %q", c.BlobBackend))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Load builds a Config from defaults, the JSON file named by the config flag
// and the flags set on fs, in that order.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}

	cfg.resolvePaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
