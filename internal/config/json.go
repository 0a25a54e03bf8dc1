package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/exeraser/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`
	LibraryDir   string `json:"library_dir"`
	CalendarPath string `json:"calendar_path"`
	SandboxDir   string `json:"sandbox_dir"`
	BlobDir      string `json:"blob_dir"`

	FaceThreshold         float64 `json:"face_threshold"`
	BatchSize             int     `json:"batch_size"`
	CascadePath           string  `json:"cascade_path"`
	CalendarLookbackYears int     `json:"calendar_lookback_years"`

	CoolingOffDays int            `json:"cooling_off_days"`
	ReminderDay    int            `json:"reminder_day"`
	SweepInterval  timex.Duration `json:"sweep_interval"`

	BlobBackend string `json:"blob_backend"`
	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	RedisAddr    string `json:"redis_addr"`
	RedisChannel string `json:"redis_channel"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

func toJson(c *Config) JsonConfig {
	return JsonConfig{
		DataDir:               c.DataDir,
		DatabasePath:          c.DatabasePath,
		LibraryDir:            c.LibraryDir,
		CalendarPath:          c.CalendarPath,
		SandboxDir:            c.SandboxDir,
		BlobDir:               c.BlobDir,
		FaceThreshold:         c.FaceThreshold,
		BatchSize:             c.BatchSize,
		CascadePath:           c.CascadePath,
		CalendarLookbackYears: c.CalendarLookbackYears,
		CoolingOffDays:        c.CoolingOffDays,
		ReminderDay:           c.ReminderDay,
		SweepInterval:         timex.Duration{Duration: c.SweepInterval},
		BlobBackend:           c.BlobBackend,
		S3Bucket:              c.S3Bucket,
		S3Region:              c.S3Region,
		S3Endpoint:            c.S3Endpoint,
		S3AccessKey:           c.S3AccessKey,
		S3SecretKey:           c.S3SecretKey,
		RedisAddr:             c.RedisAddr,
		RedisChannel:          c.RedisChannel,
		LogLevel:              c.LogLevel,
		LogFormat:             c.LogFormat,
	}
}

func (jc JsonConfig) apply(c *Config) {
	c.DataDir = jc.DataDir
	c.DatabasePath = jc.DatabasePath
	c.LibraryDir = jc.LibraryDir
	c.CalendarPath = jc.CalendarPath
	c.SandboxDir = jc.SandboxDir
	c.BlobDir = jc.BlobDir
	c.FaceThreshold = jc.FaceThreshold
	c.BatchSize = jc.BatchSize
	c.CascadePath = jc.CascadePath
	c.CalendarLookbackYears = jc.CalendarLookbackYears
	c.CoolingOffDays = jc.CoolingOffDays
	c.ReminderDay = jc.ReminderDay
	c.SweepInterval = jc.SweepInterval.Duration
	c.BlobBackend = jc.BlobBackend
	c.S3Bucket = jc.S3Bucket
	c.S3Region = jc.S3Region
	c.S3Endpoint = jc.S3Endpoint
	c.S3AccessKey = jc.S3AccessKey
	c.S3SecretKey = jc.S3SecretKey
	c.RedisAddr = jc.RedisAddr
	c.RedisChannel = jc.RedisChannel
	c.LogLevel = jc.LogLevel
	c.LogFormat = jc.LogFormat
}

// parseJson overlays cfg with the values present in the JSON file at path.
// An empty path loads nothing.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	jc := toJson(cfg)
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}
