package config

import (
	"github.com/spf13/pflag"
)

const (
	FlagConfig = "config"

	flagDataDir        = "data-dir"
	flagDatabase       = "db"
	flagLibrary        = "library"
	flagCalendar       = "calendar"
	flagSandbox        = "sandbox"
	flagBlobDir        = "blob-dir"
	flagThreshold      = "threshold"
	flagBatchSize      = "batch-size"
	flagCascade        = "cascade"
	flagLookback       = "lookback-years"
	flagCoolingOffDays = "cooling-off-days"
	flagReminderDay    = "reminder-day"
	flagSweepInterval  = "sweep-interval"
	flagBlobBackend    = "blob-backend"
	flagS3Bucket       = "s3-bucket"
	flagS3Region       = "s3-region"
	flagS3Endpoint     = "s3-endpoint"
	flagS3AccessKey    = "s3-access-key"
	flagS3SecretKey    = "s3-secret-key"
	flagRedisAddr      = "redis-addr"
	flagRedisChannel   = "redis-channel"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
)

// BindFlags declares the configuration flags on fs. Defaults shown in help
// come from LoadDefaults; only flags the user sets override the JSON file.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to JSON config file")
	fs.String(flagDataDir, d.DataDir, "directory for the database, blobs and sandbox")
	fs.String(flagDatabase, "", "sqlite database path (default <data-dir>/exeraser.db)")
	fs.String(flagLibrary, "", "media library directory (default <data-dir>/library)")
	fs.String(flagCalendar, "", "calendar YAML file (default <data-dir>/calendar.yaml)")
	fs.String(flagSandbox, "", "scratch directory for plaintext exports (default <data-dir>/sandbox)")
	fs.String(flagBlobDir, "", "local blob directory (default <data-dir>/blobs)")
	fs.Float64(flagThreshold, d.FaceThreshold, "minimum face similarity for a match")
	fs.Int(flagBatchSize, d.BatchSize, "images per face scan batch")
	fs.String(flagCascade, d.CascadePath, "pigo face detection cascade file")
	fs.Int(flagLookback, d.CalendarLookbackYears, "years of calendar history to search")
	fs.Int(flagCoolingOffDays, d.CoolingOffDays, "days between a delete decision and permanent deletion")
	fs.Int(flagReminderDay, d.ReminderDay, "day of the cooling-off period on which the reminder is sent")
	fs.Duration(flagSweepInterval, d.SweepInterval, "daemon sweep interval")
	fs.String(flagBlobBackend, d.BlobBackend, "blob storage backend: local or s3")
	fs.String(flagS3Bucket, "", "S3 bucket for vault blobs")
	fs.String(flagS3Region, "", "S3 region")
	fs.String(flagS3Endpoint, "", "S3-compatible endpoint URL")
	fs.String(flagS3AccessKey, "", "S3 access key")
	fs.String(flagS3SecretKey, "", "S3 secret key")
	fs.String(flagRedisAddr, "", "redis address for reminder delivery (host:port or redis:// URL)")
	fs.String(flagRedisChannel, d.RedisChannel, "redis channel for reminders")
	fs.String(flagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(flagLogFormat, d.LogFormat, "log format: text or json")
}

// applyFlags copies the flags explicitly set on fs into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case flagDataDir:
			cfg.DataDir, err = fs.GetString(f.Name)
		case flagDatabase:
			cfg.DatabasePath, err = fs.GetString(f.Name)
		case flagLibrary:
			cfg.LibraryDir, err = fs.GetString(f.Name)
		case flagCalendar:
			cfg.CalendarPath, err = fs.GetString(f.Name)
		case flagSandbox:
			cfg.SandboxDir, err = fs.GetString(f.Name)
		case flagBlobDir:
			cfg.BlobDir, err = fs.GetString(f.Name)
		case flagThreshold:
			cfg.FaceThreshold, err = fs.GetFloat64(f.Name)
		case flagBatchSize:
			cfg.BatchSize, err = fs.GetInt(f.Name)
		case flagCascade:
			cfg.CascadePath, err = fs.GetString(f.Name)
		case flagLookback:
			cfg.CalendarLookbackYears, err = fs.GetInt(f.Name)
		case flagCoolingOffDays:
			cfg.CoolingOffDays, err = fs.GetInt(f.Name)
		case flagReminderDay:
			cfg.ReminderDay, err = fs.GetInt(f.Name)
		case flagSweepInterval:
			cfg.SweepInterval, err = fs.GetDuration(f.Name)
		case flagBlobBackend:
			cfg.BlobBackend, err = fs.GetString(f.Name)
		case flagS3Bucket:
			cfg.S3Bucket, err = fs.GetString(f.Name)
		case flagS3Region:
			cfg.S3Region, err = fs.GetString(f.Name)
		case flagS3Endpoint:
			cfg.S3Endpoint, err = fs.GetString(f.Name)
		case flagS3AccessKey:
			cfg.S3AccessKey, err = fs.GetString(f.Name)
		case flagS3SecretKey:
			cfg.S3SecretKey, err = fs.GetString(f.Name)
		case flagRedisAddr:
			cfg.RedisAddr, err = fs.GetString(f.Name)
		case flagRedisChannel:
			cfg.RedisChannel, err = fs.GetString(f.Name)
		case flagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case flagLogFormat:
			cfg.LogFormat, err = fs.GetString(f.Name)
		}
	})
	return err
}
