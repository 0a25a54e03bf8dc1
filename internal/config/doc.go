// Package config loads runtime configuration for the exeraser CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config / -c (see parseJson).
//  3. Command-line flags explicitly set by the user (see applyFlags).
//
// Paths left empty after all three sources are derived from DataDir.
//
// # JSON schema
//
// Keys absent from the file keep their previous value. Durations use
// timex.Duration, so "6h" and 21600 (seconds) are both accepted:
//
//	{
//	  "data_dir": "/home/alex/.exeraser",
//	  "face_threshold": 0.6,
//	  "batch_size": 50,
//	  "cascade_path": "/usr/share/exeraser/facefinder",
//	  "cooling_off_days": 7,
//	  "reminder_day": 6,
//	  "sweep_interval": "6h",
//	  "blob_backend": "s3",
//	  "s3_bucket": "exeraser-vault",
//	  "redis_addr": "localhost:6379"
//	}
package config
