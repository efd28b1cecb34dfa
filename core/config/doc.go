// Package config provides configuration management for legacy-mirror.
//
// Values come from environment variables, optionally overlaid from a .env
// file. Defaults are declared with `default` struct tags next to the
// `mapstructure` keys and registered with Viper by reflection; nested keys map
// to variables by replacing dots with underscores (sync.max_parallel ->
// SYNC_MAX_PARALLEL).
//
// # Configuration Structure
//
//   - Server: admin HTTP port and API key
//   - Log: level and format
//   - Source / Target: legacy and local database connections
//   - Storage: S3/MinIO run report archive
//   - Sync: mode, parallelism, batch size, throttling, schedule, catalog path
//
// The engine packages never read configuration; the commands turn a Config into
// explicit option values.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
