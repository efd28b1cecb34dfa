package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"legacy-mirror/core/database"
	"legacy-mirror/core/logger"
	"legacy-mirror/core/server"
	"legacy-mirror/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the admin HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Source is the legacy database being mirrored.
	Source database.Config `mapstructure:"source"`
	// Target is the local datastore receiving the mirrored records and the sync state.
	Target database.Config `mapstructure:"target"`
	// Storage holds configuration for the run report archive (S3, MinIO).
	Storage storage.Config `mapstructure:"storage"`
	// Sync holds the engine settings.
	Sync SyncConfig `mapstructure:"sync"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." || path == "" {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SOURCE_HOST -> source.host)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// Validate checks settings that would make every run fail.
func (c *Config) Validate() error {
	var errs []error
	for name, db := range map[string]database.Config{"source": c.Source, "target": c.Target} {
		if db.Driver != database.DriverMySQL && db.Driver != database.DriverSQLite {
			errs = append(errs, fmt.Errorf("%s.driver: unsupported driver %q", name, db.Driver))
		}
	}
	if c.Source == c.Target {
		errs = append(errs, errors.New("source and target point to the same database"))
	}
	if _, err := c.Sync.Options(); err != nil {
		errs = append(errs, fmt.Errorf("sync.mode: %w", err))
	}
	if c.Sync.MaxParallel < 0 || c.Sync.BatchSize < 0 || c.Sync.ErrorSampleLimit < 0 {
		errs = append(errs, errors.New("sync: max_parallel, batch_size and error_sample_limit must not be negative"))
	}
	if c.Sync.Interval < 0 {
		errs = append(errs, errors.New("sync.interval must not be negative"))
	}
	return errors.Join(errs...)
}
