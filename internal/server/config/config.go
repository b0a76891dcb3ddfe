// Package config handles configuration for the scanvault server: defaults,
// an optional JSON file, a .env file plus SCANVAULT_* environment variables
// and finally command-line flags, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal    = "local"
	StorageS3       = "s3"
	StorageSupabase = "supabase"
)

// Config holds runtime settings for the scanvault server.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	DatabaseDriver string
	DatabaseDSN    string

	SecretKey     string
	TokenValidity time.Duration

	StorageBackend  string
	LocalStorageDir string
	PublicBaseURL   string

	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	CORSOrigins   []string
	MaxUploadSize int64
	// AuthRateLimit is the number of register/login requests allowed per
	// client IP and minute; 0 turns the limit off.
	AuthRateLimit int

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates Config with development defaults. The secret key
// in particular must be overridden outside of local development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.ShutdownTimeout = 10 * time.Second
	c.DatabaseDriver = DriverSQLite
	c.DatabaseDSN = "file:scanvault.db"
	c.SecretKey = "dev-secret-change-me"
	c.TokenValidity = 7 * 24 * time.Hour
	c.StorageBackend = StorageLocal
	c.LocalStorageDir = "uploads"
	c.PublicBaseURL = "http://localhost:8080"
	c.S3Region = "us-east-1"
	c.SupabaseBucket = "scans"
	c.CORSOrigins = []string{"*"}
	c.MaxUploadSize = 500 << 20
	c.AuthRateLimit = 20
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	}
	if c.TokenValidity <= 0 {
		errs = append(errs, errors.New("token validity must be positive"))
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("max upload size must be positive"))
	}
	if c.AuthRateLimit < 0 {
		errs = append(errs, errors.New("auth rate limit must not be negative"))
	}

	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseDriver))
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.LocalStorageDir == "" {
			errs = append(errs, errors.New("local storage dir must not be empty"))
		}
	case StorageS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 bucket must not be empty"))
		}
	case StorageSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errs = append(errs, errors.New("supabase url and key are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.StorageBackend))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config from os.Args and the process environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then the JSON file named by -c/-config, then the
// .env file (-env-file or ./.env) and environment, then flags in args.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, args, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
