package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/scanvault/internal/flagx"
	"github.com/dmitrijs2005/scanvault/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "7d" and integer nanoseconds are accepted. Zero values leave the
// current setting untouched.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`

	DatabaseDriver string `json:"database_driver"`
	DatabaseDSN    string `json:"database_dsn"`

	SecretKey     string         `json:"secret_key"`
	TokenValidity timex.Duration `json:"token_validity"`

	StorageBackend  string `json:"storage_backend"`
	LocalStorageDir string `json:"local_storage_dir"`
	PublicBaseURL   string `json:"public_base_url"`

	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`

	SupabaseURL    string `json:"supabase_url"`
	SupabaseKey    string `json:"supabase_key"`
	SupabaseBucket string `json:"supabase_bucket"`

	CORSOrigins   []string `json:"cors_origins"`
	MaxUploadSize int64    `json:"max_upload_size"`
	AuthRateLimit *int     `json:"auth_rate_limit"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

func parseJSON(config *Config, args []string) error {
	path := flagx.JSONConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenValidity, c.TokenValidity)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.LocalStorageDir, c.LocalStorageDir)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3Endpoint, c.S3Endpoint)
	setString(&config.SupabaseURL, c.SupabaseURL)
	setString(&config.SupabaseKey, c.SupabaseKey)
	setString(&config.SupabaseBucket, c.SupabaseBucket)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
