package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/scanvault/internal/flagx"
	"github.com/dmitrijs2005/scanvault/internal/timex"
)

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "SCANVAULT_"

// parseEnv loads the .env file (if any) into the process environment and
// then overlays SCANVAULT_* variables. Variables already present in the
// environment win over the file, as godotenv never overrides them.
func parseEnv(config *Config, args []string, lookup func(string) (string, bool)) error {
	if err := loadEnvFile(flagx.EnvFilePath(args)); err != nil {
		return err
	}

	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	strs := map[string]*string{
		"HTTP_ADDR":         &config.HTTPAddr,
		"DATABASE_DRIVER":   &config.DatabaseDriver,
		"DATABASE_DSN":      &config.DatabaseDSN,
		"SECRET_KEY":        &config.SecretKey,
		"STORAGE_BACKEND":   &config.StorageBackend,
		"LOCAL_STORAGE_DIR": &config.LocalStorageDir,
		"PUBLIC_BASE_URL":   &config.PublicBaseURL,
		"S3_ACCESS_KEY":     &config.S3AccessKey,
		"S3_SECRET_KEY":     &config.S3SecretKey,
		"S3_BUCKET":         &config.S3Bucket,
		"S3_REGION":         &config.S3Region,
		"S3_ENDPOINT":       &config.S3Endpoint,
		"SUPABASE_URL":      &config.SupabaseURL,
		"SUPABASE_KEY":      &config.SupabaseKey,
		"SUPABASE_BUCKET":   &config.SupabaseBucket,
		"LOG_LEVEL":         &config.LogLevel,
		"LOG_FORMAT":        &config.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	if v, ok := get("TOKEN_VALIDITY"); ok {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTOKEN_VALIDITY: %w", EnvPrefix, err)
		}
		config.TokenValidity = d
	}

	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		config.ShutdownTimeout = d
	}

	if v, ok := get("MAX_UPLOAD_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_SIZE: %w", EnvPrefix, err)
		}
		config.MaxUploadSize = n
	}

	if v, ok := get("AUTH_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sAUTH_RATE_LIMIT: %w", EnvPrefix, err)
		}
		config.AuthRateLimit = n
	}

	if v, ok := get("CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}

	return nil
}

// loadEnvFile loads path, or ./.env when path is empty. A missing default
// file is fine; a missing explicit one is not.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
