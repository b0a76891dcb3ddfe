package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, DriverSQLite, c.DatabaseDriver)
	assert.Equal(t, 7*24*time.Hour, c.TokenValidity)
	assert.Equal(t, StorageLocal, c.StorageBackend)
	assert.Equal(t, "scans", c.SupabaseBucket)
	assert.Equal(t, int64(500<<20), c.MaxUploadSize)
	assert.Equal(t, 20, c.AuthRateLimit)
	assert.NoError(t, c.Validate())
}

func TestLoad_NoSources(t *testing.T) {
	c, err := Load(nil, noEnv)
	require.NoError(t, err)

	if diff := cmp.Diff(defaults(), c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"http_addr":       "127.0.0.1:9000",
		"database_driver": "postgres",
		"database_dsn":    "postgres://u:p@db/scans",
		"secret_key":      "json-secret",
		"token_validity":  "1d",
		"storage_backend": "s3",
		"s3_bucket":       "scans",
		"s3_endpoint":     "http://minio:9000",
		"cors_origins":    []string{"https://app.example"},
		"max_upload_size": 1024,
		"auth_rate_limit": 5,
	})

	c, err := Load([]string{"-c", path}, noEnv)
	require.NoError(t, err)

	want := defaults()
	want.HTTPAddr = "127.0.0.1:9000"
	want.DatabaseDriver = DriverPostgres
	want.DatabaseDSN = "postgres://u:p@db/scans"
	want.SecretKey = "json-secret"
	want.TokenValidity = 24 * time.Hour
	want.StorageBackend = StorageS3
	want.S3Bucket = "scans"
	want.S3Endpoint = "http://minio:9000"
	want.CORSOrigins = []string{"https://app.example"}
	want.MaxUploadSize = 1024
	want.AuthRateLimit = 5

	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_JSONErrors(t *testing.T) {
	_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.json")}, noEnv)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = Load([]string{"-config", bad}, noEnv)
	require.Error(t, err)
}

func TestLoad_EnvOverridesJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"secret_key": "json-secret", "http_addr": ":9000"})

	c, err := Load([]string{"-c", path}, envMap(map[string]string{
		"SCANVAULT_SECRET_KEY":      "env-secret",
		"SCANVAULT_TOKEN_VALIDITY":  "2h",
		"SCANVAULT_MAX_UPLOAD_SIZE": "2048",
		"SCANVAULT_CORS_ORIGINS":    "https://a.example, https://b.example",
		"SCANVAULT_AUTH_RATE_LIMIT": "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.HTTPAddr)
	assert.Equal(t, "env-secret", c.SecretKey)
	assert.Equal(t, 2*time.Hour, c.TokenValidity)
	assert.Equal(t, int64(2048), c.MaxUploadSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, 0, c.AuthRateLimit)
}

func TestLoad_EnvErrors(t *testing.T) {
	_, err := Load(nil, envMap(map[string]string{"SCANVAULT_TOKEN_VALIDITY": "forever"}))
	require.Error(t, err)

	_, err = Load(nil, envMap(map[string]string{"SCANVAULT_MAX_UPLOAD_SIZE": "big"}))
	require.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SCANVAULT_S3_REGION=eu-central-1\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SCANVAULT_S3_REGION") })

	c, err := Load([]string{"-env-file", path}, os.LookupEnv)
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", c.S3Region)

	_, err = Load([]string{"-env-file", filepath.Join(t.TempDir(), "nope.env")}, noEnv)
	require.Error(t, err)
}

func TestLoad_FlagsWin(t *testing.T) {
	c, err := Load([]string{
		"-a", "127.0.0.1:7000",
		"-driver", "postgres",
		"-d", "postgres://x",
		"-s", "flag-secret",
		"-t", "30m",
		"-storage", "supabase",
		"-public-url", "https://cdn.example/",
		"-cors", "https://ui.example",
		"-max-upload", "10",
		"-log-level", "debug",
		"-unknown", "ignored",
	}, envMap(map[string]string{
		"SCANVAULT_SECRET_KEY":   "env-secret",
		"SCANVAULT_SUPABASE_URL": "https://proj.supabase.co",
		"SCANVAULT_SUPABASE_KEY": "service-key",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", c.HTTPAddr)
	assert.Equal(t, DriverPostgres, c.DatabaseDriver)
	assert.Equal(t, "postgres://x", c.DatabaseDSN)
	assert.Equal(t, "flag-secret", c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.TokenValidity)
	assert.Equal(t, StorageSupabase, c.StorageBackend)
	assert.Equal(t, "https://cdn.example", c.PublicBaseURL)
	assert.Equal(t, []string{"https://ui.example"}, c.CORSOrigins)
	assert.Equal(t, int64(10), c.MaxUploadSize)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoad_BadFlagValue(t *testing.T) {
	_, err := Load([]string{"-t", "never"}, noEnv)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty secret", func(c *Config) { c.SecretKey = "" }},
		{"zero validity", func(c *Config) { c.TokenValidity = 0 }},
		{"zero upload", func(c *Config) { c.MaxUploadSize = 0 }},
		{"negative rate limit", func(c *Config) { c.AuthRateLimit = -1 }},
		{"bad driver", func(c *Config) { c.DatabaseDriver = "mysql" }},
		{"bad storage", func(c *Config) { c.StorageBackend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.StorageBackend = StorageS3 }},
		{"supabase without key", func(c *Config) { c.StorageBackend = StorageSupabase; c.SupabaseURL = "https://x" }},
		{"local without dir", func(c *Config) { c.LocalStorageDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
