package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoad_JSONThenFlags(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_url":      "https://json.example.com",
		"request_timeout": "1d",
	})

	cfg, err := Load([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "https://json.example.com", cfg.ServerURL)
	assert.Equal(t, 24*time.Hour, cfg.RequestTimeout)

	cfg, err = Load([]string{"-c", path, "-a", "http://flag.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example.com", cfg.ServerURL)
	assert.Equal(t, 24*time.Hour, cfg.RequestTimeout)
}

func TestLoad_JSONPartialKeepsDefaults(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"server_url": "http://only-url"})

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "http://only-url", cfg.ServerURL)
	assert.Equal(t, 10*time.Minute, cfg.RequestTimeout)
}

func TestLoad_JSONErrors(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not json`), 0o600))
	_, err = Load([]string{"-c", bad})
	assert.ErrorContains(t, err, "parse config")
}
