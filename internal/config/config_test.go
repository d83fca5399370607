package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "novelpub.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 4, cfg.Concurrency)

	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestMergeFile(t *testing.T) {
	p := writeConfig(t, `
cacheDir: /tmp/novelpub-cache
outputDir: books
language: de
concurrency: 8
timeout: 1m
`)
	cfg := Default()
	require.NoError(t, cfg.mergeFile(p))

	assert.Equal(t, "/tmp/novelpub-cache", cfg.CacheDir)
	assert.Equal(t, "books", cfg.OutputDir)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 3, cfg.MaxRetries, "unset fields keep defaults")
	assert.Equal(t, "1m", cfg.Timeout)
}

func TestMergeFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"unknown field", "cacheDir: x\nbogus: 1\n", ErrConfigParse},
		{"wrong type", "concurrency: lots\n", ErrConfigParse},
		{"too large", "# " + strings.Repeat("x", MaxFileSize) + "\n", ErrConfigParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default().mergeFile(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMergeFile_EmptyFile(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.mergeFile(writeConfig(t, "")))
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "language: de\nconcurrency: 2\n")
	t.Setenv("NOVELPUB_LANGUAGE", "fr")
	t.Setenv("NOVELPUB_CONCURRENCY", "")
	t.Setenv("NOVELPUB_NO_CACHE", "true")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Language)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.True(t, cfg.NoCache)
}

func TestLoad_InvalidAfterEnv(t *testing.T) {
	t.Setenv("NOVELPUB_MAX_REDIRECTS", "0")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(envMap(map[string]string{
		"NOVELPUB_CACHE_DIR":     "/c",
		"NOVELPUB_OUTPUT_DIR":    "/o",
		"NOVELPUB_USER_AGENT":    "ua",
		"NOVELPUB_MAX_REDIRECTS": "5",
		"NOVELPUB_MAX_RETRIES":   "not a number",
		"NOVELPUB_NO_CACHE":      "maybe",
		"NOVELPUB_TIMEOUT":       "10s",
	}))

	assert.Equal(t, "/c", cfg.CacheDir)
	assert.Equal(t, "/o", cfg.OutputDir)
	assert.Equal(t, "ua", cfg.UserAgent)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.Equal(t, 3, cfg.MaxRetries, "unparseable numbers are ignored")
	assert.False(t, cfg.NoCache, "unparseable booleans are ignored")
	assert.Equal(t, "10s", cfg.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no cache dir", func(c *Config) { c.CacheDir = "" }, "cacheDir"},
		{"no language", func(c *Config) { c.Language = "" }, "language"},
		{"redirects too high", func(c *Config) { c.MaxRedirects = 51 }, "maxRedirects"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "maxRetries"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, "timeout"},
		{"negative timeout", func(c *Config) { c.Timeout = "-5s" }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_NoCacheWithoutDir(t *testing.T) {
	cfg := Default()
	cfg.CacheDir = ""
	cfg.NoCache = true
	assert.NoError(t, cfg.Validate())
}
