// Package config loads novelpub settings from an optional YAML file and
// NOVELPUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

// MaxFileSize limits the config file size (1 MB).
const MaxFileSize = 1 << 20

// Config holds all settings of the novelpub command.
type Config struct {
	CacheDir     string `yaml:"cacheDir"`     // Book cache directory
	NoCache      bool   `yaml:"noCache"`      // Ignore cached books (still refreshes the cache)
	OutputDir    string `yaml:"outputDir"`    // Where <slug>.epub is written
	Language     string `yaml:"language"`     // dc:language, BCP 47
	UserAgent    string `yaml:"userAgent"`    // Sent with every request
	MaxRedirects int    `yaml:"maxRedirects"` // Per request
	MaxRetries   int    `yaml:"maxRetries"`   // Transient failures only
	Concurrency  int    `yaml:"concurrency"`  // Chapter pages fetched at once
	Timeout      string `yaml:"timeout"`      // Per request, Go duration syntax
}

// Default returns the built-in settings.
func Default() *Config {
	cacheDir := "cache"
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "novelpub")
	}
	return &Config{
		CacheDir:     cacheDir,
		OutputDir:    "epub",
		Language:     "en",
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		MaxRedirects: 10,
		MaxRetries:   3,
		Concurrency:  4,
		Timeout:      "30s",
	}
}

// Load returns Default overlaid with the YAML file at path (skipped when
// path is empty) and then with environment overrides, validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrConfigParse, path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	return nil
}

// applyEnv overrides fields from NOVELPUB_* variables. Unparseable numbers
// and booleans are ignored.
func (c *Config) applyEnv(getenv func(string) string) {
	envString(getenv, "NOVELPUB_CACHE_DIR", &c.CacheDir)
	envBool(getenv, "NOVELPUB_NO_CACHE", &c.NoCache)
	envString(getenv, "NOVELPUB_OUTPUT_DIR", &c.OutputDir)
	envString(getenv, "NOVELPUB_LANGUAGE", &c.Language)
	envString(getenv, "NOVELPUB_USER_AGENT", &c.UserAgent)
	envInt(getenv, "NOVELPUB_MAX_REDIRECTS", &c.MaxRedirects)
	envInt(getenv, "NOVELPUB_MAX_RETRIES", &c.MaxRetries)
	envInt(getenv, "NOVELPUB_CONCURRENCY", &c.Concurrency)
	envString(getenv, "NOVELPUB_TIMEOUT", &c.Timeout)
}

// Validate checks ranges and the timeout syntax.
func (c *Config) Validate() error {
	if c.CacheDir == "" && !c.NoCache {
		return fmt.Errorf("%w: cacheDir: required unless noCache is set", ErrInvalidConfig)
	}
	if c.Language == "" {
		return fmt.Errorf("%w: language: required", ErrInvalidConfig)
	}
	if c.MaxRedirects < 1 || c.MaxRedirects > 50 {
		return fmt.Errorf("%w: maxRedirects: must be between 1 and 50, got %d", ErrInvalidConfig, c.MaxRedirects)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("%w: maxRetries: must be between 0 and 10, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	if c.Concurrency < 1 || c.Concurrency > 32 {
		return fmt.Errorf("%w: concurrency: must be between 1 and 32, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses Timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: timeout: %q is not a positive duration", ErrInvalidConfig, c.Timeout)
	}
	return d, nil
}

func envString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func envInt(getenv func(string) string, key string, dst *int) {
	if v := getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(getenv func(string) string, key string, dst *bool) {
	if v := getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
