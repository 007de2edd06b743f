package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.7, cfg.ValidationThreshold)
	assert.Equal(t, 0.3, cfg.SearchThreshold)
	assert.Equal(t, 5, cfg.SuggestionLimit)
	assert.Equal(t, 10, cfg.SearchTop)
	assert.Equal(t, "last", cfg.CollisionPolicy)
	assert.True(t, cfg.Enhanced)
}

func TestLoad_MissingDefaultsAreFine(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(Options{File: filepath.Join(dir, "none.yaml"), LookupEnv: noEnv})
	assert.Error(t, err)

	_, err = Load(Options{
		File:      writeFile(t, dir, "c.yaml", ""),
		EnvFile:   filepath.Join(dir, "none.env"),
		LookupEnv: noEnv,
	})
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "vastep.yaml", `
library: from-yaml.json
search_top: 20
suggestion_limit: 3
enhanced: false
watch_debounce: 2s
`)
	envFile := writeFile(t, dir, "test.env", "VASTEP_SEARCH_TOP=30\nVASTEP_LOG_LEVEL=debug\n")
	env := envMap(map[string]string{
		"VASTEP_LOG_LEVEL":       "warn",
		"VASTEP_METRICS_BACKEND": "sqlite",
	})

	cfg, err := Load(Options{File: file, EnvFile: envFile, LookupEnv: env})
	require.NoError(t, err)

	assert.Equal(t, "from-yaml.json", cfg.Library)
	assert.Equal(t, 3, cfg.SuggestionLimit)
	assert.False(t, cfg.Enhanced)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce)
	assert.Equal(t, 30, cfg.SearchTop, ".env overrides YAML")
	assert.Equal(t, "warn", cfg.LogLevel, "environment overrides .env")
	assert.Equal(t, "sqlite", cfg.MetricsBackend)
	assert.Equal(t, 0.7, cfg.ValidationThreshold, "default kept")
	require.NoError(t, cfg.Validate())
}

func TestLoad_UnknownYAMLKey(t *testing.T) {
	file := writeFile(t, t.TempDir(), "vastep.yaml", "libary: typo.json\n")
	_, err := Load(Options{File: file, LookupEnv: noEnv})
	assert.ErrorContains(t, err, "libary")
}

func TestLoad_BadEnvValues(t *testing.T) {
	t.Chdir(t.TempDir())
	env := envMap(map[string]string{
		"VASTEP_SEARCH_TOP": "many",
		"VASTEP_WATCH":      "maybe",
	})
	_, err := Load(Options{LookupEnv: env})
	require.Error(t, err)
	assert.ErrorContains(t, err, "VASTEP_SEARCH_TOP")
	assert.ErrorContains(t, err, "VASTEP_WATCH")
}

func TestLoad_EnvParsesTypedValues(t *testing.T) {
	t.Chdir(t.TempDir())
	env := envMap(map[string]string{
		"VASTEP_VALIDATION_THRESHOLD": "0.85",
		"VASTEP_ENHANCED":             "false",
		"VASTEP_WATCH":                "true",
		"VASTEP_WATCH_DEBOUNCE":       "250ms",
		"VASTEP_COLLISION_POLICY":     "reject",
	})
	cfg, err := Load(Options{LookupEnv: env})
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.ValidationThreshold)
	assert.False(t, cfg.Enhanced)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "reject", cfg.CollisionPolicy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"threshold above one", func(c *Config) { c.ValidationThreshold = 1.5 }, "ValidationThreshold"},
		{"negative search threshold", func(c *Config) { c.SearchThreshold = -0.1 }, "SearchThreshold"},
		{"zero top", func(c *Config) { c.SearchTop = 0 }, "SearchTop"},
		{"zero limit", func(c *Config) { c.SuggestionLimit = 0 }, "SuggestionLimit"},
		{"policy", func(c *Config) { c.CollisionPolicy = "newest" }, "CollisionPolicy"},
		{"backend", func(c *Config) { c.MetricsBackend = "csv" }, "MetricsBackend"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "LogLevel"},
		{"library", func(c *Config) { c.Library = "" }, "Library"},
		{"listen", func(c *Config) { c.Listen = "not an address" }, "Listen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	cfg := Default()
	cfg.SearchTop = 0
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SearchTop")
	assert.Contains(t, err.Error(), "LogLevel")
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	} {
		assert.Equal(t, want, Config{LogLevel: in}.SlogLevel(), in)
	}
}
