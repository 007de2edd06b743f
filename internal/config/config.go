// Package config loads vastep configuration.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, a .env
// file, VASTEP_* environment variables. Command-line flags are applied on top
// by the caller, which then calls Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default file names looked up in the working directory.
const (
	DefaultFile    = "vastep.yaml"
	DefaultEnvFile = ".env"
	EnvPrefix      = "VASTEP_"
)

// Config is the complete runtime configuration.
type Config struct {
	Library         string `yaml:"library" validate:"required"`
	IndexDir        string `yaml:"index_dir"`
	CollisionPolicy string `yaml:"collision_policy" validate:"oneof=first last reject"`

	// MetricsPath enables event recording when set.
	MetricsPath    string `yaml:"metrics_path"`
	MetricsBackend string `yaml:"metrics_backend" validate:"oneof=jsonl sqlite"`

	ValidationThreshold float64 `yaml:"validation_threshold" validate:"gte=0,lte=1"`
	SuggestionLimit     int     `yaml:"suggestion_limit" validate:"gte=1"`
	SearchThreshold     float64 `yaml:"search_threshold" validate:"gte=0,lte=1"`
	SearchTop           int     `yaml:"search_top" validate:"gte=1"`
	Enhanced            bool    `yaml:"enhanced"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Listen        string        `yaml:"listen" validate:"required,hostname_port"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Library:             "data/library-full.json",
		IndexDir:            "data/indexes",
		CollisionPolicy:     "last",
		MetricsBackend:      "jsonl",
		ValidationThreshold: 0.7,
		SuggestionLimit:     5,
		SearchThreshold:     0.3,
		SearchTop:           10,
		Enhanced:            true,
		LogLevel:            "info",
		Listen:              "127.0.0.1:8080",
		WatchDebounce:       500 * time.Millisecond,
	}
}

// Options selects the configuration sources.
type Options struct {
	// File is the YAML file. Empty means DefaultFile, which may be absent;
	// an explicit file must exist.
	File string

	// EnvFile is the dotenv file. Empty means DefaultEnvFile, which may be
	// absent; an explicit file must exist.
	EnvFile string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration from defaults, file and environment. The
// result is not validated.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if err := loadFile(&cfg, opts.File); err != nil {
		return Config{}, err
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return Config{}, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return Decode(cfg, data)
}

// Decode overlays YAML data onto cfg. Unknown keys are rejected.
func Decode(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

func applyEnv(cfg *Config, env func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := env(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	parsed := func(name string, parse func(string) error) {
		if v, ok := env(EnvPrefix + name); ok {
			if err := parse(strings.TrimSpace(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}
	float := func(dst *float64) func(string) error {
		return func(s string) (err error) {
			*dst, err = strconv.ParseFloat(s, 64)
			return err
		}
	}
	integer := func(dst *int) func(string) error {
		return func(s string) (err error) {
			*dst, err = strconv.Atoi(s)
			return err
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(s string) (err error) {
			*dst, err = strconv.ParseBool(s)
			return err
		}
	}

	str("LIBRARY", &cfg.Library)
	str("INDEX_DIR", &cfg.IndexDir)
	str("COLLISION_POLICY", &cfg.CollisionPolicy)
	str("METRICS_PATH", &cfg.MetricsPath)
	str("METRICS_BACKEND", &cfg.MetricsBackend)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LISTEN", &cfg.Listen)
	parsed("VALIDATION_THRESHOLD", float(&cfg.ValidationThreshold))
	parsed("SEARCH_THRESHOLD", float(&cfg.SearchThreshold))
	parsed("SUGGESTION_LIMIT", integer(&cfg.SuggestionLimit))
	parsed("SEARCH_TOP", integer(&cfg.SearchTop))
	parsed("ENHANCED", boolean(&cfg.Enhanced))
	parsed("WATCH", boolean(&cfg.Watch))
	parsed("WATCH_DEBOUNCE", func(s string) (err error) {
		cfg.WatchDebounce, err = time.ParseDuration(s)
		return err
	})

	return errors.Join(errs...)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all violations.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s: failed %q (%s)", fe.Field(), fe.Tag(), fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
