package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Nikolay-Shirokov/va-ai/internal/config"
	"github.com/Nikolay-Shirokov/va-ai/internal/index"
	"github.com/Nikolay-Shirokov/va-ai/internal/library"
	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
)

// env is what every command needs once flags are parsed: the effective
// configuration, a logger and an output formatter.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	out    *OutputFormatter
}

// flagOverride applies a changed command-line flag to the configuration.
type flagOverride func(flags *pflag.FlagSet, cfg *config.Config)

func stringFlag(name string, dst func(*config.Config) *string) flagOverride {
	return func(flags *pflag.FlagSet, cfg *config.Config) {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst(cfg) = v
		}
	}
}

func floatFlag(name string, dst func(*config.Config) *float64) flagOverride {
	return func(flags *pflag.FlagSet, cfg *config.Config) {
		if flags.Changed(name) {
			v, _ := flags.GetFloat64(name)
			*dst(cfg) = v
		}
	}
}

func intFlag(name string, dst func(*config.Config) *int) flagOverride {
	return func(flags *pflag.FlagSet, cfg *config.Config) {
		if flags.Changed(name) {
			v, _ := flags.GetInt(name)
			*dst(cfg) = v
		}
	}
}

func boolFlag(name string, dst func(*config.Config) *bool) flagOverride {
	return func(flags *pflag.FlagSet, cfg *config.Config) {
		if flags.Changed(name) {
			v, _ := flags.GetBool(name)
			*dst(cfg) = v
		}
	}
}

func durationFlag(name string, dst func(*config.Config) *time.Duration) flagOverride {
	return func(flags *pflag.FlagSet, cfg *config.Config) {
		if flags.Changed(name) {
			v, _ := flags.GetDuration(name)
			*dst(cfg) = v
		}
	}
}

var globalOverrides = []flagOverride{
	stringFlag("library", func(c *config.Config) *string { return &c.Library }),
	stringFlag("index-dir", func(c *config.Config) *string { return &c.IndexDir }),
	stringFlag("collision-policy", func(c *config.Config) *string { return &c.CollisionPolicy }),
	stringFlag("metrics-path", func(c *config.Config) *string { return &c.MetricsPath }),
	stringFlag("metrics-backend", func(c *config.Config) *string { return &c.MetricsBackend }),
	stringFlag("log-level", func(c *config.Config) *string { return &c.LogLevel }),
}

// setup loads and validates the configuration, applies flags and installs
// the default logger. Errors are already reported through the formatter.
func setup(opts *RootOptions, cmd *cobra.Command, overrides ...flagOverride) (*env, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(config.Options{File: opts.ConfigFile, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, out.fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	flags := cmd.Flags()
	for _, o := range slices.Concat(globalOverrides, overrides) {
		o(flags, &cfg)
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, out.fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &env{cfg: cfg, logger: logger, out: out}, nil
}

// loadLibrary loads the configured library. Errors are reported through the
// formatter with the code matching the load failure.
func (e *env) loadLibrary() (*library.Library, error) {
	lib, err := e.libraryLoader()()
	if err != nil {
		return nil, e.out.fail(ExitCommandError, libraryErrorCode(err), "failed to load step library", err)
	}
	return lib, nil
}

// libraryLoader returns a function that loads the configured library.
func (e *env) libraryLoader() func() (*library.Library, error) {
	return func() (*library.Library, error) {
		policy, err := library.ParseCollisionPolicy(e.cfg.CollisionPolicy)
		if err != nil {
			return nil, err
		}
		return library.Load(e.cfg.Library,
			library.WithCollisionPolicy(policy),
			library.WithLogger(e.logger),
		)
	}
}

func libraryErrorCode(err error) string {
	switch {
	case library.IsNotFound(err):
		return ErrCodeNotFound
	case library.IsParseError(err):
		return ErrCodeParse
	case library.IsFormatError(err):
		return ErrCodeFormat
	case library.IsCollisionError(err):
		return ErrCodeCollision
	default:
		return ErrCodeGeneric
	}
}

// resolverOptions returns the resolver configuration for lib, including the
// category index from the index directory when it matches lib.
func (e *env) resolverOptions(lib *library.Library) []resolve.Option {
	mode := resolve.ModeBasic
	if e.cfg.Enhanced {
		mode = resolve.ModeEnhanced
	}
	opts := []resolve.Option{
		resolve.WithMode(mode),
		resolve.WithValidation(e.cfg.ValidationThreshold, e.cfg.SuggestionLimit),
		resolve.WithLogger(e.logger),
	}

	if e.cfg.IndexDir == "" {
		return opts
	}
	cats, err := index.LoadCategories(e.cfg.IndexDir, lib)
	switch {
	case err == nil:
		e.logger.Debug("using category index", "dir", e.cfg.IndexDir, "keys", len(cats))
		opts = append(opts, resolve.WithCategoryIndex(cats))
	case errors.Is(err, fs.ErrNotExist):
		e.logger.Debug("no category index", "dir", e.cfg.IndexDir)
	default:
		e.logger.Warn("ignoring category index", "dir", e.cfg.IndexDir, "error", err)
	}
	return opts
}

func (e *env) newResolver(lib *library.Library) *resolve.Resolver {
	return resolve.New(lib, e.resolverOptions(lib)...)
}

// searchOptions returns the configured search defaults.
func (e *env) searchOptions() resolve.SearchOptions {
	return resolve.SearchOptions{
		TopN:      e.cfg.SearchTop,
		Threshold: e.cfg.SearchThreshold,
	}
}
