package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nikolay-Shirokov/va-ai/internal/config"
	"github.com/Nikolay-Shirokov/va-ai/internal/metrics"
	"github.com/Nikolay-Shirokov/va-ai/internal/scenario"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	AIFormat bool
}

// ValidateOutput is the JSON payload of the validate command.
type ValidateOutput struct {
	Valid   bool               `json:"valid"`
	Results []*scenario.Result `json:"results"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file.feature>...",
		Short: "Validate scenarios against the step library",
		Long: `Validate Vanessa Automation scenarios against the step library.

Checks file headers, the Функционал block, variable usage and quoting, and
resolves every step of each Сценарий/Контекст block. Steps that are not in
the library are reported with ranked replacement suggestions.

Exits with code 1 when any scenario has errors.

Example:
  vastep validate scenario.feature --library library.json
  vastep validate scenario.feature --ai-format --metrics-path data/metrics.jsonl`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.AIFormat, "ai-format", false, "append recommendations for an AI assistant")
	cmd.Flags().Float64("threshold", 0, "similarity threshold for suggestions (default 0.7)")
	cmd.Flags().Int("limit", 0, "maximum suggestions per step (default 5)")
	cmd.Flags().Bool("enhanced", true, "annotate suggestions with semantic comparison")

	return cmd
}

var validateOverrides = []flagOverride{
	floatFlag("threshold", func(c *config.Config) *float64 { return &c.ValidationThreshold }),
	intFlag("limit", func(c *config.Config) *int { return &c.SuggestionLimit }),
	boolFlag("enhanced", func(c *config.Config) *bool { return &c.Enhanced }),
}

func runValidate(opts *ValidateOptions, files []string, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd, validateOverrides...)
	if err != nil {
		return err
	}
	lib, err := e.loadLibrary()
	if err != nil {
		return err
	}
	e.out.VerboseLog("Loaded %d steps from %s", lib.Len(), e.cfg.Library)

	vopts := []scenario.Option{scenario.WithLogger(e.logger)}
	if e.cfg.MetricsPath != "" {
		rec, err := e.openRecorder()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rec.Close(); cerr != nil {
				e.logger.Error("error closing metrics sink", "error", cerr)
			}
		}()
		vopts = append(vopts, scenario.WithRecorder(rec))
	}
	validator := scenario.New(e.newResolver(lib), vopts...)

	output := ValidateOutput{Valid: true, Results: make([]*scenario.Result, 0, len(files))}
	for _, file := range files {
		e.out.VerboseLog("Validating %s", file)
		res, err := validator.ValidateFile(cmd.Context(), file)
		if err != nil {
			code := ErrCodeNotFound
			if errors.Is(err, scenario.ErrEncoding) {
				code = ErrCodeEncoding
			}
			return e.out.fail(ExitCommandError, code, fmt.Sprintf("cannot validate %s", file), err)
		}
		output.Results = append(output.Results, res)
		if !res.Valid() {
			output.Valid = false
		}
	}

	if e.out.JSON() {
		if output.Valid {
			return e.out.Success(output)
		}
		if err := e.out.Failure(ErrCodeInvalid, "scenario validation failed", output); err != nil {
			return WrapExitError(ExitCommandError, "failed to write validation result", err)
		}
		return NewExitError(ExitFailure, "scenario validation failed")
	}

	w := cmd.OutOrStdout()
	for _, res := range output.Results {
		fmt.Fprintf(w, "Валидация сценария: %s\n", res.File)
		fmt.Fprintf(w, "Библиотека шагов: %s\n\n", e.cfg.Library)
		if err := scenario.WriteReport(w, res, opts.Verbose); err != nil {
			return err
		}
		if opts.AIFormat {
			fmt.Fprintln(w)
			if err := scenario.WriteAIRecommendations(w, res); err != nil {
				return err
			}
		}
		fmt.Fprintln(w)
	}

	if !output.Valid {
		return NewExitError(ExitFailure, "scenario validation failed")
	}
	return nil
}

// openRecorder opens the configured metrics sink.
func (e *env) openRecorder() (*metrics.Recorder, error) {
	backend, err := metrics.ParseBackend(e.cfg.MetricsBackend)
	if err != nil {
		return nil, e.out.fail(ExitCommandError, ErrCodeConfig, "invalid metrics backend", err)
	}
	sink, err := metrics.OpenSink(backend, e.cfg.MetricsPath)
	if err != nil {
		return nil, e.out.fail(ExitCommandError, ErrCodeWriteFailed, "failed to open metrics sink", err)
	}
	return metrics.NewRecorder(sink), nil
}
