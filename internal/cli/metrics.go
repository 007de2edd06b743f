package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nikolay-Shirokov/va-ai/internal/metrics"
)

// NewMetricsCommand creates the metrics command.
func NewMetricsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Analyze the validation metrics log",
		Long: `Summarize the metrics log written by validate: event type distribution,
the most frequent unmatched steps and the suggestions with the lowest
semantic confidence.

Example:
  vastep metrics --metrics-path data/metrics.jsonl
  vastep metrics --metrics-backend sqlite --metrics-path data/metrics.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(rootOpts, cmd)
		},
	}
	return cmd
}

func runMetrics(opts *RootOptions, cmd *cobra.Command) error {
	e, err := setup(opts, cmd)
	if err != nil {
		return err
	}
	if e.cfg.MetricsPath == "" {
		return e.out.fail(ExitCommandError, ErrCodeConfig, "no metrics path configured (use --metrics-path)", nil)
	}
	if _, err := os.Stat(e.cfg.MetricsPath); errors.Is(err, fs.ErrNotExist) {
		return e.out.fail(ExitCommandError, ErrCodeNotFound, "metrics log not found: "+e.cfg.MetricsPath, err)
	}

	backend, err := metrics.ParseBackend(e.cfg.MetricsBackend)
	if err != nil {
		return e.out.fail(ExitCommandError, ErrCodeConfig, "invalid metrics backend", err)
	}
	events, err := metrics.ReadEvents(cmd.Context(), backend, e.cfg.MetricsPath)
	if err != nil {
		return e.out.fail(ExitCommandError, ErrCodeParse, "failed to read metrics", err)
	}

	analysis := metrics.Analyze(events)
	if e.out.JSON() {
		return e.out.Success(analysis)
	}
	return metrics.WriteReport(cmd.OutOrStdout(), analysis)
}
