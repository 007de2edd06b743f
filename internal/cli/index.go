package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nikolay-Shirokov/va-ai/internal/config"
	"github.com/Nikolay-Shirokov/va-ai/internal/index"
	"github.com/Nikolay-Shirokov/va-ai/internal/metrics"
)

// IndexOutput summarizes a built index.
type IndexOutput struct {
	Dir      string         `json:"dir"`
	Metadata index.Metadata `json:"metadata"`
	Tracked  int            `json:"tracked_suggestions"`
}

// IndexedStep is a template referenced by an index.
type IndexedStep struct {
	Position int    `json:"position"`
	Step     string `json:"step"`
	Count    int    `json:"count,omitempty"`
}

// IndexShowOutput describes an existing index.
type IndexShowOutput struct {
	Dir           string         `json:"dir"`
	Metadata      index.Metadata `json:"metadata"`
	Current       bool           `json:"current"`
	MostSuggested []IndexedStep  `json:"most_suggested"`
	Query         string         `json:"query,omitempty"`
	Matches       []IndexedStep  `json:"matches,omitempty"`
}

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Show   bool
	Lookup string
	Top    int
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build search indexes for the step library",
		Long: `Build the keyword, category and frequency indexes for the step library
and write them to the index directory.

Suggestion frequencies are taken from the metrics log when metrics_path
points to an existing log.

With --show the existing index is read instead: its metadata, whether it
still matches the library, the most suggested templates and, with
--lookup, the templates containing every word of a query.

Example:
  vastep index --library data/library-full.json --output data/indexes
  vastep index --show --lookup "нажимаю кнопку" --top 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Show {
				return runIndexShow(opts, cmd)
			}
			return runIndex(opts.RootOptions, cmd)
		},
	}

	cmd.Flags().StringP("output", "o", "", "output directory (default: index_dir)")
	cmd.Flags().BoolVar(&opts.Show, "show", false, "describe the existing index instead of building one")
	cmd.Flags().StringVar(&opts.Lookup, "lookup", "", "with --show, list templates containing every word of a query")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "with --show, number of most suggested templates")

	return cmd
}

var indexOverrides = []flagOverride{
	stringFlag("output", func(c *config.Config) *string { return &c.IndexDir }),
}

func runIndex(opts *RootOptions, cmd *cobra.Command) error {
	e, err := setup(opts, cmd, indexOverrides...)
	if err != nil {
		return err
	}
	if e.cfg.IndexDir == "" {
		return e.out.fail(ExitCommandError, ErrCodeConfig, "no index directory configured", nil)
	}

	lib, err := e.loadLibrary()
	if err != nil {
		return err
	}

	var suggested [][]string
	if e.cfg.MetricsPath != "" {
		suggested, err = e.suggestedFromMetrics(cmd)
		if err != nil {
			return err
		}
	}

	idx := index.Build(lib, e.cfg.Library, suggested, time.Now())
	e.out.VerboseLog("Writing index to %s", e.cfg.IndexDir)
	if err := idx.Write(e.cfg.IndexDir); err != nil {
		return e.out.fail(ExitCommandError, ErrCodeWriteFailed, "failed to write index", err)
	}
	e.logger.Info("index built",
		"dir", e.cfg.IndexDir,
		"steps", idx.Metadata.TotalSteps,
		"keywords", idx.Metadata.TotalKeywords,
		"categories", idx.Metadata.TotalCategories,
	)

	output := IndexOutput{Dir: e.cfg.IndexDir, Metadata: idx.Metadata, Tracked: len(idx.Frequency)}
	if e.out.JSON() {
		return e.out.Success(output)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Index written to %s\n", output.Dir)
	fmt.Fprintf(w, "  steps:      %d\n", output.Metadata.TotalSteps)
	fmt.Fprintf(w, "  keywords:   %d\n", output.Metadata.TotalKeywords)
	fmt.Fprintf(w, "  categories: %d\n", output.Metadata.TotalCategories)
	fmt.Fprintf(w, "  tracked suggestions: %d\n", output.Tracked)
	return nil
}

// suggestedFromMetrics reads suggestion lists from the metrics log. A missing
// log yields no suggestions.
func (e *env) suggestedFromMetrics(cmd *cobra.Command) ([][]string, error) {
	if _, err := os.Stat(e.cfg.MetricsPath); errors.Is(err, fs.ErrNotExist) {
		e.logger.Debug("no metrics log", "path", e.cfg.MetricsPath)
		return nil, nil
	}
	backend, err := metrics.ParseBackend(e.cfg.MetricsBackend)
	if err != nil {
		return nil, e.out.fail(ExitCommandError, ErrCodeConfig, "invalid metrics backend", err)
	}
	events, err := metrics.ReadEvents(cmd.Context(), backend, e.cfg.MetricsPath)
	if err != nil {
		return nil, e.out.fail(ExitCommandError, ErrCodeParse, "failed to read metrics", err)
	}
	return metrics.SuggestedTexts(events), nil
}

func runIndexShow(opts *IndexOptions, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd, indexOverrides...)
	if err != nil {
		return err
	}
	if e.cfg.IndexDir == "" {
		return e.out.fail(ExitCommandError, ErrCodeConfig, "no index directory configured", nil)
	}

	idx, err := index.Load(e.cfg.IndexDir)
	if err != nil {
		code := ErrCodeParse
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return e.out.fail(ExitCommandError, code, "failed to read index", err)
	}
	lib, err := e.loadLibrary()
	if err != nil {
		return err
	}

	output := IndexShowOutput{
		Dir:           e.cfg.IndexDir,
		Metadata:      idx.Metadata,
		Current:       idx.Metadata.LibraryDigest == index.Digest(lib),
		MostSuggested: []IndexedStep{},
		Query:         opts.Lookup,
	}
	if !output.Current {
		e.logger.Warn("index does not match the library; rebuild it with vastep index", "dir", e.cfg.IndexDir)
	}

	steps := func(positions []int, withCount bool) []IndexedStep {
		out := make([]IndexedStep, 0, len(positions))
		for _, pos := range positions {
			if pos < 0 || pos >= lib.Len() {
				continue
			}
			s := IndexedStep{Position: pos, Step: lib.Template(pos).Text}
			if withCount {
				s.Count = idx.Frequency[pos]
			}
			out = append(out, s)
		}
		return out
	}
	output.MostSuggested = steps(idx.MostSuggested(opts.Top), true)
	if opts.Lookup != "" {
		output.Matches = steps(idx.Lookup(opts.Lookup), false)
	}

	if e.out.JSON() {
		return e.out.Success(output)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Index %s (version %s, created %s)\n", output.Dir, output.Metadata.Version, output.Metadata.CreatedAt)
	fmt.Fprintf(w, "  library:    %s\n", output.Metadata.LibraryPath)
	fmt.Fprintf(w, "  steps:      %d\n", output.Metadata.TotalSteps)
	fmt.Fprintf(w, "  keywords:   %d\n", output.Metadata.TotalKeywords)
	fmt.Fprintf(w, "  categories: %d\n", output.Metadata.TotalCategories)
	fmt.Fprintf(w, "  current:    %t\n", output.Current)
	if len(output.MostSuggested) > 0 {
		fmt.Fprintln(w, "\nMost suggested:")
		for _, s := range output.MostSuggested {
			fmt.Fprintf(w, "  (%d) %s\n", s.Count, s.Step)
		}
	}
	if opts.Lookup != "" {
		fmt.Fprintf(w, "\nTemplates matching %q: %d\n", opts.Lookup, len(output.Matches))
		for _, s := range output.Matches {
			fmt.Fprintf(w, "  [%d] %s\n", s.Position, s.Step)
		}
	}
	return nil
}
