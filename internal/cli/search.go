package cli

import (
	"github.com/spf13/cobra"

	"github.com/Nikolay-Shirokov/va-ai/internal/config"
	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Queries     []string
	Category    string
	Subcategory string
}

// SearchOutput is the single-query search payload.
type SearchOutput struct {
	Query   string                 `json:"query"`
	Found   int                    `json:"found"`
	Results []resolve.SearchResult `json:"results"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [query]...",
		Short: "Search the step library by free text",
		Long: `Search the step library for templates similar to free-text queries.

One query prints {query, found, results}; several queries are searched
concurrently and print {total_queries, total_results, results}.
Queries come from --query flags and positional arguments.

Example:
  vastep search --query "нажать кнопку создать" --top 5
  vastep search --query "открыть" --query "закрыть" --category UI`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Queries, "query", "q", nil, "search query (repeatable)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "restrict to a category, e.g. UI")
	cmd.Flags().StringVar(&opts.Subcategory, "subcategory", "", "restrict to a subcategory of --category")
	cmd.Flags().Int("top", 0, "results per query (default 10)")
	cmd.Flags().Float64("threshold", 0, "minimum relevance, exclusive (default 0.3)")

	return cmd
}

var searchOverrides = []flagOverride{
	intFlag("top", func(c *config.Config) *int { return &c.SearchTop }),
	floatFlag("threshold", func(c *config.Config) *float64 { return &c.SearchThreshold }),
}

func runSearch(opts *SearchOptions, args []string, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd, searchOverrides...)
	if err != nil {
		return err
	}

	queries := append(append([]string(nil), opts.Queries...), args...)
	if len(queries) == 0 {
		return e.out.fail(ExitCommandError, ErrCodeGeneric, "at least one query is required", nil)
	}

	lib, err := e.loadLibrary()
	if err != nil {
		return err
	}
	resolver := e.newResolver(lib)

	sopts := e.searchOptions()
	sopts.Category = opts.Category
	sopts.Subcategory = opts.Subcategory

	var payload any
	if len(queries) == 1 {
		results := resolver.Search(queries[0], sopts)
		payload = SearchOutput{Query: queries[0], Found: len(results), Results: results}
	} else {
		batch, err := resolver.BatchSearch(cmd.Context(), queries, sopts)
		if err != nil {
			return e.out.fail(ExitCommandError, ErrCodeGeneric, "search interrupted", err)
		}
		payload = batch
	}

	if e.out.JSON() {
		return e.out.Success(payload)
	}
	return e.out.Indented(payload)
}
