package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigFile string
	EnvFile    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vastep CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vastep",
		Short: "vastep - Vanessa Automation step resolver",
		Long: `Resolve Vanessa Automation steps against a step library.

vastep validates .feature scenarios, searches the library, inspects
canonical forms, builds search indexes, analyzes recorded metrics and
serves the resolver over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default vastep.yaml if present)")
	pf.StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default .env if present)")
	pf.StringP("library", "l", "", "step library file (.json, .yaml)")
	pf.String("index-dir", "", "directory of precomputed index artifacts")
	pf.String("collision-policy", "", "canonical collision policy (first|last|reject)")
	pf.String("metrics-path", "", "metrics log to record to and analyze")
	pf.String("metrics-backend", "", "metrics storage (jsonl|sqlite)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewCanonCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewMetricsCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}
