package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nikolay-Shirokov/va-ai/internal/canon"
	"github.com/Nikolay-Shirokov/va-ai/internal/stepparse"
)

// CanonEntry describes one inspected step.
type CanonEntry struct {
	Step      string               `json:"step"`
	Canonical string               `json:"canonical"`
	Features  stepparse.ParsedStep `json:"features"`
}

// NewCanonCommand creates the canon command.
func NewCanonCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canon <step>...",
		Short: "Print canonical forms and parsed features of steps",
		Long: `Print the canonical form of each step together with the features the
semantic comparison sees: action, UI element, context and parameters.

No library is needed.

Example:
  vastep canon 'И я нажимаю кнопку "Записать"'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanon(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCanon(opts *RootOptions, steps []string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	entries := make([]CanonEntry, 0, len(steps))
	for _, step := range steps {
		entries = append(entries, CanonEntry{
			Step:      step,
			Canonical: canon.Canonicalize(step),
			Features:  stepparse.Parse(step),
		})
	}

	if out.JSON() {
		return out.Success(entries)
	}

	w := cmd.OutOrStdout()
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", e.Step)
		fmt.Fprintf(w, "  canonical: %s\n", e.Canonical)
		fmt.Fprintf(w, "  action:    %s\n", orDash(e.Features.Action))
		fmt.Fprintf(w, "  element:   %s\n", orDash(e.Features.Element))
		fmt.Fprintf(w, "  context:   %s\n", orDash(e.Features.Context))
		fmt.Fprintf(w, "  params:    %s\n", orDash(strings.Join(e.Features.Params, ", ")))
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
