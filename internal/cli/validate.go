package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grackle/internal/intern"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationSummary describes the validation outcome for one grammar.
type ValidationSummary struct {
	Path  string `json:"path"`
	Hash  string `json:"hash"`
	Valid bool   `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <grammar.cue | dir>",
		Short: "Validate grammar definitions without producing output",
		Long: `Compile grammar definitions and check every IR invariant: start
nonterminals resolve and augment correctly, every production symbol
resolves, every action handle indexes the action table, and every
nonterminal has a registered type.

No files are written; the exit code reports the outcome.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, target string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	tab := intern.NewTable()
	loadResult, loadErrors := LoadGrammars(tab, target, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadErrors(formatter, loadErrors)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, target)

	// Compilation runs Validate before returning, so any definition that
	// loaded is already invariant-clean; definitions with violations show
	// up in loadErrors with their diagnostics.
	if len(loadErrors) > 0 {
		_ = outputLoadErrors(formatter, loadErrors)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(loadErrors)))
	}

	summaries := make([]ValidationSummary, len(loadResult.Grammars))
	for i, lg := range loadResult.Grammars {
		summaries[i] = ValidationSummary{Path: lg.Path, Hash: lg.Hash, Valid: true}
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d grammar(s) valid\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", s.Path, s.Hash)
	}
	return nil
}
