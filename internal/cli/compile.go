package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/grackle/internal/intern"
	"github.com/roach88/grackle/internal/ir"
	"github.com/roach88/grackle/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Cache  string // cache database path
	Config string // YAML build config path
}

// GrammarSummary describes one compiled grammar in command output.
type GrammarSummary struct {
	Path         string `json:"path"`
	Hash         string `json:"hash"`
	Prefix       string `json:"prefix"`
	Algorithm    string `json:"algorithm"`
	Terminals    int    `json:"terminals"`
	Nonterminals int    `json:"nonterminals"`
	Productions  int    `json:"productions"`
	ActionFns    int    `json:"action_fns"`
	Cached       bool   `json:"cached,omitempty"` // true when this run inserted the cache entry
}

// irOutput is the on-disk shape written by --output.
type irOutput struct {
	Hash      string          `json:"hash"`
	Prefix    string          `json:"prefix"`
	Algorithm string          `json:"algorithm"`
	IRVersion string          `json:"ir_version"`
	Grammar   json.RawMessage `json:"grammar"` // RFC 8785 canonical JSON
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <grammar.cue | dir>",
		Short: "Compile grammar definitions to normalized IR",
		Long: `Compile CUE grammar definitions into the normalized intermediate
representation used for LR table construction.

Definitions are parsed, normalized (action deduplication, start-nonterminal
augmentation, type registration) and validated. With --output the canonical
IR is written as JSON; with --cache each grammar is recorded in the
compiled-grammar cache keyed by its content hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path for canonical IR")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "compiled-grammar cache database path")
	cmd.Flags().StringVar(&opts.Config, "config", "", "YAML build config path")

	return cmd
}

func runCompile(opts *CompileOptions, target string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg := &BuildConfig{}
	if opts.Config != "" {
		loaded, err := LoadBuildConfig(opts.Config)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error())
		}
		cfg = loaded
	}
	if opts.Output == "" {
		opts.Output = cfg.Output
	}
	if opts.Cache == "" {
		opts.Cache = cfg.Cache
	}

	tab := intern.NewTable()
	loadResult, loadErrors := LoadGrammars(tab, target, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadErrors(formatter, loadErrors)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, target)

	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, loadErrors)
	}

	// Config overrides change the normalized grammar, so hashes must be
	// recomputed afterwards.
	for i := range loadResult.Grammars {
		lg := &loadResult.Grammars[i]
		cfg.Apply(lg.Grammar)
		hash, err := ir.GrammarHash(lg.Grammar)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error())
		}
		lg.Hash = hash
		formatter.VerboseLog("Compiled %s (%s)", lg.Path, hash[:12])
	}

	summaries := make([]GrammarSummary, len(loadResult.Grammars))
	for i, lg := range loadResult.Grammars {
		summaries[i] = summarize(lg)
	}

	if opts.Cache != "" {
		if err := cacheGrammars(formatter, opts.Cache, loadResult.Grammars, summaries); err != nil {
			return err
		}
	}

	if opts.Output != "" {
		if err := writeIRToFile(loadResult.Grammars, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, summaries, opts.Output)
}

func summarize(lg LoadedGrammar) GrammarSummary {
	g := lg.Grammar
	productions := 0
	for _, data := range g.Nonterminals {
		productions += len(data.Productions)
	}
	return GrammarSummary{
		Path:         lg.Path,
		Hash:         lg.Hash,
		Prefix:       g.Prefix,
		Algorithm:    g.Algorithm.String(),
		Terminals:    len(g.Conversions),
		Nonterminals: len(g.Nonterminals),
		Productions:  productions,
		ActionFns:    len(g.ActionFnDefns),
	}
}

// cacheGrammars records each compiled grammar in the cache, marking the
// summaries that correspond to fresh inserts.
func cacheGrammars(formatter *OutputFormatter, path string, grammars []LoadedGrammar, summaries []GrammarSummary) error {
	s, err := store.Open(path)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCacheFailed, fmt.Sprintf("opening cache: %v", err))
	}
	defer s.Close()

	ctx := context.Background()
	for i, lg := range grammars {
		rec, err := store.NewRecord(lg.Grammar, lg.Path)
		if err != nil {
			return outputCommandError(formatter, ErrCodeCacheFailed, fmt.Sprintf("recording %s: %v", lg.Path, err))
		}
		inserted, err := s.Put(ctx, rec)
		if err != nil {
			return outputCommandError(formatter, ErrCodeCacheFailed, fmt.Sprintf("caching %s: %v", lg.Path, err))
		}
		summaries[i].Cached = inserted
		if inserted {
			formatter.VerboseLog("Cached %s as %s", lg.Path, rec.Hash[:12])
		} else {
			formatter.VerboseLog("Cache hit for %s, skipping", lg.Path)
		}
	}
	return nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, summaries []GrammarSummary, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d grammar(s)\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "  %s (%s, prefix %q)\n", s.Path, s.Algorithm, s.Prefix)
		fmt.Fprintf(formatter.Writer, "    hash: %s\n", s.Hash)
		fmt.Fprintf(formatter.Writer, "    %d terminal(s), %d nonterminal(s), %d production(s), %d action fn(s)\n",
			s.Terminals, s.Nonterminals, s.Productions, s.ActionFns)
		if s.Cached {
			fmt.Fprintln(formatter.Writer, "    cached")
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote canonical IR to %s\n", outputFile)
	}

	return nil
}

// outputCommandError outputs a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputLoadErrors outputs grammar loading/compilation errors.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes the compiled grammars to a file as indented JSON.
// The embedded grammar payload stays in canonical form; indentation applies
// only to the envelope.
func writeIRToFile(grammars []LoadedGrammar, filename string) error {
	outputs := make([]irOutput, len(grammars))
	for i, lg := range grammars {
		canonical, err := ir.CanonicalJSON(lg.Grammar)
		if err != nil {
			return fmt.Errorf("marshaling IR: %w", err)
		}
		outputs[i] = irOutput{
			Hash:      lg.Hash,
			Prefix:    lg.Grammar.Prefix,
			Algorithm: lg.Grammar.Algorithm.String(),
			IRVersion: ir.IRVersion,
			Grammar:   canonical,
		}
	}

	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
