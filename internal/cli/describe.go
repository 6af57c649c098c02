package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grackle/internal/intern"
	"github.com/roach88/grackle/internal/store"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Cache string // cache database path; the target is then a content hash
}

// DescribeResult is the JSON payload for describe.
type DescribeResult struct {
	Hash      string `json:"hash"`
	Prefix    string `json:"prefix"`
	Algorithm string `json:"algorithm"`
	Dump      string `json:"dump"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <grammar.cue | hash>",
		Short: "Print the normalized form of a grammar",
		Long: `Print the full normalized rendering of a grammar: terminals with
their patterns and types, nonterminals with their productions, and the
deduplicated action function table.

Without --cache the argument is a CUE grammar file, which is compiled
first. With --cache the argument is a content hash and the rendering
comes from the compiled-grammar cache.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cache, "cache", "", "compiled-grammar cache database path")

	return cmd
}

func runDescribe(opts *DescribeOptions, target string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Cache != "" {
		return describeFromCache(formatter, opts.Cache, target)
	}
	return describeFromFile(formatter, target)
}

func describeFromFile(formatter *OutputFormatter, path string) error {
	tab := intern.NewTable()
	loadResult, loadErrors := LoadGrammars(tab, path, LoadModeFailFast)
	if loadResult == nil || len(loadErrors) > 0 {
		return outputLoadErrors(formatter, loadErrors)
	}
	if len(loadResult.Grammars) != 1 {
		return outputCommandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("describe expects one grammar, found %d", len(loadResult.Grammars)))
	}

	lg := loadResult.Grammars[0]
	return outputDescribe(formatter, DescribeResult{
		Hash:      lg.Hash,
		Prefix:    lg.Grammar.Prefix,
		Algorithm: lg.Grammar.Algorithm.String(),
		Dump:      lg.Grammar.DebugString(),
	})
}

func describeFromCache(formatter *OutputFormatter, cachePath, hash string) error {
	s, err := store.Open(cachePath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCacheFailed, fmt.Sprintf("opening cache: %v", err))
	}
	defer s.Close()

	rec, err := s.Get(context.Background(), hash)
	if errors.Is(err, store.ErrNotFound) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("grammar %s not in cache", hash))
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeCacheFailed, err.Error())
	}

	return outputDescribe(formatter, DescribeResult{
		Hash:      rec.Hash,
		Prefix:    rec.Prefix,
		Algorithm: rec.Algorithm,
		Dump:      rec.Dump,
	})
}

func outputDescribe(formatter *OutputFormatter, result DescribeResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "hash: %s\n\n", result.Hash)
	fmt.Fprint(formatter.Writer, result.Dump)
	return nil
}
