package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/grackle/internal/compiler"
	"github.com/roach88/grackle/internal/intern"
	"github.com/roach88/grackle/internal/ir"
)

// LoadMode controls how errors are handled during grammar loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedGrammar is one successfully compiled grammar definition.
type LoadedGrammar struct {
	Path    string
	Hash    string
	Grammar *ir.Grammar
}

// LoadResult contains the results of loading grammar definitions.
type LoadResult struct {
	Grammars  []LoadedGrammar
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during grammar loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadGrammars compiles the CUE grammar definitions at target, which may be
// a single .cue file or a directory scanned recursively. All definitions in
// one call share the interning table, so symbol identity holds across them.
//
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadGrammars(tab *intern.Table, target string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("grammar path not found: %s", target)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing grammar path: %v", err)}}
	}

	var cueFiles []string
	if info.IsDir() {
		cueFiles, err = FindCUEFiles(target)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(cueFiles) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", target)}}
		}
	} else {
		if filepath.Ext(target) != ".cue" {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", target)}}
		}
		cueFiles = []string{target}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	var errs []error

	for _, path := range cueFiles {
		g, compileErr := compiler.CompileFile(tab, path)
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, path))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		hash, hashErr := ir.GrammarHash(g)
		if hashErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", path, hashErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Grammars = append(result.Grammars, LoadedGrammar{
			Path:    path,
			Hash:    hash,
			Grammar: g,
		})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths in
// sorted order, so compilation order does not depend on directory layout.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeCacheFailed = "E008" // Cache database error

	// Grammar validation errors
	ErrCodeGrammarName  = "E101" // Missing or invalid grammar name
	ErrCodeAlgorithm    = "E102" // Unsupported table-construction algorithm
	ErrCodeTerminals    = "E103" // Terminal declaration problem
	ErrCodeRules        = "E104" // Rule or production problem
	ErrCodeStart        = "E105" // Start-nonterminal problem
	ErrCodeTypeExpr     = "E106" // Unparseable type expression
	ErrCodeInvariant    = "E107" // Normalized grammar violates IR invariants
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "name":
		return ErrCodeGrammarName
	case field == "algorithm":
		return ErrCodeAlgorithm
	case field == "terminals" || strings.HasPrefix(field, "terminals."):
		return ErrCodeTerminals
	case field == "rules" || strings.HasPrefix(field, "rules."):
		return ErrCodeRules
	case field == "start":
		return ErrCodeStart
	case field == "token" || field == "location" || field == "error" || field == "params":
		return ErrCodeTypeExpr
	case field == "grammar":
		return ErrCodeInvariant
	default:
		return ErrCodeGeneric
	}
}
