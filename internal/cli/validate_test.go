package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidGrammar(t *testing.T) {
	stdout, _, err := executeCommand(t, "validate", "testdata/tiny.cue")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ 1 grammar(s) valid")
	assert.Contains(t, stdout, "testdata/tiny.cue: ")
}

func TestValidateJSONOutput(t *testing.T) {
	stdout, _, err := executeCommand(t, "--format", "json", "validate", "testdata/tiny.cue")
	require.NoError(t, err)

	var resp struct {
		Status string              `json:"status"`
		Data   []ValidationSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Valid)
	assert.Len(t, resp.Data[0].Hash, 64)
}

func TestValidateInvalidGrammarExitsFailure(t *testing.T) {
	stdout, _, err := executeCommand(t, "validate", "testdata/bad.cue")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeGrammarName)
}

func TestValidateMissingPathIsCommandError(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "no/such/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
