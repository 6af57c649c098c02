package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeFile(t *testing.T) {
	stdout, _, err := executeCommand(t, "describe", "testdata/tiny.cue")
	require.NoError(t, err)

	assert.Contains(t, stdout, "hash: ")
	assert.Contains(t, stdout, "terminals:")
	assert.Contains(t, stdout, "nonterminals:")
	assert.Contains(t, stdout, "action functions:")
	assert.Contains(t, stdout, "S' = S => Call(0);")
}

func TestDescribeJSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "--format", "json", "describe", "testdata/tiny.cue")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   DescribeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Hash, 64)
	assert.Equal(t, "__tiny", resp.Data.Prefix)
	assert.Contains(t, resp.Data.Dump, "nonterminals:")
}

func TestDescribeFromCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	// Populate the cache, capturing the hash from the compile summary.
	stdout, _, err := executeCommand(t, "--format", "json", "compile", "testdata/tiny.cue", "--cache", cachePath)
	require.NoError(t, err)
	var compileResp struct {
		Data []GrammarSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &compileResp))
	require.Len(t, compileResp.Data, 1)
	hash := compileResp.Data[0].Hash

	stdout, _, err = executeCommand(t, "describe", hash, "--cache", cachePath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "hash: "+hash)
	assert.Contains(t, stdout, "nonterminals:")
}

func TestDescribeUnknownHash(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	stdout, _, err := executeCommand(t, "describe", "deadbeef", "--cache", cachePath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "not in cache")
}

func TestDescribeBadFile(t *testing.T) {
	_, _, err := executeCommand(t, "describe", "testdata/bad.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
