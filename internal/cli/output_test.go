package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/primgen/internal/generr"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	result := GenerateResult{RunID: "run-1", Output: "out.db", Events: 3, FirstEntry: 2, Workers: 1}
	require.NoError(t, formatter.Success(result))
	assert.Equal(t, "Generated 3 events into out.db (run run-1, entries 2-4)\n", buf.String())
}

func TestOutputFormatter_JSONFailure_GeneratorError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := wrapGenerationError("generation failed",
		fmt.Errorf("generator box: %w", generr.BadStatusEncoding(1, 211)))
	require.NoError(t, formatter.Failure(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BAD_STATUS_ENCODING", resp.Error.Code)
	assert.Equal(t, map[string]string{"status": "1", "pdg": "211"}, resp.Error.Details)
	assert.Contains(t, resp.Error.Message, "generation failed")
}

func TestOutputFormatter_TextFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Failure(NewExitError(ExitCommandError, "failed to open store")))
	assert.Equal(t, "Error [EXIT_2]: failed to open store\n", buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "write failed", cause)

	assert.Equal(t, "write failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewExitError(ExitCommandError, "plain").Error())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFatal, "bad")), ExitFatal},
		{"plain error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestWrapGenerationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fatal", generr.MissingExternalVertex(), ExitFatal},
		{"wrapped fatal", fmt.Errorf("generator box: %w", generr.UnsupportedStack("*cli.x")), ExitFatal},
		{"recoverable", generr.EmbedRead("bkg.db", 3, errors.New("io")), ExitFailure},
		{"delegate failure", errors.New("pythia crashed"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(wrapGenerationError("generation failed", tt.err)))
		})
	}
}
