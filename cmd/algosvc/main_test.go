package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedDaiam9101/algosvc/internal/config"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBatchCommand_WritesResponses(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.json"), []byte(`{"x":[0,0],"scale":2}`), 0o644))

	stdout, stderr, err := execute(t, "batch", "--input-dir", in, "--output-dir", out, "--algo-version", "2.0.0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "a.json")
	assert.Empty(t, stderr)

	data, err := os.ReadFile(filepath.Join(out, "a.json"))
	require.NoError(t, err)
	var resp struct {
		Y           []float32 `json:"y"`
		AlgoVersion string    `json:"algoVersion"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, []float32{0.5, 0.5}, resp.Y)
	assert.Equal(t, "2.0.0", resp.AlgoVersion)
}

func TestBatchCommand_FailureIsReportedOnce(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "bad.json"), []byte(`{"x":`), 0o644))

	_, stderr, err := execute(t, "batch", "--input-dir", in, "--output-dir", out)
	require.Error(t, err)
	assert.Contains(t, stderr, "bad.json")

	var reported reportedError
	assert.True(t, errors.As(err, &reported))

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Empty(t, buf.String(), "already logged by the runner")
}

func TestBatchCommand_MissingInputDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	_, _, err := execute(t, "batch", "--input-dir", filepath.Join(t.TempDir(), "missing"), "--output-dir", out)
	require.Error(t, err)

	info, statErr := os.Stat(out)
	require.NoError(t, statErr, "output directory is created before the input check")
	assert.True(t, info.IsDir())
}

func TestRunBatch_SpansStayOffStdout(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/a.json", []byte(`{"x":[1]}`), 0o644))

	cfg := &config.Config{
		InputDir:    "/in",
		OutputDir:   "/out",
		AlgoVersion: "0.1.0",
		Kernel:      "sigmoid",
		LibPath:     "builtin",
		LogLevel:    "info",
		OTELEnabled: true,
	}

	var stdout, stderr bytes.Buffer
	require.NoError(t, runBatch(context.Background(), cfg, fs, &stdout, &stderr))

	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		assert.NotContains(t, line, "SpanContext")
		assert.NotContains(t, line, "{")
	}
	assert.Contains(t, stdout.String(), "a.json")
	assert.Contains(t, stderr.String(), "pipeline.process")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version", "--algo-version", "1.2.3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"service":"algosvc","algoVersion":"1.2.3","libPath":"builtin"}`, stdout)
}

func TestRunsCommand_RequiresLedger(t *testing.T) {
	_, _, err := execute(t, "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestInvalidConfigIsPrinted(t *testing.T) {
	_, _, err := execute(t, "batch", "--kernel", "cuda")
	require.Error(t, err)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "invalid kernel")
}
