package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"ingest", "runs", "checks", "schedule", "commands", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestCommandsListsFlags(t *testing.T) {
	out, err := execute(t, "commands", "--filter", "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "lakewap ingest: ")
	assert.Contains(t, out, "--table")
	assert.NotContains(t, out, "lakewap runs")
	for _, r := range out {
		assert.Less(t, r, rune(128), "command listing stays ASCII")
	}
}

func TestIngestRequiresTableOrFile(t *testing.T) {
	_, err := execute(t, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of the flags")
}

func TestIngestRejectsTableAndFileTogether(t *testing.T) {
	_, err := execute(t, "ingest", "--table", "trips", "--file", "orders.yaml")
	require.Error(t, err)
}

func TestScheduleRequiresFile(t *testing.T) {
	_, err := execute(t, "schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestChecksValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	suite := `
checks:
  - id: fare_not_null
    tier: critical
    kind: null_ratio
    column: fare
  - id: fare_range
    tier: important
    kind: value_range
    column: fare
    min: 0
    max: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(suite), 0o644))

	cmd := findCommand(t, newRootCmd(), "checks", "validate")
	require.NoError(t, cmd.RunE(cmd, []string{path}))
}

func TestChecksValidateRejectsBadSuite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checks:\n  - id: x\n    tier: severe\n    kind: null_ratio\n    column: c\n"), 0o644))

	cmd := findCommand(t, newRootCmd(), "checks", "validate")
	err := cmd.RunE(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tier")
}

func findCommand(t *testing.T, root *cobra.Command, path ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find(path)
	require.NoError(t, err)
	return cmd
}
