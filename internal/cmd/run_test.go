package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// End-to-end smoke over the CLI: a suite of pure compare steps against
// files on disk, no submission processes involved.
func TestRunCommandProducesGradeSheet(t *testing.T) {
	dir := t.TempDir()
	resultRoot := filepath.Join(dir, "results")

	expectedPath := filepath.Join(dir, "expected.txt")
	actualPath := filepath.Join(dir, "actual.txt")
	writeFile(t, expectedPath, "Hello\n")
	writeFile(t, actualPath, "hello")

	cfgPath := filepath.Join(dir, "regrade.yaml")
	writeFile(t, cfgPath, "result_root: "+resultRoot+"\n")

	suitePath := filepath.Join(dir, "suite.yaml")
	writeFile(t, suitePath, `
protocol: TCP
stage_timeout_seconds: 5
steps:
  - id: OC-WAIT-1
    action: Wait
    value: "0"
    question: Q1
  - id: OC-CMP-3
    action: CompareText
    target: `+expectedPath+`
    value: `+actualPath+`
    question: Q1
`)

	sheetPath := filepath.Join(dir, "grades.csv")
	rootCmd.SetArgs([]string{"run", "-c", cfgPath, "-s", suitePath, "--sheet", sheetPath})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(sheetPath)
	require.NoError(t, err)
	sheet := string(data)
	assert.Contains(t, sheet, "OC-CMP-3")
	assert.Contains(t, sheet, "step_id")
}

func TestRunCommandMissingConfig(t *testing.T) {
	rootCmd.SetArgs([]string{"run", "-c", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}
