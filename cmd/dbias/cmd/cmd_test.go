package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir stands in for t.Chdir, which needs Go 1.24; this toolchain is older.
func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc1234", "2026-08-30")

	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "dbias 1.2.3")
	require.Contains(t, out, "abc1234")
}

func TestInitCommand(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := executeCommand(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, ".dbias.yaml")

	_, err = os.Stat(".dbias.yaml")
	require.NoError(t, err, "config file should exist")
	info, err := os.Stat(filepath.Join(".dbias", "cache"))
	require.NoError(t, err, "cache directory should exist")
	require.True(t, info.IsDir())

	// A second init without --force refuses to clobber.
	_, err = executeCommand(t, "init")
	require.Error(t, err)

	_, err = executeCommand(t, "init", "--force")
	require.NoError(t, err)
}

func TestConfigCommand(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := executeCommand(t, "config")
	require.NoError(t, err)
	require.Contains(t, out, "base_url: http://localhost:5000")
	require.Contains(t, out, "analyze_timeout: 20m")
	require.Contains(t, out, "min_submit_interval: 3s")
}

func TestAnalyzeCommand_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := executeCommand(t, "analyze", "absent.csv")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not readable")
}

func TestAnalyzeCommand_BadPlotMode(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("data.csv", []byte("a,b\n1,2\n"), 0o600))

	_, err := executeCommand(t, "analyze", "data.csv", "--plots", "gif")
	require.Error(t, err)
	require.Contains(t, err.Error(), "return_plots")
}

func TestHistoryCommand_Empty(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := executeCommand(t, "history")
	require.NoError(t, err)
	require.Contains(t, out, "No analyses recorded yet.")
}
