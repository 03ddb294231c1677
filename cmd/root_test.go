package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/melih-ucgun/brewstrap/internal/consts"
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/state"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	flags := rootCmd.PersistentFlags()
	require.NoError(t, flags.Set("config", filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, flags.Set("dry-run", "false"))
	require.NoError(t, flags.Set("host", ""))

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestHistoryCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv(consts.HomeEnv, home)

	out, _, err := executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet.")

	mgr, err := state.NewManager(filepath.Join(home, consts.HistoryFileName), state.OSFS{})
	require.NoError(t, err)
	tx := state.NewTransaction("install", "")
	tx.Record(state.StepRecord{Name: "gstreamer", Action: "install", Command: "brew install gstreamer", Status: state.StatusChanged})
	require.NoError(t, mgr.AddTransaction(tx))

	out, _, err = executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, tx.ID[:8])
	assert.Contains(t, out, "install")

	out, _, err = executeCommand(t, "history", tx.ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "brew install gstreamer")

	_, _, err = executeCommand(t, "history", "zzzz")
	assert.Error(t, err)
}

func TestInstallCommand_DryRun(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	home := t.TempDir()
	t.Setenv(consts.HomeEnv, home)

	_, stderr, err := executeCommand(t, "install", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stderr, "homebrew")
	assert.Contains(t, stderr, "gstreamer")

	_, statErr := os.Stat(filepath.Join(home, consts.HistoryFileName))
	assert.True(t, os.IsNotExist(statErr), "dry runs leave no history")
}

func TestUnknownHost(t *testing.T) {
	t.Setenv(consts.HomeEnv, t.TempDir())
	_, _, err := executeCommand(t, "status", "--host", "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv(consts.HomeEnv, t.TempDir())
	path := filepath.Join(t.TempDir(), "brewstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("formulas: []\n"), 0644))

	_, _, err := executeCommand(t, "install", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no formulas configured")
}

func TestSessionRelease_LogsCloseError(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	var logs bytes.Buffer
	ctx := core.NewSystemContext(context.Background(), false)
	ctx.Logger = core.NewDefaultLogger(&logs, core.LevelInfo)

	s := &session{ctx: ctx, close: func() error { return errors.New("connection reset by peer") }}
	s.release()
	assert.Contains(t, logs.String(), "Could not close the connection to the target")
	assert.Contains(t, logs.String(), "connection reset by peer")

	logs.Reset()
	s.close = func() error { return nil }
	s.release()
	assert.Empty(t, logs.String())
}
