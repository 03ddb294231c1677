package installer

import (
	"context"
	"errors"
	"testing"

	"github.com/melih-ucgun/brewstrap/internal/config"
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/process"
	"github.com/melih-ucgun/brewstrap/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	probeBrewOnPath  = "sh -c 'command -v brew'"
	probeBrewPrefix  = "test -x /opt/homebrew/bin/brew"
	homebrewInstall  = `/bin/sh -c '/bin/bash -c "$(curl -fsSL https://example.com/install.sh)"'`
	homebrewRemove   = `/bin/sh -c '/bin/bash -c "$(curl -fsSL https://example.com/uninstall.sh)"'`
	formulasInstall  = "brew install gstreamer gst-libav"
	formulasRemove   = "brew uninstall gstreamer gst-libav --force"
	probeGstreamer   = "brew ls --versions gstreamer"
	probeLibav       = "brew ls --versions gst-libav"
	gstreamerVersion = "gstreamer 1.24.4\n"
)

type memoryHistory struct {
	txs []state.Transaction
}

func (m *memoryHistory) AddTransaction(tx state.Transaction) error {
	m.txs = append(m.txs, tx)
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Homebrew.InstallURL = "https://example.com/install.sh"
	cfg.Homebrew.UninstallURL = "https://example.com/uninstall.sh"
	cfg.Homebrew.Prefixes = []string{"/opt/homebrew/bin"}
	cfg.Formulas = []config.Formula{{Name: "gstreamer"}, {Name: "gst-libav"}}
	return cfg
}

func newTestInstaller(mock *process.MockLauncher) (*Installer, *process.Capture, *memoryHistory) {
	sink := &process.Capture{}
	hist := &memoryHistory{}
	inst := New(testConfig(), mock, sink)
	inst.History = hist
	return inst, sink, hist
}

func testContext(dryRun bool) *core.SystemContext {
	ctx := core.NewSystemContext(context.Background(), dryRun)
	ctx.OS = "darwin"
	ctx.Arch = "arm64"
	ctx.Logger = core.NewDefaultLogger(&discard{}, core.LevelError)
	return ctx
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestInstall_EverythingPresent(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{Stdout: "/opt/homebrew/bin/brew\n"})
	mock.OnLaunch(probeGstreamer, process.MockResponse{Stdout: gstreamerVersion})
	mock.OnLaunch(probeLibav, process.MockResponse{Stdout: "gst-libav 1.24.4\n"})

	inst, sink, hist := newTestInstaller(mock)
	require.NoError(t, inst.Install(testContext(false)))

	assert.False(t, mock.AssertCalled("install"))
	assert.Empty(t, sink.Lines(), "probe output is not echoed")

	require.Len(t, hist.txs, 1)
	tx := hist.txs[0]
	assert.Equal(t, "install", tx.Action)
	assert.Equal(t, "success", tx.Status)
	require.Len(t, tx.Steps, 2)
	assert.Equal(t, state.StatusUnchanged, tx.Steps[0].Status)
	assert.Equal(t, state.StatusUnchanged, tx.Steps[1].Status)
}

func TestInstall_FreshMachine(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{ExitCode: 1})
	mock.OnLaunch(homebrewInstall, process.MockResponse{
		Stdout: "==> Installing Homebrew\n==> Installation successful!\n",
		Stderr: "Warning: /opt/homebrew/bin is not in your PATH.\n",
		Effect: func() {
			// brew lands under the prefix, not on PATH
			mock.OnLaunch(probeBrewPrefix, process.MockResponse{})
		},
	})
	mock.OnLaunch("/opt/homebrew/bin/brew ls --versions gstreamer", process.MockResponse{ExitCode: 1})
	mock.OnLaunch("/opt/homebrew/bin/brew install gstreamer gst-libav", process.MockResponse{
		Stdout: "==> Pouring gstreamer\n",
	})

	inst, sink, hist := newTestInstaller(mock)
	require.NoError(t, inst.Install(testContext(false)))

	assert.Equal(t, []string{
		"==> Installing Homebrew",
		"==> Installation successful!",
		"==> Pouring gstreamer",
	}, sink.Texts(process.Stdout))
	assert.Equal(t, []string{"Warning: /opt/homebrew/bin is not in your PATH."}, sink.Texts(process.Stderr))

	require.Len(t, hist.txs, 1)
	steps := hist.txs[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, state.StatusChanged, steps[0].Status)
	assert.Equal(t, homebrewInstall, steps[0].Command)
	assert.Equal(t, 0, steps[0].ExitCode)
	assert.Equal(t, state.StatusChanged, steps[1].Status)
	assert.Equal(t, "/opt/homebrew/bin/brew install gstreamer gst-libav", steps[1].Command)
}

func TestInstall_NonZeroExitIsNotFatal(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{})
	mock.OnLaunch(probeGstreamer, process.MockResponse{ExitCode: 1})
	mock.OnLaunch(formulasInstall, process.MockResponse{Stderr: "Error: No available formula\n", ExitCode: 1})

	inst, sink, hist := newTestInstaller(mock)
	require.NoError(t, inst.Install(testContext(false)))

	assert.Equal(t, "Error: No available formula", sink.String(process.Stderr))
	require.Len(t, hist.txs, 1)
	assert.Equal(t, "failed", hist.txs[0].Status)
	assert.Equal(t, 1, hist.txs[0].Steps[1].ExitCode)
}

func TestInstall_SpawnFailureAborts(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{ExitCode: 1})
	mock.OnLaunch(homebrewInstall, process.MockResponse{SpawnErr: errors.New("no such file or directory")})

	inst, _, hist := newTestInstaller(mock)
	err := inst.Install(testContext(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrSpawn)

	assert.False(t, mock.AssertCalled("ls --versions"), "sequence stops after a spawn failure")
	require.Len(t, hist.txs, 1)
	assert.Equal(t, "failed", hist.txs[0].Status)
	assert.Len(t, hist.txs[0].Steps, 1)
}

func TestInstall_HomebrewFailedLeavesFormulasSkipped(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{ExitCode: 1})
	mock.OnLaunch(homebrewInstall, process.MockResponse{Stderr: "curl: (6) Could not resolve host\n", ExitCode: 6})

	inst, _, hist := newTestInstaller(mock)
	require.NoError(t, inst.Install(testContext(false)))

	steps := hist.txs[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, 6, steps[0].ExitCode)
	assert.Equal(t, state.StatusFailed, steps[1].Status)
	assert.Contains(t, steps[1].Message, "brew is not available")
}

func TestInstall_DryRunLaunchesOnlyProbes(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{ExitCode: 1})

	inst, _, hist := newTestInstaller(mock)
	require.NoError(t, inst.Install(testContext(true)))

	for _, c := range mock.Launched() {
		assert.NotContains(t, c, "curl")
		assert.NotContains(t, c, "brew install")
	}
	assert.Empty(t, hist.txs, "dry runs are not recorded")
}

func TestUninstall_ReverseOrder(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{Stdout: "/usr/local/bin/brew\n"})
	mock.OnLaunch(probeGstreamer, process.MockResponse{Stdout: gstreamerVersion})
	mock.OnLaunch(formulasRemove, process.MockResponse{Stdout: "Uninstalling gstreamer...\n"})
	mock.OnLaunch(homebrewRemove, process.MockResponse{
		Stdout: "==> Removing Homebrew installation...\n",
		Effect: func() { mock.OnLaunch(probeBrewOnPath, process.MockResponse{ExitCode: 1}) },
	})

	inst, sink, hist := newTestInstaller(mock)
	require.NoError(t, inst.Uninstall(testContext(false)))

	var order []string
	for _, c := range mock.Launched() {
		if c == formulasRemove || c == homebrewRemove {
			order = append(order, c)
		}
	}
	assert.Equal(t, []string{formulasRemove, homebrewRemove}, order)
	assert.Equal(t, []string{"Uninstalling gstreamer...", "==> Removing Homebrew installation..."}, sink.Texts(process.Stdout))
	assert.Equal(t, "uninstall", hist.txs[0].Action)
}

func TestUninstall_NothingInstalled(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{ExitCode: 1})

	inst, _, hist := newTestInstaller(mock)
	require.NoError(t, inst.Uninstall(testContext(false)))

	assert.False(t, mock.AssertCalled("uninstall"))
	for _, s := range hist.txs[0].Steps {
		assert.Equal(t, state.StatusUnchanged, s.Status)
	}
}

func TestStatus(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{})
	mock.OnLaunch(probeGstreamer, process.MockResponse{Stdout: gstreamerVersion})
	mock.OnLaunch(probeLibav, process.MockResponse{ExitCode: 1})

	inst, _, _ := newTestInstaller(mock)
	got, err := inst.Status(testContext(false))
	require.NoError(t, err)
	assert.Equal(t, []StepStatus{
		{Name: "homebrew", Present: true},
		{Name: "gstreamer", Present: false},
	}, got)
}

func TestFormulas_WhenCondition(t *testing.T) {
	f := NewFormulas("gstreamer", []config.Formula{
		{Name: "gstreamer"},
		{Name: "gst-plugins-ugly", When: `os == "linux"`},
		{Name: "gst-libav", When: `arch == "arm64"`},
	}, []string{"--quiet"})

	target := &Target{SystemContext: testContext(false), Brew: "brew"}
	names, err := f.Selected(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"gstreamer", "gst-libav"}, names)

	cmd, err := f.Command(target, core.StatePresent)
	require.NoError(t, err)
	assert.Equal(t, "brew install gstreamer gst-libav --quiet", cmd.String())
	assert.Contains(t, cmd.Env(), "HOMEBREW_NO_ENV_HINTS=1")

	bad := NewFormulas("bad", []config.Formula{{Name: "x", When: "os =="}}, nil)
	_, err = bad.Selected(target)
	assert.Error(t, err)
}

func TestHomebrew_CommandUsesTemplatedURL(t *testing.T) {
	t.Setenv("BREWSTRAP_TEST_MIRROR", "https://mirror.example.com")
	h := NewHomebrew(config.Homebrew{
		InstallURL:   `{{ env "BREWSTRAP_TEST_MIRROR" }}/install.sh`,
		UninstallURL: `{{ env "BREWSTRAP_UNSET_MIRROR" }}`,
	})
	target := &Target{SystemContext: testContext(false)}

	cmd, err := h.Command(target, core.StatePresent)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", cmd.Name())
	assert.Equal(t, []string{"-c", `/bin/bash -c "$(curl -fsSL https://mirror.example.com/install.sh)"`}, cmd.Args())
	assert.Equal(t, []string{"NONINTERACTIVE=1"}, cmd.Env())

	_, err = h.Command(target, core.StateAbsent)
	assert.Error(t, err, "empty url is rejected")
}

func TestInstall_ProbeTerminationFailureAborts(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{
		Stdout:       "/opt/homebrew/bin/brew\n",
		TerminateErr: errors.New("wait: no child processes"),
	})
	mock.OnLaunch(probeBrewPrefix, process.MockResponse{})

	inst, _, hist := newTestInstaller(mock)
	err := inst.Install(testContext(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrTermination)

	assert.Equal(t, []string{probeBrewOnPath}, mock.Launched(), "nothing runs after the failed probe")
	require.Len(t, hist.txs, 1)
	assert.Equal(t, "failed", hist.txs[0].Status)
	assert.Empty(t, hist.txs[0].Steps)
}

func TestInstall_FormulaProbeTerminationFailureAborts(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{})
	mock.OnLaunch(probeGstreamer, process.MockResponse{ExitCode: 1, TerminateErr: errors.New("kill: operation not permitted")})

	inst, _, hist := newTestInstaller(mock)
	err := inst.Install(testContext(false))
	assert.ErrorIs(t, err, process.ErrTermination)
	assert.False(t, mock.AssertCalled("brew install"))

	steps := hist.txs[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, state.StatusUnchanged, steps[0].Status)
	assert.Equal(t, state.StatusFailed, steps[1].Status)
}

func TestStatus_ProbeTerminationFailure(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{TerminateErr: errors.New("wait failed")})

	inst, _, _ := newTestInstaller(mock)
	got, err := inst.Status(testContext(false))
	assert.ErrorIs(t, err, process.ErrTermination)
	assert.Nil(t, got)
}

func TestProbe_SpawnFailureMeansAbsent(t *testing.T) {
	mock := process.NewMockLauncher()
	inst, _, _ := newTestInstaller(mock)

	ok, err := inst.Probe(&Target{SystemContext: testContext(false)}, process.NewCommand("brew", "--version"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInstall_NoFormulaSelected(t *testing.T) {
	mock := process.NewMockLauncher()
	mock.OnLaunch(probeBrewOnPath, process.MockResponse{})

	cfg := testConfig()
	cfg.Formulas = []config.Formula{{Name: "gstreamer", When: `os == "linux"`}}
	inst := New(cfg, mock, &process.Capture{})
	hist := &memoryHistory{}
	inst.History = hist

	require.NoError(t, inst.Install(testContext(false)))
	assert.False(t, mock.AssertCalled("ls --versions"))

	steps := hist.txs[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, state.StatusUnchanged, steps[1].Status)
	assert.Equal(t, "no formulas selected for this host", steps[1].Message)

	got, err := inst.Status(testContext(false))
	require.NoError(t, err)
	assert.Equal(t, StepStatus{Name: "gstreamer", Present: true}, got[1])
}
