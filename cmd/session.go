package cmd

import (
	"fmt"

	"github.com/melih-ucgun/brewstrap/internal/adapters/ui"
	"github.com/melih-ucgun/brewstrap/internal/config"
	"github.com/melih-ucgun/brewstrap/internal/consts"
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/installer"
	"github.com/melih-ucgun/brewstrap/internal/process"
	"github.com/melih-ucgun/brewstrap/internal/state"
	"github.com/melih-ucgun/brewstrap/internal/system"
	"github.com/melih-ucgun/brewstrap/internal/transport"
	"github.com/spf13/cobra"
)

// session is everything a command needs to work on its target.
type session struct {
	ctx       *core.SystemContext
	cfg       *config.Config
	installer *installer.Installer
	close     func() error
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	hostName, _ := cmd.Flags().GetString("host")

	ctx := core.NewSystemContext(cmd.Context(), dryRun)
	ctx.Logger = core.NewDefaultLogger(cmd.ErrOrStderr(), core.LevelFromVerbosity(verboseCount))
	ctx.UI = ui.NewPtermUI().WithWriter(cmd.ErrOrStderr())

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	s := &session{ctx: ctx, cfg: cfg, close: func() error { return nil }}

	var launcher process.Launcher = &process.LocalLauncher{}
	if hostName != "" {
		h, err := cfg.Host(hostName)
		if err != nil {
			return nil, err
		}
		h, err = transport.RenderHost(h, ctx)
		if err != nil {
			return nil, err
		}
		remote, err := transport.Dial(ctx, h)
		if err != nil {
			return nil, err
		}
		launcher = remote
		ctx.Remote = true
		ctx.Logger = ctx.Logger.With("host", h.Name)
		s.close = remote.Close
	}

	system.Detect(ctx, launcher)

	sink := process.WriterSink{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	s.installer = installer.New(cfg, launcher, sink)
	s.installer.Host = hostName

	if path, err := consts.GetHistoryFilePath(); err != nil {
		ctx.Logger.Warn("Run history disabled", "error", err)
	} else if mgr, err := state.NewManager(path, state.OSFS{}); err != nil {
		ctx.Logger.Warn(fmt.Sprintf("Run history disabled, %s is unreadable", path), "error", err)
	} else {
		s.installer.History = mgr
	}

	return s, nil
}

// release closes the connection to the target. A failure is only logged,
// the command's own result stands.
func (s *session) release() {
	if err := s.close(); err != nil {
		s.ctx.Logger.Warn("Could not close the connection to the target", "error", err)
	}
}
