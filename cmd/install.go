package cmd

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install Homebrew and the GStreamer formulas if missing",
	Long: `Installs Homebrew with the official install script when brew cannot be found,
then installs the configured GStreamer formulas. Installer output is echoed live.`,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.release()

	s.ctx.UI.Title("brewstrap install")
	return s.installer.Install(s.ctx)
}

func init() {
	rootCmd.AddCommand(installCmd)
}
