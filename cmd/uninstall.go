package cmd

import (
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the GStreamer formulas and Homebrew",
	Long:  `Uninstalls the configured formulas first, then Homebrew itself with the official uninstall script.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.release()

		s.ctx.UI.Title("brewstrap uninstall")
		return s.installer.Uninstall(s.ctx)
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
