package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether Homebrew and the GStreamer formulas are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.release()

		statuses, err := s.installer.Status(s.ctx)
		if err != nil {
			return err
		}

		target := s.ctx.Hostname
		if target == "" {
			target = "localhost"
		}
		s.ctx.UI.Section("Status of " + target + " (" + s.ctx.OS + "/" + s.ctx.Arch + ")")

		rows := [][]string{{"STEP", "PRESENT"}}
		for _, st := range statuses {
			present := "❌ no"
			if st.Present {
				present = "✅ yes"
			}
			rows = append(rows, []string{st.Name, present})
		}
		if err := s.ctx.UI.Table(rows); err != nil {
			return err
		}

		if len(s.cfg.Formulas) > 0 {
			names := make([]string, 0, len(s.cfg.Formulas))
			for _, f := range s.cfg.Formulas {
				names = append(names, f.Name)
			}
			s.ctx.UI.Info("Formulas: " + strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
