package cmd

import (
	"fmt"
	"strconv"

	"github.com/melih-ucgun/brewstrap/internal/adapters/ui"
	"github.com/melih-ucgun/brewstrap/internal/consts"
	"github.com/melih-ucgun/brewstrap/internal/state"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List past install and uninstall runs",
	Long:  `Without an argument lists recorded runs. With a run id (or a unique prefix) shows its steps.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := consts.GetHistoryFilePath()
		if err != nil {
			return err
		}
		mgr, err := state.NewManager(path, state.OSFS{})
		if err != nil {
			return fmt.Errorf("could not load history: %w", err)
		}
		out := ui.NewPtermUI().WithWriter(cmd.OutOrStdout())

		if len(args) == 1 {
			tx, err := mgr.GetTransaction(args[0])
			if err != nil {
				return err
			}
			out.Section(fmt.Sprintf("%s %s (%s)", tx.Action, tx.ID, tx.Timestamp.Format("2006-01-02 15:04:05")))
			rows := [][]string{{"STEP", "STATUS", "EXIT", "COMMAND"}}
			for _, s := range tx.Steps {
				rows = append(rows, []string{s.Name, s.Status, strconv.Itoa(s.ExitCode), s.Command})
			}
			return out.Table(rows)
		}

		txs := mgr.GetTransactions()
		if len(txs) == 0 {
			out.Info("No runs recorded yet.")
			return nil
		}
		rows := [][]string{{"ID", "TIME", "ACTION", "HOST", "STATUS"}}
		for _, tx := range txs {
			host := tx.Host
			if host == "" {
				host = "local"
			}
			rows = append(rows, []string{shortID(tx.ID), tx.Timestamp.Format("2006-01-02 15:04:05"), tx.Action, host, tx.Status})
		}
		return out.Table(rows)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
