package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/melih-ucgun/brewstrap/internal/consts"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brewstrap",
	Short: "Install Homebrew and GStreamer, streaming installer output live.",
	Long: `brewstrap makes sure Homebrew and the GStreamer formula bundle are installed.
Run without a subcommand it performs the install sequence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Values in .env become visible to config templates through sprig's env.
		if err := godotenv.Load(consts.EnvFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("could not load %s: %w", consts.EnvFileName, err)
		}
		return nil
	},
	RunE: runInstall,
}

var verboseCount int

// Execute runs the CLI. Cancelling ctx (Ctrl+C) kills the running child.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	// PTerm output to Stderr (to keep Stdout clean for piping)
	pterm.SetDefaultOutput(os.Stderr)
	pterm.Success.Writer = os.Stderr
	pterm.Info.Writer = os.Stderr
	pterm.Error.Writer = os.Stderr
	pterm.Warning.Writer = os.Stderr
	pterm.DefaultHeader.Writer = os.Stderr

	rootCmd.PersistentFlags().StringP("config", "c", consts.DefaultConfigFile, "config file path (optional)")
	rootCmd.PersistentFlags().CountVarP(&verboseCount, "verbose", "v", "Increase verbosity level (-v, -vv)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Show the commands that would run without running them")
	rootCmd.PersistentFlags().String("host", "", "Run on a host from the config over SSH")
}
