package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/melih-ucgun/brewstrap/cmd"
	"github.com/pterm/pterm"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			pterm.Warning.Println("Interrupted")
			os.Exit(130) // 130 = SIGINT
		}
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
