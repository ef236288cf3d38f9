// Command relumip encodes ReLU networks as mixed-integer linear programs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/YuminosukeSato/relumip/internal/cli"
	"github.com/YuminosukeSato/relumip/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Flag and argument errors have not been printed yet.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
