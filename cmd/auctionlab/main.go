// Command auctionlab builds Bayesian sealed-bid auctions, writes them as
// Gambit games and computes their equilibria.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudx-io/bayesauction/cli"
)

func main() {
	// Setup signal handling so a running solver is stopped on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cli.ExecuteContext(ctx)
	switch {
	case err == nil:
		return
	case errors.Is(err, cli.ErrValidationFailed):
		stop()
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(2)
	}
}
