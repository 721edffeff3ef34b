// Command dakota-keywizard generates Ethereum account keys, Besu node keys
// and Tessera keys for a Dakota network, and moves them to the machines that
// need them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
