package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/asynkron/treepatch/internal/cli"
)

// main applies a unified diff to one or more library directories.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
