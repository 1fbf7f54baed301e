// Command kvdoc reads and writes keyed records in a SQLite document database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/kvdoc/internal/cli"
	"github.com/roach88/kvdoc/internal/config"
)

func main() {
	config.LoadEnvFiles()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
