// Command invoiceroom is a terminal client for InvoiceRoom negotiation rooms.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"InvoiceRoom/internal/cli/commands"
	"InvoiceRoom/internal/config"
)

// Заполняются через -ldflags при сборке.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Stdout))
}

func run(out io.Writer) int {
	cfg := config.NewConfig()
	if cfg.Version {
		fmt.Fprintf(out, "invoiceroom %s (built %s)\nserver: %s\n", version, buildDate, cfg.BaseURL)
		return commands.ExitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.Out = out
	return commands.Dispatch(ctx, cfg, flag.Args())
}
