package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"InvoiceRoom/internal/cli/api"
	"InvoiceRoom/internal/config"
)

// Exit codes returned by Dispatch.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitRejected = 3 // сервер отклонил запрос (4xx)
)

// Dispatch is the single entry point to execute CLI commands.
// It prints help and usage messages and returns a process exit code.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	name := strings.ToLower(args[0])
	if name == "help" { // invoiceroom help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
		if c, ok := Get(args[1]); ok {
			printCommandHelp(c)
			return ExitOK
		}
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[1])
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}
	// invoiceroom <command> -h
	if len(args) == 2 && (args[1] == "-h" || args[1] == "--help") {
		printCommandHelp(c)
		return ExitOK
	}

	err := c.Run(ctx, cfg, args[1:])
	var apiErr *api.APIError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitUsage
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		fmt.Fprintf(Out, "%s rejected: %v\n", name, err)
		return ExitRejected
	default:
		fmt.Fprintf(Out, "%s error: %v\n", name, err)
		return ExitError
	}
}

func printCommandHelp(c Command) {
	fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
	if d := c.Description(); d != "" {
		fmt.Fprintf(Out, "\n%s\n", d)
	}
}
