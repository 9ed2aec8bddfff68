package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"InvoiceRoom/internal/cli/api"
	fsrepo "InvoiceRoom/internal/cli/repo/fs"
	"InvoiceRoom/internal/config"
)

// ErrUsage signals bad arguments; Dispatch answers it with the command usage line.
var ErrUsage = errors.New("usage")

// Command is one invoiceroom subcommand.
type Command interface {
	Name() string
	// Description is the one-line summary shown in help.
	Description() string
	// Usage returns the exact usage string, e.g. "login <secret> [room_hash]".
	Usage() string
	// Run receives the arguments after the command name.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var (
	registry = map[string]Command{}

	// Out - общий writer для вывода CLI, в тестах подменяется.
	Out io.Writer = os.Stdout
)

// RegisterCmd adds cmd to the registry; called from init() of each command file.
// A second registration under the same name panics.
func RegisterCmd(cmd Command) {
	name := strings.ToLower(cmd.Name())
	if _, dup := registry[name]; dup {
		panic("commands: duplicate command " + name)
	}
	registry[name] = cmd
}

// Get looks a command up by name, ignoring case.
func Get(name string) (Command, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// List returns registered commands ordered by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	slices.SortFunc(list, func(a, b Command) int { return strings.Compare(a.Name(), b.Name()) })
	return list
}

// Grouped is implemented by commands that belong to one side of the negotiation.
type Grouped interface {
	Group() string
}

// groupOrder - порядок разделов в справке.
var groupOrder = []string{"Seller", "Buyer", "General"}

func groupOf(c Command) string {
	if g, ok := c.(Grouped); ok {
		return g.Group()
	}
	return "General"
}

// FormatGlobalUsage builds a help text for all commands, grouped by role.
func FormatGlobalUsage() string {
	lines := []string{
		"InvoiceRoom CLI",
		"",
		"Usage:",
		"  invoiceroom [--base-url <host:port>] [--state-file <path>] <command> [args]",
	}
	byGroup := map[string][]Command{}
	for _, c := range List() {
		g := groupOf(c)
		byGroup[g] = append(byGroup[g], c)
	}
	for _, g := range groupOrder {
		if len(byGroup[g]) == 0 {
			continue
		}
		lines = append(lines, "", g+" commands:")
		for _, c := range byGroup[g] {
			lines = append(lines, fmt.Sprintf("  %-44s %s", c.Usage(), c.Description()))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// newClient builds an API client for the configured server.
func newClient(cfg *config.Config) *api.Client {
	return api.New(cfg.ServerURL)
}

// newStore opens the client state file (seller sessions, buyer tokens).
func newStore(cfg *config.Config) *fsrepo.StateFSStore {
	return fsrepo.NewStateFSStore(cfg.StateFile)
}
