package commands

import (
	"context"
	"fmt"
	"net/http"

	"InvoiceRoom/internal/config"
)

type roomCmd struct{}

func (roomCmd) Name() string        { return "room" }
func (roomCmd) Description() string { return "Show room and invoice state" }
func (roomCmd) Usage() string       { return "room <room_hash>" }

func (roomCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	var r roomView
	if _, _, err := newClient(cfg).JSON(ctx, http.MethodGet, "/api/room/"+args[0]+"/", nil, "", &r); err != nil {
		return err
	}
	printRoom(r)
	return nil
}

type historyCmd struct{}

func (historyCmd) Name() string        { return "history" }
func (historyCmd) Description() string { return "Show negotiation history, newest first" }
func (historyCmd) Usage() string       { return "history <room_hash>" }

func (historyCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	var list []historyView
	_, total, err := newClient(cfg).JSON(ctx, http.MethodGet, "/api/room/"+args[0]+"/history/", nil, "", &list)
	if err != nil {
		return err
	}
	for _, h := range list {
		line := fmt.Sprintf("%s  %-20s %-6s", h.CreatedAt.Local().Format("2006-01-02 15:04:05"), h.Action, h.Actor)
		if h.Notes != "" {
			line += "  " + h.Notes
		}
		fmt.Fprintln(Out, line)
	}
	fmt.Fprintf(Out, "Total: %d\n", total)
	return nil
}

func init() {
	RegisterCmd(roomCmd{})
	RegisterCmd(historyCmd{})
}
