package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	fsrepo "InvoiceRoom/internal/cli/repo/fs"
	"InvoiceRoom/internal/config"
)

type joinCmd struct{}

func (joinCmd) Group() string       { return "Buyer" }
func (joinCmd) Name() string        { return "join" }
func (joinCmd) Description() string { return "Join a room as its buyer and store the buyer token" }
func (joinCmd) Usage() string       { return "join <room_hash> <fullname> [email]" }

func (joinCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	req := map[string]string{"fullname": args[1]}
	if len(args) == 3 {
		req["email"] = args[2]
	}
	var out struct {
		BuyerHash string   `json:"buyer_hash"`
		Room      roomView `json:"room"`
	}
	if _, _, err := newClient(cfg).JSON(ctx, http.MethodPost, "/api/buyer/join/"+args[0]+"/", req, "", &out); err != nil {
		return err
	}
	if err := newStore(cfg).SaveBuyer(args[0], out.BuyerHash); err != nil {
		return fmt.Errorf("saving buyer token: %w", err)
	}
	fmt.Fprintln(Out, "Joined:")
	printRoom(out.Room)
	return nil
}

// buyerActionCmd - решение покупателя; buyer_hash берётся из файла состояния.
type buyerActionCmd struct {
	name, desc, path string
	notes            bool
}

func (buyerActionCmd) Group() string         { return "Buyer" }
func (c buyerActionCmd) Name() string        { return c.name }
func (c buyerActionCmd) Description() string { return c.desc }
func (c buyerActionCmd) Usage() string {
	if c.notes {
		return c.name + " <room_hash> [notes...]"
	}
	return c.name + " <room_hash>"
}

func (c buyerActionCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || (!c.notes && len(args) != 1) {
		return ErrUsage
	}
	roomHash := args[0]
	buyerHash, err := newStore(cfg).LoadBuyer(roomHash)
	if errors.Is(err, fsrepo.ErrNotStored) {
		return fmt.Errorf("no buyer token for %s (run: join %s <fullname>)", roomHash, roomHash)
	}
	if err != nil {
		return err
	}
	req := map[string]string{"buyer_hash": buyerHash}
	if c.notes && len(args) > 1 {
		req["notes"] = strings.Join(args[1:], " ")
	}
	var r roomView
	if _, _, err := newClient(cfg).JSON(ctx, http.MethodPost, "/api/buyer/"+roomHash+"/"+c.path+"/", req, "", &r); err != nil {
		return err
	}
	printRoom(r)
	return nil
}

func init() {
	RegisterCmd(joinCmd{})
	RegisterCmd(buyerActionCmd{name: "approve", desc: "Approve the invoice", path: "approve"})
	RegisterCmd(buyerActionCmd{name: "disapprove", desc: "Send the invoice back for changes", path: "disapprove", notes: true})
	RegisterCmd(buyerActionCmd{name: "reject", desc: "Reject the invoice", path: "reject", notes: true})
	RegisterCmd(buyerActionCmd{name: "pay", desc: "Mark the invoice as paid", path: "mark-paid"})
}
