package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"InvoiceRoom/internal/cli/api"
	fsrepo "InvoiceRoom/internal/cli/repo/fs"
	"InvoiceRoom/internal/config"
)

// sellerToken достаёт сохранённую сессию продавца комнаты.
func sellerToken(cfg *config.Config, roomHash string) (string, error) {
	tok, err := newStore(cfg).LoadSession(roomHash)
	if errors.Is(err, fsrepo.ErrNotStored) {
		return "", fmt.Errorf("not logged in as seller of %s (run: login <secret> %s)", roomHash, roomHash)
	}
	return tok, err
}

type loginCmd struct{}

func (loginCmd) Group() string { return "Seller" }
func (loginCmd) Name() string  { return "login" }
func (loginCmd) Description() string {
	return "Log in as seller with the room secret and store the session"
}
func (loginCmd) Usage() string { return "login <secret> [room_hash]" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	req := map[string]string{"secret_key": args[0]}
	if len(args) == 2 {
		req["room_hash"] = args[1]
	}
	var out struct {
		RoomHash string `json:"room_hash"`
	}
	resp, _, err := newClient(cfg).JSON(ctx, http.MethodPost, "/api/seller/login/", req, "", &out)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return errors.New("invalid secret")
		}
		return err
	}
	token, err := api.SessionToken(resp)
	if err != nil {
		return err
	}
	if err := newStore(cfg).SaveSession(out.RoomHash, token); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	fmt.Fprintf(Out, "Logged in as seller of %s\n", out.RoomHash)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Group() string       { return "Seller" }
func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget the seller session of a room" }
func (logoutCmd) Usage() string       { return "logout <room_hash>" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	if tok, err := newStore(cfg).LoadSession(args[0]); err == nil {
		// сервер только стирает cookie, ошибка сети не мешает выйти локально
		_, _ = newClient(cfg).Do(ctx, http.MethodPost, "/api/seller/logout/", nil, tok)
	}
	if err := newStore(cfg).DeleteSession(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

// sellerActionCmd - переход продавца без тела запроса.
type sellerActionCmd struct {
	name, desc, method, path string
}

func (sellerActionCmd) Group() string         { return "Seller" }
func (c sellerActionCmd) Name() string        { return c.name }
func (c sellerActionCmd) Description() string { return c.desc }
func (c sellerActionCmd) Usage() string       { return c.name + " <room_hash>" }

func (c sellerActionCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	tok, err := sellerToken(cfg, args[0])
	if err != nil {
		return err
	}
	var r roomView
	if _, _, err := newClient(cfg).JSON(ctx, c.method, fmt.Sprintf(c.path, args[0]), nil, tok, &r); err != nil {
		return err
	}
	printRoom(r)
	return nil
}

type secretCmd struct{}

func (secretCmd) Group() string       { return "Seller" }
func (secretCmd) Name() string        { return "secret" }
func (secretCmd) Description() string { return "Set or replace the seller secret" }
func (secretCmd) Usage() string       { return "secret <room_hash> <new_secret>" }

func (secretCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	tok, err := sellerToken(cfg, args[0])
	if err != nil {
		return err
	}
	if _, err := newClient(cfg).Do(ctx, http.MethodPut, "/api/seller/"+args[0]+"/secret/", map[string]string{"secret_key": args[1]}, tok); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Secret updated")
	return nil
}

var editFields = map[string]bool{
	"invoice_date":   true,
	"due_date":       true,
	"payment_method": true,
	"description":    true,
	"quantity":       true,
	"unit_price":     true,
}

type editCmd struct{}

func (editCmd) Group() string { return "Seller" }
func (editCmd) Name() string  { return "edit" }
func (editCmd) Description() string {
	return "Edit invoice fields (resets status to draft)"
}
func (editCmd) Usage() string { return "edit <room_hash> <field=value>..." }

func (editCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	patch := map[string]string{}
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !editFields[k] {
			return fmt.Errorf("%w: unknown field %q", ErrUsage, kv)
		}
		patch[k] = v
	}
	tok, err := sellerToken(cfg, args[0])
	if err != nil {
		return err
	}
	var r roomView
	if _, _, err := newClient(cfg).JSON(ctx, http.MethodPut, "/api/seller/"+args[0]+"/edit-invoice/", patch, tok, &r); err != nil {
		return err
	}
	printRoom(r)
	return nil
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(secretCmd{})
	RegisterCmd(editCmd{})
	RegisterCmd(sellerActionCmd{
		name: "start", desc: "Start (or restart) negotiation",
		method: http.MethodPost, path: "/api/room/%s/start-negotiation/",
	})
	RegisterCmd(sellerActionCmd{
		name: "confirm", desc: "Confirm the buyer's payment",
		method: http.MethodPost, path: "/api/seller/%s/confirm-payment/",
	})
}
