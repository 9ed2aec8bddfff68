package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"InvoiceRoom/internal/cli/api"
	"InvoiceRoom/internal/config"
)

type createCmd struct{}

func (createCmd) Group() string { return "Seller" }
func (createCmd) Name() string  { return "create" }
func (createCmd) Description() string {
	return "Create a room with a single-line invoice (or -f invoice.json) and log in as its seller"
}
func (createCmd) Usage() string {
	return "create [-secret S] [-date D] [-due D] [-method M] <seller> <description> <qty> <price> | create -f <file.json>"
}

func (createCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	secret := fs.String("secret", "", "seller secret for later logins")
	date := fs.String("date", time.Now().Format("2006-01-02"), "invoice date YYYY-MM-DD")
	due := fs.String("due", "", "due date YYYY-MM-DD")
	method := fs.String("method", "bank transfer", "payment method")
	file := fs.String("f", "", "JSON file with the full create request")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	var body any
	if *file != "" {
		if fs.NArg() != 0 {
			return ErrUsage
		}
		b, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		var raw map[string]any
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("%s: %w", *file, err)
		}
		body = raw
	} else {
		rest := fs.Args()
		if len(rest) != 4 {
			return ErrUsage
		}
		body = map[string]any{
			"seller":     map[string]any{"fullname": rest[0]},
			"secret_key": *secret,
			"invoice": map[string]any{
				"invoice_date":   *date,
				"due_date":       *due,
				"payment_method": *method,
				"description":    rest[1],
				"quantity":       rest[2],
				"unit_price":     rest[3],
			},
		}
	}

	var out struct {
		Room            roomView `json:"room"`
		VerificationKey string   `json:"verification_key"`
		VerifyURL       string   `json:"verify_url"`
	}
	resp, _, err := newClient(cfg).JSON(ctx, http.MethodPost, "/api/invoice/create/", body, "", &out)
	if err != nil {
		return err
	}
	token, err := api.SessionToken(resp)
	if err != nil {
		return err
	}
	if err := newStore(cfg).SaveSession(out.Room.RoomHash, token); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintln(Out, "Created:")
	printRoom(out.Room)
	fmt.Fprintf(Out, "Verification key: %s\n", out.VerificationKey)
	fmt.Fprintf(Out, "Verify URL:       %s\n", out.VerifyURL)
	fmt.Fprintf(Out, "Share with buyer: invoiceroom join %s <fullname>\n", out.Room.RoomHash)
	return nil
}

func init() { RegisterCmd(createCmd{}) }
