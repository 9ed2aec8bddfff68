package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"InvoiceRoom/internal/config"
)

type verifyCmd struct{}

func (verifyCmd) Name() string        { return "verify" }
func (verifyCmd) Description() string { return "Verify an invoice by its verification key" }
func (verifyCmd) Usage() string       { return "verify <verification_key>" }

func (verifyCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	var out struct {
		Verified   bool         `json:"verified"`
		SellerName string       `json:"seller_name"`
		BuyerName  string       `json:"buyer_name"`
		Invoice    *invoiceView `json:"invoice"`
	}
	if _, _, err := newClient(cfg).JSON(ctx, http.MethodGet, "/api/invoice/verify/"+url.PathEscape(args[0])+"/", nil, "", &out); err != nil {
		return err
	}
	if !out.Verified || out.Invoice == nil {
		fmt.Fprintln(Out, "Not verified")
		return nil
	}
	fmt.Fprintln(Out, "Verified invoice")
	fmt.Fprintf(Out, "Seller:  %s\n", out.SellerName)
	if out.BuyerName != "" {
		fmt.Fprintf(Out, "Buyer:   %s\n", out.BuyerName)
	}
	fmt.Fprintf(Out, "Date:    %s\n", out.Invoice.InvoiceDate)
	fmt.Fprintf(Out, "Status:  %s\n", out.Invoice.Status)
	fmt.Fprintf(Out, "Total:   %s\n", out.Invoice.TotalAmount)
	return nil
}

// savePDF пишет документ в path или в файл с именем от сервера.
func savePDF(name, path string, data []byte) (string, error) {
	if path == "" {
		path = name
	}
	if path == "" {
		path = "invoice.pdf"
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type proofCmd struct{}

func (proofCmd) Name() string { return "proof" }
func (proofCmd) Description() string {
	return "Download the proof-of-transaction PDF by verification key"
}
func (proofCmd) Usage() string { return "proof <verification_key> [out.pdf]" }

func (proofCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	var buf bytes.Buffer
	name, err := newClient(cfg).Download(ctx, "/api/invoice/verify/"+url.PathEscape(args[0])+"/proof/", "", &buf)
	if err != nil {
		return err
	}
	out := ""
	if len(args) == 2 {
		out = args[1]
	}
	path, err := savePDF(name, out, buf.Bytes())
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Saved %s (%d bytes)\n", path, buf.Len())
	return nil
}

type downloadCmd struct{}

func (downloadCmd) Name() string        { return "download" }
func (downloadCmd) Description() string { return "Download the room PDF as its seller or buyer" }
func (downloadCmd) Usage() string       { return "download <room_hash> [out.pdf]" }

func (downloadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	roomHash := args[0]
	store := newStore(cfg)
	path := "/api/invoice/" + roomHash + "/download/"
	tok, err := store.LoadSession(roomHash)
	if err != nil {
		buyerHash, berr := store.LoadBuyer(roomHash)
		if berr != nil {
			return fmt.Errorf("no seller session or buyer token stored for %s", roomHash)
		}
		path += "?buyer_hash=" + url.QueryEscape(buyerHash)
		tok = ""
	}

	var buf bytes.Buffer
	name, err := newClient(cfg).Download(ctx, path, tok, &buf)
	if err != nil {
		return err
	}
	out := ""
	if len(args) == 2 {
		out = args[1]
	}
	saved, err := savePDF(name, out, buf.Bytes())
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Saved %s (%d bytes)\n", saved, buf.Len())
	return nil
}

func init() {
	RegisterCmd(verifyCmd{})
	RegisterCmd(proofCmd{})
	RegisterCmd(downloadCmd{})
}
