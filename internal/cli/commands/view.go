package commands

import (
	"fmt"
	"time"
)

type partyView struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

type itemView struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type invoiceView struct {
	Kind          string     `json:"kind"`
	InvoiceDate   string     `json:"invoice_date"`
	DueDate       *string    `json:"due_date"`
	PaymentMethod string     `json:"payment_method"`
	Description   string     `json:"description"`
	Quantity      int        `json:"quantity"`
	UnitPrice     string     `json:"unit_price"`
	Items         []itemView `json:"items"`
	TotalAmount   string     `json:"total_amount"`
	Status        string     `json:"status"`
}

type roomView struct {
	RoomHash        string       `json:"room_hash"`
	IsBuyerAssigned bool         `json:"is_buyer_assigned"`
	Seller          *partyView   `json:"seller"`
	Buyer           *partyView   `json:"buyer"`
	Invoice         *invoiceView `json:"invoice"`
}

type historyView struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// printRoom печатает краткую сводку комнаты.
func printRoom(r roomView) {
	fmt.Fprintf(Out, "Room:    %s\n", r.RoomHash)
	if r.Seller != nil {
		fmt.Fprintf(Out, "Seller:  %s\n", r.Seller.Fullname)
	}
	if r.Buyer != nil {
		fmt.Fprintf(Out, "Buyer:   %s\n", r.Buyer.Fullname)
	} else {
		fmt.Fprintln(Out, "Buyer:   <not joined>")
	}
	inv := r.Invoice
	if inv == nil {
		return
	}
	fmt.Fprintf(Out, "Status:  %s\n", inv.Status)
	fmt.Fprintf(Out, "Date:    %s", inv.InvoiceDate)
	if inv.DueDate != nil {
		fmt.Fprintf(Out, " (due %s)", *inv.DueDate)
	}
	fmt.Fprintln(Out)
	fmt.Fprintf(Out, "Payment: %s\n", inv.PaymentMethod)
	if inv.Kind == "multi" {
		for _, it := range inv.Items {
			fmt.Fprintf(Out, "  - %s  %d x %s = %s\n", it.ProductName, it.Quantity, it.UnitPrice, it.LineTotal)
		}
	} else {
		fmt.Fprintf(Out, "  - %s  %d x %s\n", inv.Description, inv.Quantity, inv.UnitPrice)
	}
	fmt.Fprintf(Out, "Total:   %s\n", inv.TotalAmount)
}
