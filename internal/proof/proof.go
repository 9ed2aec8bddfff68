// Package proof формирует PDF «подтверждение сделки» по снимку комнаты.
// Пакет только читает модель и ничего не пишет в хранилище.
package proof

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"InvoiceRoom/internal/ledger"
	"InvoiceRoom/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// ErrNoInvoice - в комнате нет счёта, документ строить не из чего.
var ErrNoInvoice = errors.New("room has no invoice")

const footerText = "System-generated document. No signature required."

// Renderer строит документ. PublicURL используется в ссылке QR-кода.
type Renderer struct {
	PublicURL string
	now       func() time.Time
}

func NewRenderer(publicURL string) *Renderer {
	return &Renderer{PublicURL: publicURL, now: time.Now}
}

// VerifyURL - ссылка проверки счёта по ключу.
func (r *Renderer) VerifyURL(key string) string {
	return r.PublicURL + "/api/invoice/verify/" + key + "/"
}

// FileName - имя файла для Content-Disposition.
func FileName(room *model.Room) string {
	return "proof_of_transaction_" + room.RoomHash + ".pdf"
}

// Render пишет PDF в w.
func (r *Renderer) Render(w io.Writer, room *model.Room) error {
	if room == nil || room.Invoice == nil {
		return ErrNoInvoice
	}
	inv := room.Invoice

	qr, err := qrcode.Encode(r.VerifyURL(room.VerificationKey), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Proof of Transaction", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, footerText, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Заголовок
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Proof of Transaction", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr("Room "+room.RoomHash), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Generated "+r.now().UTC().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Стороны
	party := func(title string, p *model.Party) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		if p == nil {
			pdf.CellFormat(0, 6, "Not assigned", "", 1, "L", false, 0, "")
			pdf.Ln(3)
			return
		}
		row := func(label, value string) {
			if value == "" {
				return
			}
			pdf.CellFormat(35, 6, label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
		}
		row("Name", p.Fullname)
		row("Email", p.Email)
		row("Phone", p.Phone)
		row("Social media", p.SocialMedia)
		pdf.Ln(3)
	}
	var seller, buyer *model.Party
	if room.Seller != nil {
		seller = &room.Seller.Party
	}
	if room.Buyer != nil {
		buyer = &room.Buyer.Party
	}
	party("Seller", seller)
	party("Buyer", buyer)

	// Реквизиты счёта
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Invoice", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(35, 6, "Invoice date", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, inv.InvoiceDate.Format(ledger.DateLayout), "", 1, "L", false, 0, "")
	if inv.DueDate != nil {
		pdf.CellFormat(35, 6, "Due date", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, inv.DueDate.Format(ledger.DateLayout), "", 1, "L", false, 0, "")
	}
	if inv.PaymentMethod != "" {
		pdf.CellFormat(35, 6, "Payment method", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(inv.PaymentMethod), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(35, 6, "Status", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, string(inv.Status), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Таблица строк
	widths := []float64{70, 45, 20, 25, 30}
	header := []string{"Product", "Description", "Qty", "Unit price", "Line total"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	line := func(product, desc string, qty int, price, total string) {
		pdf.CellFormat(widths[0], 7, tr(truncate(product, 40)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(truncate(desc, 25)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, strconv.Itoa(qty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, price, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, total, "1", 1, "R", false, 0, "")
	}
	switch inv.Kind {
	case model.KindMulti:
		for _, it := range inv.Items {
			line(it.ProductName, it.Description, it.Quantity, it.UnitPrice.StringFixed(2), it.LineTotal.StringFixed(2))
		}
	default:
		line(inv.Description, "", inv.Quantity, inv.UnitPrice.StringFixed(2), inv.LineTotal.StringFixed(2))
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 8, "Grand total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, inv.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.Ln(8)

	// QR-код со ссылкой проверки
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(qr))
	y := pdf.GetY()
	pdf.ImageOptions("verify-qr", 15, y, 40, 40, false, opts, 0, r.VerifyURL(room.VerificationKey))
	pdf.SetXY(60, y+12)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, "Scan to verify this invoice:\n"+r.VerifyURL(room.VerificationKey), "", "L", false)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
