// Package ledger строит счета обеих форм и пересчитывает их суммы.
// Пакет не ходит в БД: сохранение выполняет repo внутри транзакции перехода.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"InvoiceRoom/internal/model"

	"github.com/shopspring/decimal"
)

// DateLayout - формат дат счёта во входных данных и в ответах.
const DateLayout = "2006-01-02"

// Fields - входные данные для создания счёта. Числа приходят строками,
// чтобы ошибка разбора указывала на конкретное поле.
type Fields struct {
	Kind          model.InvoiceKind
	InvoiceDate   string
	DueDate       string
	PaymentMethod string

	Description string
	Quantity    string
	UnitPrice   string

	Items []ItemInput
}

// ItemInput - строка многострочного счёта во входном виде.
type ItemInput struct {
	ProductName string
	Description string
	Quantity    string
	UnitPrice   string
}

// Edit - частичное изменение счёта: nil означает «поле не передано».
type Edit struct {
	InvoiceDate   *string
	DueDate       *string
	PaymentMethod *string
	Description   *string
	Quantity      *string
	UnitPrice     *string
	Items         *[]ItemInput
}

// Empty сообщает, что в правке нет ни одного поля.
func (e Edit) Empty() bool {
	return e.InvoiceDate == nil && e.DueDate == nil && e.PaymentMethod == nil &&
		e.Description == nil && e.Quantity == nil && e.UnitPrice == nil && e.Items == nil
}

// NewInvoice строит счёт выбранной формы со статусом draft и пересчитанными суммами.
// today используется, если дата счёта не передана.
func NewInvoice(roomID string, f Fields, today time.Time) (*model.Invoice, error) {
	var v validator

	kind := f.Kind
	if kind == "" {
		kind = model.KindSingle
		if len(f.Items) > 0 {
			kind = model.KindMulti
		}
	}

	inv := &model.Invoice{
		RoomID:        roomID,
		Kind:          kind,
		PaymentMethod: strings.TrimSpace(f.PaymentMethod),
		Description:   strings.TrimSpace(f.Description),
		Status:        model.StatusDraft,
	}

	inv.InvoiceDate = truncateDay(today)
	if s := strings.TrimSpace(f.InvoiceDate); s != "" {
		inv.InvoiceDate = v.date("invoice_date", s)
	}
	if s := strings.TrimSpace(f.DueDate); s != "" {
		d := v.date("due_date", s)
		inv.DueDate = &d
	}
	if inv.PaymentMethod == "" {
		v.add("payment_method", "is required")
	}

	switch kind {
	case model.KindSingle:
		if len(f.Items) > 0 {
			v.add("items", "single-line invoice cannot have items")
		}
		if inv.Description == "" {
			v.add("description", "is required")
		}
		inv.Quantity = v.quantity("quantity", f.Quantity)
		inv.UnitPrice = v.price("unit_price", f.UnitPrice)
	case model.KindMulti:
		if len(f.Items) == 0 {
			v.add("items", "multi-line invoice needs at least one item")
		}
		inv.Items = v.items(f.Items)
	default:
		v.add("kind", fmt.Sprintf("unknown invoice kind %q", kind))
	}

	if inv.DueDate != nil && !inv.DueDate.IsZero() && inv.DueDate.Before(inv.InvoiceDate) {
		v.add("due_date", "must not be before invoice_date")
	}
	v.totals(inv)
	if err := v.err(); err != nil {
		return nil, err
	}

	Recalculate(inv)
	return inv, nil
}

// ApplyEdit применяет только переданные поля. Сначала разбираются все поля;
// при любой ошибке счёт не меняется. Успешная правка всегда возвращает статус в draft.
// replaced сообщает, что набор строк заменён и repo должен пересоздать их.
func ApplyEdit(inv *model.Invoice, e Edit) (replaced bool, err error) {
	var v validator
	if e.Empty() {
		v.add("invoice", "no fields to update")
		return false, v.err()
	}

	next := *inv
	if e.InvoiceDate != nil {
		next.InvoiceDate = v.date("invoice_date", strings.TrimSpace(*e.InvoiceDate))
	}
	if e.DueDate != nil {
		if s := strings.TrimSpace(*e.DueDate); s == "" {
			next.DueDate = nil
		} else {
			d := v.date("due_date", s)
			next.DueDate = &d
		}
	}
	if e.PaymentMethod != nil {
		next.PaymentMethod = strings.TrimSpace(*e.PaymentMethod)
		if next.PaymentMethod == "" {
			v.add("payment_method", "must not be empty")
		}
	}
	if e.Description != nil {
		next.Description = strings.TrimSpace(*e.Description)
		if next.Description == "" && inv.Kind == model.KindSingle {
			v.add("description", "must not be empty")
		}
	}

	switch inv.Kind {
	case model.KindSingle:
		if e.Quantity != nil {
			next.Quantity = v.quantity("quantity", *e.Quantity)
		}
		if e.UnitPrice != nil {
			next.UnitPrice = v.price("unit_price", *e.UnitPrice)
		}
		if e.Items != nil {
			v.add("items", "single-line invoice cannot have items")
		}
	case model.KindMulti:
		if e.Quantity != nil {
			v.add("quantity", "multi-line invoice keeps quantities on items")
		}
		if e.UnitPrice != nil {
			v.add("unit_price", "multi-line invoice keeps prices on items")
		}
		if e.Items != nil {
			if err := ReplaceItems(&next, *e.Items); err != nil {
				if !v.merge(err) {
					return false, err
				}
			} else {
				replaced = true
			}
		}
	}

	if next.DueDate != nil && !next.DueDate.IsZero() && next.DueDate.Before(next.InvoiceDate) {
		v.add("due_date", "must not be before invoice_date")
	}
	v.totals(&next)
	if err := v.err(); err != nil {
		return false, err
	}

	next.Status = model.StatusDraft
	Recalculate(&next)
	*inv = next
	return replaced, nil
}

// ReplaceItems заменяет весь набор строк многострочного счёта.
// Строки, не попавшие в items, исчезают. При ошибке счёт не меняется.
func ReplaceItems(inv *model.Invoice, in []ItemInput) error {
	var v validator
	if inv.Kind != model.KindMulti {
		v.add("items", "single-line invoice cannot have items")
		return v.err()
	}
	if len(in) == 0 {
		v.add("items", "multi-line invoice needs at least one item")
	}
	items := v.items(in)
	v.totals(&model.Invoice{Kind: model.KindMulti, Items: items})
	if err := v.err(); err != nil {
		return err
	}
	setItems(inv, items)
	Recalculate(inv)
	return nil
}

// Recalculate - единственное место, где считаются line_total и total_amount.
func Recalculate(inv *model.Invoice) {
	switch inv.Kind {
	case model.KindMulti:
		total := decimal.Zero
		for i := range inv.Items {
			it := &inv.Items[i]
			it.LineTotal = LineTotal(it.Quantity, it.UnitPrice)
			total = total.Add(it.LineTotal)
		}
		inv.Quantity = 0
		inv.UnitPrice = decimal.Zero
		inv.LineTotal = decimal.Zero
		inv.TotalAmount = total.Round(2)
	default:
		inv.LineTotal = LineTotal(inv.Quantity, inv.UnitPrice)
		inv.TotalAmount = inv.LineTotal
	}
}

// LineTotal = quantity × unit_price, округлено до копеек.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

func setItems(inv *model.Invoice, items []model.InvoiceItem) {
	for i := range items {
		items[i].InvoiceID = inv.ID
		items[i].Position = i
	}
	inv.Items = items
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
