package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"InvoiceRoom/internal/model"

	"github.com/shopspring/decimal"
)

// Пределы колонок numeric(12,2): цена, line_total и total_amount строго меньше 1e10.
var maxAmount = decimal.New(1, 10)

// MaxQuantity - наибольшее количество в одной строке.
const MaxQuantity = 1_000_000

// FieldError - ошибка разбора одного поля.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError - правка или создание отклонены целиком.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid invoice: " + strings.Join(parts, "; ")
}

type validator struct {
	fields []FieldError
}

func (v *validator) add(field, msg string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// merge забирает поля из ValidationError; false - ошибка другого рода.
func (v *validator) merge(err error) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	v.fields = append(v.fields, ve.Fields...)
	return true
}

// totals проверяет, что пересчитанные суммы помещаются в колонки. Счёт не меняется.
func (v *validator) totals(inv *model.Invoice) {
	switch inv.Kind {
	case model.KindMulti:
		total := decimal.Zero
		for i, it := range inv.Items {
			line := LineTotal(it.Quantity, it.UnitPrice)
			if line.GreaterThanOrEqual(maxAmount) {
				v.add(fmt.Sprintf("items[%d].line_total", i), "must be less than "+maxAmount.String())
			}
			total = total.Add(line)
		}
		if total.GreaterThanOrEqual(maxAmount) {
			v.add("total_amount", "must be less than "+maxAmount.String())
		}
	default:
		if LineTotal(inv.Quantity, inv.UnitPrice).GreaterThanOrEqual(maxAmount) {
			v.add("total_amount", "must be less than "+maxAmount.String())
		}
	}
}

func (v *validator) date(field, s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		v.add(field, "must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	return d
}

func (v *validator) quantity(field, s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		v.add(field, "is required")
		return 0
	}
	q, err := strconv.Atoi(s)
	if err != nil {
		v.add(field, "must be an integer")
		return 0
	}
	if q < 1 {
		v.add(field, "must be at least 1")
		return 0
	}
	if q > MaxQuantity {
		v.add(field, fmt.Sprintf("must be at most %d", MaxQuantity))
		return 0
	}
	return q
}

func (v *validator) price(field, s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		v.add(field, "is required")
		return decimal.Zero
	}
	p, err := decimal.NewFromString(s)
	if err != nil {
		v.add(field, "must be a decimal number")
		return decimal.Zero
	}
	switch {
	case p.IsNegative():
		v.add(field, "must not be negative")
	case !p.Equal(p.Round(2)):
		v.add(field, "must have at most 2 decimal places")
	case p.GreaterThanOrEqual(maxAmount):
		v.add(field, "must be less than "+maxAmount.String())
	default:
		return p.Round(2)
	}
	return decimal.Zero
}

func (v *validator) items(in []ItemInput) []model.InvoiceItem {
	out := make([]model.InvoiceItem, 0, len(in))
	for i, it := range in {
		prefix := fmt.Sprintf("items[%d].", i)
		name := strings.TrimSpace(it.ProductName)
		if name == "" {
			v.add(prefix+"product_name", "is required")
		}
		out = append(out, model.InvoiceItem{
			Position:    i,
			ProductName: name,
			Description: strings.TrimSpace(it.Description),
			Quantity:    v.quantity(prefix+"quantity", it.Quantity),
			UnitPrice:   v.price(prefix+"unit_price", it.UnitPrice),
		})
	}
	return out
}
