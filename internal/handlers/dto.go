package handlers

import (
	"bytes"
	"encoding/json"
	"time"

	"InvoiceRoom/internal/ledger"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/service"
)

// flexString принимает и JSON-строку, и число: суммы и количества
// разбирает ledger, чтобы ошибка указывала на поле.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

func (f *flexString) ptr() *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}

// PartyRequest - профиль продавца или покупателя.
type PartyRequest struct {
	Fullname       string `json:"fullname"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SocialMedia    string `json:"social_media"`
	ProfilePicture string `json:"profile_picture"`
}

func (p PartyRequest) toModel() model.Party {
	return model.Party{
		Fullname:       p.Fullname,
		Email:          p.Email,
		Phone:          p.Phone,
		SocialMedia:    p.SocialMedia,
		ProfilePicture: p.ProfilePicture,
	}
}

// ItemRequest - строка многострочного счёта.
type ItemRequest struct {
	ProductName string     `json:"product_name"`
	Description string     `json:"description"`
	Quantity    flexString `json:"quantity"`
	UnitPrice   flexString `json:"unit_price"`
}

func toItemInputs(in []ItemRequest) []ledger.ItemInput {
	out := make([]ledger.ItemInput, 0, len(in))
	for _, it := range in {
		out = append(out, ledger.ItemInput{
			ProductName: it.ProductName,
			Description: it.Description,
			Quantity:    string(it.Quantity),
			UnitPrice:   string(it.UnitPrice),
		})
	}
	return out
}

// InvoiceRequest - поля счёта при создании.
type InvoiceRequest struct {
	Kind          string        `json:"kind"`
	InvoiceDate   string        `json:"invoice_date"`
	DueDate       string        `json:"due_date"`
	PaymentMethod string        `json:"payment_method"`
	Description   string        `json:"description"`
	Quantity      flexString    `json:"quantity"`
	UnitPrice     flexString    `json:"unit_price"`
	Items         []ItemRequest `json:"items"`
}

// CreateRequest - тело POST /api/invoice/create/.
type CreateRequest struct {
	Seller    PartyRequest   `json:"seller"`
	SecretKey string         `json:"secret_key"`
	Invoice   InvoiceRequest `json:"invoice"`
}

func (c CreateRequest) toInput() service.CreateInput {
	return service.CreateInput{
		Seller:    c.Seller.toModel(),
		SecretKey: c.SecretKey,
		Invoice: ledger.Fields{
			Kind:          model.InvoiceKind(c.Invoice.Kind),
			InvoiceDate:   c.Invoice.InvoiceDate,
			DueDate:       c.Invoice.DueDate,
			PaymentMethod: c.Invoice.PaymentMethod,
			Description:   c.Invoice.Description,
			Quantity:      string(c.Invoice.Quantity),
			UnitPrice:     string(c.Invoice.UnitPrice),
			Items:         toItemInputs(c.Invoice.Items),
		},
	}
}

// EditRequest - частичная правка: отсутствующее поле не меняется.
type EditRequest struct {
	InvoiceDate   *string        `json:"invoice_date"`
	DueDate       *string        `json:"due_date"`
	PaymentMethod *string        `json:"payment_method"`
	Description   *string        `json:"description"`
	Quantity      *flexString    `json:"quantity"`
	UnitPrice     *flexString    `json:"unit_price"`
	Items         *[]ItemRequest `json:"items"`
}

func (e EditRequest) toEdit() ledger.Edit {
	edit := ledger.Edit{
		InvoiceDate:   e.InvoiceDate,
		DueDate:       e.DueDate,
		PaymentMethod: e.PaymentMethod,
		Description:   e.Description,
		Quantity:      e.Quantity.ptr(),
		UnitPrice:     e.UnitPrice.ptr(),
	}
	if e.Items != nil {
		items := toItemInputs(*e.Items)
		edit.Items = &items
	}
	return edit
}

// BuyerActionRequest - тело действий покупателя.
type BuyerActionRequest struct {
	BuyerHash string `json:"buyer_hash"`
	Notes     string `json:"notes"`
}

// SecretRequest - секрет продавца.
type SecretRequest struct {
	SecretKey string `json:"secret_key"`
	RoomHash  string `json:"room_hash,omitempty"`
}

// PartyView - профиль стороны в ответах. Токены сторон сюда не попадают.
type PartyView struct {
	Fullname       string `json:"fullname"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	SocialMedia    string `json:"social_media,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

func partyView(p model.Party) *PartyView {
	return &PartyView{
		Fullname:       p.Fullname,
		Email:          p.Email,
		Phone:          p.Phone,
		SocialMedia:    p.SocialMedia,
		ProfilePicture: p.ProfilePicture,
	}
}

type ItemView struct {
	ProductName string `json:"product_name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type InvoiceView struct {
	Kind              string     `json:"kind"`
	InvoiceDate       string     `json:"invoice_date"`
	DueDate           *string    `json:"due_date"`
	PaymentMethod     string     `json:"payment_method"`
	Description       string     `json:"description,omitempty"`
	Quantity          int        `json:"quantity,omitempty"`
	UnitPrice         string     `json:"unit_price,omitempty"`
	LineTotal         string     `json:"line_total,omitempty"`
	Items             []ItemView `json:"items,omitempty"`
	TotalAmount       string     `json:"total_amount"`
	Status            string     `json:"status"`
	BuyerApprovedAt   *time.Time `json:"buyer_approved_at"`
	BuyerPaidAt       *time.Time `json:"buyer_paid_at"`
	SellerConfirmedAt *time.Time `json:"seller_confirmed_at"`
}

func invoiceView(inv *model.Invoice) *InvoiceView {
	if inv == nil {
		return nil
	}
	v := &InvoiceView{
		Kind:              string(inv.Kind),
		InvoiceDate:       inv.InvoiceDate.Format(ledger.DateLayout),
		PaymentMethod:     inv.PaymentMethod,
		TotalAmount:       inv.TotalAmount.StringFixed(2),
		Status:            string(inv.Status),
		BuyerApprovedAt:   inv.BuyerApprovedAt,
		BuyerPaidAt:       inv.BuyerPaidAt,
		SellerConfirmedAt: inv.SellerConfirmedAt,
	}
	if inv.DueDate != nil {
		d := inv.DueDate.Format(ledger.DateLayout)
		v.DueDate = &d
	}
	switch inv.Kind {
	case model.KindMulti:
		v.Items = make([]ItemView, 0, len(inv.Items))
		for _, it := range inv.Items {
			v.Items = append(v.Items, ItemView{
				ProductName: it.ProductName,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice.StringFixed(2),
				LineTotal:   it.LineTotal.StringFixed(2),
			})
		}
	default:
		v.Description = inv.Description
		v.Quantity = inv.Quantity
		v.UnitPrice = inv.UnitPrice.StringFixed(2)
		v.LineTotal = inv.LineTotal.StringFixed(2)
	}
	return v
}

// RoomView - комната целиком, как её видят обе стороны.
type RoomView struct {
	RoomHash        string       `json:"room_hash"`
	IsBuyerAssigned bool         `json:"is_buyer_assigned"`
	Seller          *PartyView   `json:"seller"`
	Buyer           *PartyView   `json:"buyer"`
	Invoice         *InvoiceView `json:"invoice"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func roomView(room *model.Room) RoomView {
	v := RoomView{
		RoomHash:        room.RoomHash,
		IsBuyerAssigned: room.IsBuyerAssigned,
		Invoice:         invoiceView(room.Invoice),
		CreatedAt:       room.CreatedAt,
		UpdatedAt:       room.UpdatedAt,
	}
	if room.Seller != nil {
		v.Seller = partyView(room.Seller.Party)
	}
	if room.Buyer != nil {
		v.Buyer = partyView(room.Buyer.Party)
	}
	return v
}

type HistoryView struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func historyView(entries []model.NegotiationHistory) []HistoryView {
	out := make([]HistoryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryView{
			ID:        e.ID,
			Action:    string(e.Action),
			Actor:     string(e.Actor),
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// AdminRoomView - строка административного списка.
type AdminRoomView struct {
	RoomHash        string    `json:"room_hash"`
	IsBuyerAssigned bool      `json:"is_buyer_assigned"`
	SellerName      string    `json:"seller_name,omitempty"`
	BuyerName       string    `json:"buyer_name,omitempty"`
	Status          string    `json:"status,omitempty"`
	TotalAmount     string    `json:"total_amount,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
