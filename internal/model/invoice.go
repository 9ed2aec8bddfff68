package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus - состояние переговоров по счёту.
type InvoiceStatus string

const (
	StatusDraft              InvoiceStatus = "draft"
	StatusNegotiating        InvoiceStatus = "negotiating"
	StatusPending            InvoiceStatus = "pending"
	StatusUnconfirmedPayment InvoiceStatus = "unconfirmed_payment"
	StatusFinalized          InvoiceStatus = "finalized"
	StatusRejected           InvoiceStatus = "rejected"
)

// Valid сообщает, известен ли статус.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusNegotiating, StatusPending,
		StatusUnconfirmedPayment, StatusFinalized, StatusRejected:
		return true
	}
	return false
}

// InvoiceKind - форма счёта, фиксируется при создании.
type InvoiceKind string

const (
	KindSingle InvoiceKind = "single" // quantity × unit_price
	KindMulti  InvoiceKind = "multi"  // набор InvoiceItem
)

// Invoice - счёт комнаты. Итоговые суммы никогда не принимаются от клиента,
// их пересчитывает ledger.Recalculate перед каждой записью.
type Invoice struct {
	ID     uint        `gorm:"primaryKey"`
	RoomID string      `gorm:"size:36;not null;uniqueIndex"`
	Kind   InvoiceKind `gorm:"size:16;not null"`

	InvoiceDate   time.Time `gorm:"not null"`
	DueDate       *time.Time
	PaymentMethod string `gorm:"size:100"`

	// Поля однострочного счёта
	Description string          `gorm:"type:text"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status      InvoiceStatus   `gorm:"size:32;not null;index"`

	BuyerApprovedAt   *time.Time
	BuyerPaidAt       *time.Time
	SellerConfirmedAt *time.Time

	Items []InvoiceItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
