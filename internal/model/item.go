package model

import "github.com/shopspring/decimal"

// InvoiceItem - строка многострочного счёта. Набор строк заменяется целиком.
type InvoiceItem struct {
	ID        uint `gorm:"primaryKey"`
	InvoiceID uint `gorm:"not null;index"` // ссылка на invoices.id
	Position  int  `gorm:"not null"`

	ProductName string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}
