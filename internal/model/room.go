package model

import "time"

// Room - агрегат одной переговорной сессии продавца и покупателя.
// Внутренний ID никогда не показывается наружу: клиенты видят только RoomHash.
type Room struct {
	ID              string `gorm:"primaryKey;size:36"`
	RoomHash        string `gorm:"size:32;not null;uniqueIndex"`
	VerificationKey string `gorm:"size:64;not null;uniqueIndex"`
	// SellerHash всегда равен Seller.SecretHash
	SellerHash      string `gorm:"size:100"`
	IsBuyerAssigned bool   `gorm:"not null"`

	// Связи
	Seller  *Seller              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Buyer   *Buyer               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Invoice *Invoice             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	History []NegotiationHistory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Party - общие поля профиля продавца и покупателя.
type Party struct {
	Fullname       string `gorm:"size:255;not null"`
	Email          string `gorm:"size:255"`
	Phone          string `gorm:"size:64"`
	SocialMedia    string `gorm:"size:255"`
	ProfilePicture string `gorm:"size:512"`
}

// Seller - продавец комнаты. Секрет хранится только в виде bcrypt-хэша.
type Seller struct {
	ID     uint   `gorm:"primaryKey"`
	RoomID string `gorm:"size:36;not null;uniqueIndex"`
	Party
	SecretHash string `gorm:"size:100"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Buyer - единственный покупатель комнаты.
type Buyer struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    string `gorm:"size:36;not null;uniqueIndex"`
	BuyerHash string `gorm:"size:32;not null;uniqueIndex"`
	Party

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
