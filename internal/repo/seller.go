package repo

import (
	"InvoiceRoom/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// SellerRepository - доступ к продавцам для аутентификации по секрету.
type SellerRepository interface {
	// ListWithSecret возвращает продавцов, у которых задан секрет.
	ListWithSecret(ctx context.Context) ([]model.Seller, error)

	// SetSecret сохраняет хэш секрета продавца и зеркалит его в rooms.seller_hash.
	SetSecret(ctx context.Context, sellerID uint, hash string) error
}

type sellerRepo struct {
	db *gorm.DB
}

// NewSellerRepository создаёт реализацию репозитория продавцов.
func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &sellerRepo{db: db}
}

func (r *sellerRepo) ListWithSecret(ctx context.Context) ([]model.Seller, error) {
	var sellers []model.Seller
	err := r.db.WithContext(ctx).Where("secret_hash <> ''").Order("id ASC").Find(&sellers).Error
	return sellers, err
}

func (r *sellerRepo) SetSecret(ctx context.Context, sellerID uint, hash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seller model.Seller
		if err := lockForUpdate(tx).Where("id = ?", sellerID).First(&seller).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&model.Seller{}).Where("id = ?", seller.ID).
			Updates(map[string]any{"secret_hash": hash, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Room{}).Where("id = ?", seller.RoomID).
			Updates(map[string]any{"seller_hash": hash, "updated_at": now}).Error
	})
}
