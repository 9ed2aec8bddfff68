package repo

import (
	"InvoiceRoom/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrBuyerAssigned - в комнате уже есть покупатель.
var ErrBuyerAssigned = errors.New("room already has a buyer")

// RoomRepository - доступ к агрегату Room. Ненайденные записи возвращают gorm.ErrRecordNotFound.
type RoomRepository interface {
	// Create сохраняет комнату вместе с продавцом, счётом, строками и первой записью журнала.
	Create(ctx context.Context, room *model.Room, entry *model.NegotiationHistory) error

	GetByHash(ctx context.Context, roomHash string) (*model.Room, error)
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetBySellerHash(ctx context.Context, sellerHash string) (*model.Room, error)
	GetByVerificationKey(ctx context.Context, key string) (*model.Room, error)

	// List возвращает все комнаты, новые первыми.
	List(ctx context.Context) ([]model.Room, error)

	// Delete удаляет комнату и всё, что ей принадлежит.
	Delete(ctx context.Context, roomHash string) error

	// History возвращает журнал комнаты, новые записи первыми.
	History(ctx context.Context, roomID string) ([]model.NegotiationHistory, error)
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepository создаёт реализацию репозитория комнат.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room, entry *model.NegotiationHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		entry.RoomID = room.ID
		return tx.Create(entry).Error
	})
}

func (r *roomRepo) GetByHash(ctx context.Context, roomHash string) (*model.Room, error) {
	return r.first(ctx, "room_hash = ?", roomHash)
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *roomRepo) GetBySellerHash(ctx context.Context, sellerHash string) (*model.Room, error) {
	if sellerHash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return r.first(ctx, "seller_hash = ?", sellerHash)
}

func (r *roomRepo) GetByVerificationKey(ctx context.Context, key string) (*model.Room, error) {
	return r.first(ctx, "verification_key = ?", key)
}

func (r *roomRepo) first(ctx context.Context, query string, arg any) (*model.Room, error) {
	var room model.Room
	err := withAggregate(r.db.WithContext(ctx)).Where(query, arg).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) List(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Preload("Buyer").
		Preload("Invoice").
		Order("created_at DESC").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) Delete(ctx context.Context, roomHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := tx.Where("room_hash = ?", roomHash).First(&room).Error; err != nil {
			return err
		}
		// каскад вручную: внешние ключи SQLite могут быть выключены
		invoiceIDs := tx.Model(&model.Invoice{}).Select("id").Where("room_id = ?", room.ID)
		if err := tx.Where("invoice_id IN (?)", invoiceIDs).Delete(&model.InvoiceItem{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&model.Invoice{}, &model.NegotiationHistory{}, &model.Buyer{}, &model.Seller{}} {
			if err := tx.Where("room_id = ?", room.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&room).Error
	})
}

func (r *roomRepo) History(ctx context.Context, roomID string) ([]model.NegotiationHistory, error) {
	var entries []model.NegotiationHistory
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}

// withAggregate подгружает всё содержимое комнаты; строки счёта - в порядке позиций.
func withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Seller").
		Preload("Buyer").
		Preload("Invoice").
		Preload("Invoice.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// lockForUpdate добавляет SELECT ... FOR UPDATE там, где СУБД это поддерживает.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if isSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
