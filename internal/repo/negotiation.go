package repo

import (
	"InvoiceRoom/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrStaleStatus - статус счёта изменился между чтением и записью.
var ErrStaleStatus = errors.New("invoice status changed concurrently")

// Mutation описывает, что записать после успешного перехода.
type Mutation struct {
	Entry        *model.NegotiationHistory
	ReplaceItems bool
}

// MutateFunc проверяет предусловия и меняет room.Invoice в памяти.
// Ошибка откатывает транзакцию: ни счёт, ни журнал не меняются.
type MutateFunc func(room *model.Room) (*Mutation, error)

// NegotiationRepository - единственная точка записи статуса счёта.
type NegotiationRepository interface {
	// Apply блокирует строку счёта комнаты, вызывает fn и в той же транзакции
	// сохраняет счёт (compare-and-swap по прежнему статусу) и запись журнала.
	Apply(ctx context.Context, roomHash string, fn MutateFunc) (*model.Room, error)

	// AssignBuyer назначает покупателя, если его ещё нет, и пишет запись журнала.
	AssignBuyer(ctx context.Context, roomHash string, buyer *model.Buyer, entry *model.NegotiationHistory) (*model.Room, error)
}

type negotiationRepo struct {
	db *gorm.DB
}

// NewNegotiationRepository создаёт реализацию репозитория переходов.
func NewNegotiationRepository(db *gorm.DB) NegotiationRepository {
	return &negotiationRepo{db: db}
}

func (r *negotiationRepo) Apply(ctx context.Context, roomHash string, fn MutateFunc) (*model.Room, error) {
	var out *model.Room
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := tx.Preload("Seller").Preload("Buyer").
			Where("room_hash = ?", roomHash).First(&room).Error; err != nil {
			return err
		}

		var inv model.Invoice
		if err := lockForUpdate(tx).Where("room_id = ?", room.ID).First(&inv).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Order("position ASC").Find(&inv.Items).Error; err != nil {
			return err
		}
		room.Invoice = &inv
		prev := inv.Status

		m, err := fn(&room)
		if err != nil {
			return err
		}

		res := tx.Model(&model.Invoice{}).
			Where("id = ? AND status = ?", inv.ID, prev).
			Updates(map[string]any{
				"invoice_date":        inv.InvoiceDate,
				"due_date":            inv.DueDate,
				"payment_method":      inv.PaymentMethod,
				"description":         inv.Description,
				"quantity":            inv.Quantity,
				"unit_price":          inv.UnitPrice,
				"line_total":          inv.LineTotal,
				"total_amount":        inv.TotalAmount,
				"status":              inv.Status,
				"buyer_approved_at":   inv.BuyerApprovedAt,
				"buyer_paid_at":       inv.BuyerPaidAt,
				"seller_confirmed_at": inv.SellerConfirmedAt,
				"updated_at":          time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		if m.ReplaceItems {
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&model.InvoiceItem{}).Error; err != nil {
				return err
			}
			for i := range inv.Items {
				inv.Items[i].ID = 0
				inv.Items[i].InvoiceID = inv.ID
				inv.Items[i].Position = i
			}
			if len(inv.Items) > 0 {
				if err := tx.Create(&inv.Items).Error; err != nil {
					return err
				}
			}
		}

		if m.Entry != nil {
			m.Entry.RoomID = room.ID
			if err := tx.Create(m.Entry).Error; err != nil {
				return err
			}
		}
		out = &room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *negotiationRepo) AssignBuyer(ctx context.Context, roomHash string, buyer *model.Buyer, entry *model.NegotiationHistory) (*model.Room, error) {
	var out *model.Room
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := lockForUpdate(tx).Where("room_hash = ?", roomHash).First(&room).Error; err != nil {
			return err
		}
		if room.IsBuyerAssigned {
			return ErrBuyerAssigned
		}

		res := tx.Model(&model.Room{}).
			Where("id = ? AND is_buyer_assigned = ?", room.ID, false).
			Updates(map[string]any{"is_buyer_assigned": true, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBuyerAssigned
		}

		buyer.RoomID = room.ID
		if err := tx.Create(buyer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrBuyerAssigned
			}
			return err
		}
		entry.RoomID = room.ID
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		if err := withAggregate(tx).Where("id = ?", room.ID).First(&room).Error; err != nil {
			return err
		}
		out = &room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
