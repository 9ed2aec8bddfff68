package repo

import (
	"InvoiceRoom/internal/model"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRoomRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	r := NewRoomRepository(db)
	ctx := context.Background()

	room := mkMultiRoom("r1")
	require.NoError(t, r.Create(ctx, room, mkEntry(model.ActionCreated, model.ActorSeller)))

	got, err := r.GetByHash(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
	if assert.NotNil(t, got.Seller) {
		assert.Equal(t, "Seller r1", got.Seller.Fullname)
	}
	assert.Nil(t, got.Buyer)
	if assert.NotNil(t, got.Invoice) {
		assert.Equal(t, model.StatusDraft, got.Invoice.Status)
		assert.True(t, got.Invoice.TotalAmount.Equal(decimal.RequireFromString("2.00")))
		if assert.Len(t, got.Invoice.Items, 2) {
			// строки в порядке позиций
			assert.Equal(t, "A", got.Invoice.Items[0].ProductName)
			assert.Equal(t, "B", got.Invoice.Items[1].ProductName)
		}
	}

	// поиск по ключу проверки и по id
	byKey, err := r.GetByVerificationKey(ctx, "vk-r1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, byKey.ID)

	byID, err := r.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1", byID.RoomHash)

	// неизвестный хэш
	got, err = r.GetByHash(ctx, "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// пустой seller_hash никогда не совпадает
	_, err = r.GetBySellerHash(ctx, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// уникальность room_hash
	dup := mkRoom("r1")
	dup.VerificationKey = "other"
	assert.Error(t, r.Create(ctx, dup, mkEntry(model.ActionCreated, model.ActorSeller)))
}

func TestRoomRepository_ListAndDelete(t *testing.T) {
	db := newTestDB(t)
	r := NewRoomRepository(db)
	ctx := context.Background()

	createRoom(t, db, mkMultiRoom("a"))
	createRoom(t, db, mkRoom("b"))

	rooms, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	require.NoError(t, r.Delete(ctx, "a"))

	_, err = r.GetByHash(ctx, "a")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// зависимые записи удалены вместе с комнатой
	var cnt int64
	db.Model(&model.InvoiceItem{}).Count(&cnt)
	assert.Zero(t, cnt)
	db.Model(&model.Invoice{}).Count(&cnt)
	assert.Equal(t, int64(1), cnt)
	db.Model(&model.NegotiationHistory{}).Count(&cnt)
	assert.Equal(t, int64(1), cnt)

	// повторное удаление - не найдено
	assert.ErrorIs(t, r.Delete(ctx, "a"), gorm.ErrRecordNotFound)
}

func TestRoomRepository_HistoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	r := NewRoomRepository(db)
	ctx := context.Background()

	room := mkRoom("h1")
	createRoom(t, db, room)

	later := mkEntry(model.ActionNegotiationStarted, model.ActorSeller)
	later.RoomID = room.ID
	later.CreatedAt = time.Now().UTC().Add(time.Minute)
	require.NoError(t, db.Create(later).Error)

	hist, err := r.History(ctx, room.ID)
	require.NoError(t, err)
	if assert.Len(t, hist, 2) {
		assert.Equal(t, model.ActionNegotiationStarted, hist[0].Action)
		assert.Equal(t, model.ActionCreated, hist[1].Action)
	}
}
