package repo

import (
	"InvoiceRoom/internal/model"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// newTestDB инициализирует отдельную in-memory SQLite (modernc.org/sqlite) на каждый тест
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

// хелпер: комната с однострочным счётом в статусе draft
func mkRoom(hash string) *model.Room {
	return &model.Room{
		ID:              uuid.NewString(),
		RoomHash:        hash,
		VerificationKey: "vk-" + hash,
		Seller:          &model.Seller{Party: model.Party{Fullname: "Seller " + hash}},
		Invoice: &model.Invoice{
			Kind:        model.KindSingle,
			InvoiceDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("10.00"),
			LineTotal:   decimal.RequireFromString("20.00"),
			TotalAmount: decimal.RequireFromString("20.00"),
			Status:      model.StatusDraft,
		},
	}
}

// хелпер: комната с многострочным счётом
func mkMultiRoom(hash string) *model.Room {
	room := mkRoom(hash)
	room.Invoice.Kind = model.KindMulti
	room.Invoice.Quantity = 0
	room.Invoice.UnitPrice = decimal.Zero
	room.Invoice.LineTotal = decimal.Zero
	room.Invoice.Items = []model.InvoiceItem{
		{Position: 0, ProductName: "A", Quantity: 1, UnitPrice: decimal.RequireFromString("1.00"), LineTotal: decimal.RequireFromString("1.00")},
		{Position: 1, ProductName: "B", Quantity: 2, UnitPrice: decimal.RequireFromString("0.50"), LineTotal: decimal.RequireFromString("1.00")},
	}
	room.Invoice.TotalAmount = decimal.RequireFromString("2.00")
	return room
}

func mkEntry(action model.HistoryAction, actor model.Actor) *model.NegotiationHistory {
	return &model.NegotiationHistory{
		ID:     uuid.NewString()[:26],
		Action: action,
		Actor:  actor,
	}
}

func createRoom(t *testing.T, db *gorm.DB, room *model.Room) {
	t.Helper()
	if err := NewRoomRepository(db).Create(context.Background(), room, mkEntry(model.ActionCreated, model.ActorSeller)); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
}
