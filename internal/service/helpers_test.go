package service

import (
	"context"
	"testing"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/identity"
	"InvoiceRoom/internal/ledger"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/repo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func init() {
	identity.BcryptCost = bcrypt.MinCost
}

// мок для broadcast.Broker
type mockBroker struct{ mock.Mock }

func (m *mockBroker) Subscribe(ctx context.Context, roomHash string) (*broadcast.Subscription, error) {
	args := m.Called(ctx, roomHash)
	if s, ok := args.Get(0).(*broadcast.Subscription); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBroker) Publish(ctx context.Context, roomHash string, payload []byte) error {
	args := m.Called(ctx, roomHash, payload)
	return args.Error(0)
}

var _ broadcast.Broker = (*mockBroker)(nil)

type fixture struct {
	db    *gorm.DB
	hub   *broadcast.Hub
	neg   *Negotiator
	rooms *RoomService
	auth  *SellerAuthenticator
}

// newFixture собирает сервисы поверх отдельной in-memory SQLite
func newFixture(t *testing.T, broker broadcast.Broker) *fixture {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))

	log := zap.NewNop().Sugar()
	hub := broadcast.NewHub(16, log)
	if broker == nil {
		broker = hub
	}
	rooms := repo.NewRoomRepository(db)
	return &fixture{
		db:    db,
		hub:   hub,
		neg:   NewNegotiator(rooms, repo.NewNegotiationRepository(db), broker, log),
		rooms: NewRoomService(rooms, log),
		auth:  NewSellerAuthenticator(repo.NewSellerRepository(db), rooms, log),
	}
}

func singleInput() CreateInput {
	return CreateInput{
		Seller:    model.Party{Fullname: "Alice Seller", Email: "alice@example.com"},
		SecretKey: "Str0ng!Secret",
		Invoice: ledger.Fields{
			InvoiceDate:   "2026-03-01",
			PaymentMethod: "bank transfer",
			Description:   "Consulting",
			Quantity:      "2",
			UnitPrice:     "10.00",
		},
	}
}

func multiInput() CreateInput {
	in := singleInput()
	in.Invoice.Kind = model.KindMulti
	in.Invoice.Description = ""
	in.Invoice.Quantity = ""
	in.Invoice.UnitPrice = ""
	in.Invoice.Items = []ledger.ItemInput{
		{ProductName: "Widget", Quantity: "3", UnitPrice: "1.05"},
		{ProductName: "Gadget", Quantity: "1", UnitPrice: "0.20"},
	}
	return in
}

func (f *fixture) create(t *testing.T, in CreateInput) *model.Room {
	t.Helper()
	room, err := f.neg.CreateInvoice(context.Background(), in)
	require.NoError(t, err)
	return room
}

func (f *fixture) join(t *testing.T, roomHash string) string {
	t.Helper()
	room, err := f.neg.JoinRoom(context.Background(), roomHash, model.Party{Fullname: "Bob Buyer"})
	require.NoError(t, err)
	require.NotNil(t, room.Buyer)
	return room.Buyer.BuyerHash
}

func (f *fixture) actions(t *testing.T, roomHash string) []model.HistoryAction {
	t.Helper()
	hist, err := f.rooms.History(context.Background(), roomHash)
	require.NoError(t, err)
	out := make([]model.HistoryAction, 0, len(hist))
	for _, h := range hist {
		out = append(out, h.Action)
	}
	return out
}

func ptr(s string) *string { return &s }
