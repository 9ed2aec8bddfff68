package commands

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/config"
	"InvoiceRoom/internal/handlers"
	"InvoiceRoom/internal/identity"
	"InvoiceRoom/internal/proof"
	"InvoiceRoom/internal/repo"
	"InvoiceRoom/internal/service"

	"github.com/google/uuid"
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

// withTempConfig направляет файл состояния в temp, чтобы тесты не трогали домашний каталог.
func withTempConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerURL: serverURL,
		StateFile: filepath.Join(t.TempDir(), "state.json"),
	}
}

// newTestServer поднимает настоящий роутер поверх in-memory SQLite.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop().Sugar()
	hub := broadcast.NewHub(16, log)
	rooms := repo.NewRoomRepository(db)
	cfg := &config.Config{AuthSecret: "test-secret", PublicURL: "http://invoices.test"}
	h := handlers.NewHandler(
		service.NewNegotiator(rooms, repo.NewNegotiationRepository(db), hub, log),
		service.NewRoomService(rooms, log),
		service.NewSellerAuthenticator(repo.NewSellerRepository(db), rooms, log),
		hub,
		proof.NewRenderer(cfg.PublicURL),
		log,
		cfg,
	)
	ts := httptest.NewServer(h.Router)
	t.Cleanup(ts.Close)
	return ts
}
