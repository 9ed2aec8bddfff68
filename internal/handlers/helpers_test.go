package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/config"
	"InvoiceRoom/internal/handlers"
	"InvoiceRoom/internal/identity"
	"InvoiceRoom/internal/proof"
	"InvoiceRoom/internal/repo"
	"InvoiceRoom/internal/service"

	"github.com/google/uuid"
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

const testSecret = "Str0ng!Secret"

type testEnv struct {
	router http.Handler
	cfg    *config.Config
	hub    *broadcast.Hub
}

// newTestEnv собирает роутер поверх in-memory SQLite и in-process рассылки
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithBroker(t, nil)
}

// newTestEnvWithBroker - то же с заданной рассылкой; nil означает Hub
func newTestEnvWithBroker(t *testing.T, broker broadcast.Broker) *testEnv {
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

	cfg := &config.Config{
		AuthSecret: "test-secret",
		AdminKey:   "admin-key",
		PublicURL:  "http://invoices.test",
	}
	log := zap.NewNop().Sugar()
	hub := broadcast.NewHub(16, log)
	if broker == nil {
		broker = hub
	}
	rooms := repo.NewRoomRepository(db)

	h := handlers.NewHandler(
		service.NewNegotiator(rooms, repo.NewNegotiationRepository(db), broker, log),
		service.NewRoomService(rooms, log),
		service.NewSellerAuthenticator(repo.NewSellerRepository(db), rooms, log),
		broker,
		proof.NewRenderer(cfg.PublicURL),
		log,
		cfg,
	)
	return &testEnv{router: h.Router, cfg: cfg, hub: hub}
}

// envelope - обёртка ответа API
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
	Error *struct {
		Code           string   `json:"code"`
		Message        string   `json:"message"`
		CurrentStatus  string   `json:"current_status"`
		ExpectedStatus []string `json:"expected_status"`
		Details        []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	return nil
}

type createdRoom struct {
	Room struct {
		RoomHash string `json:"room_hash"`
		Invoice  struct {
			Status      string `json:"status"`
			TotalAmount string `json:"total_amount"`
		} `json:"invoice"`
	} `json:"room"`
	VerificationKey string `json:"verification_key"`
	VerifyURL       string `json:"verify_url"`
}

func singleBody() map[string]any {
	return map[string]any{
		"seller":     map[string]any{"fullname": "Alice Seller", "email": "alice@example.com"},
		"secret_key": testSecret,
		"invoice": map[string]any{
			"invoice_date":   "2026-03-01",
			"payment_method": "bank transfer",
			"description":    "Consulting",
			"quantity":       2,
			"unit_price":     "10.00",
		},
	}
}

// create создаёт комнату и возвращает ответ и cookie продавца
func (e *testEnv) create(t *testing.T, body map[string]any) (createdRoom, *http.Cookie) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/invoice/create/", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out createdRoom
	decode(t, rr, &out)
	c := sessionCookie(rr)
	require.NotNil(t, c)
	return out, c
}

func (e *testEnv) join(t *testing.T, roomHash string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/buyer/join/"+roomHash+"/", map[string]any{"fullname": "Bob Buyer"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out struct {
		BuyerHash string `json:"buyer_hash"`
	}
	decode(t, rr, &out)
	require.NotEmpty(t, out.BuyerHash)
	return out.BuyerHash
}

type roomOut struct {
	RoomHash        string `json:"room_hash"`
	IsBuyerAssigned bool   `json:"is_buyer_assigned"`
	Seller          *struct {
		Fullname string `json:"fullname"`
	} `json:"seller"`
	Buyer *struct {
		Fullname string `json:"fullname"`
	} `json:"buyer"`
	Invoice struct {
		Kind            string  `json:"kind"`
		Status          string  `json:"status"`
		TotalAmount     string  `json:"total_amount"`
		BuyerApprovedAt *string `json:"buyer_approved_at"`
		Items           []struct {
			ProductName string `json:"product_name"`
			LineTotal   string `json:"line_total"`
		} `json:"items"`
	} `json:"invoice"`
}
