package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"InvoiceRoom/internal/broadcast"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEvent struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
	Message map[string]any `json:"message"`
}

func dialRoom(t *testing.T, srv *httptest.Server, roomHash string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/negotiation/" + roomHash + "/"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev wsEvent
	require.NoError(t, json.Unmarshal(data, &ev), string(data))
	return ev
}

// Первым кадром приходит room_state, затем события переходов
func TestWS_SnapshotThenUpdates(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)

	created, _ := e.create(t, singleBody())
	hash := created.Room.RoomHash

	conn := dialRoom(t, srv, hash)
	ev := readEvent(t, conn)
	assert.Equal(t, "room_state", ev.Type)
	assert.Equal(t, hash, ev.Data["room_hash"])
	assert.Equal(t, false, ev.Data["is_buyer_assigned"])
	assert.Equal(t, "draft", ev.Data["invoice_status"])

	require.Eventually(t, func() bool { return e.hub.Subscribers(hash) == 1 }, 2*time.Second, 10*time.Millisecond)

	buyer := e.join(t, hash)
	ev = readEvent(t, conn)
	assert.Equal(t, "negotiation_update", ev.Type)
	assert.Equal(t, "buyer_joined", ev.Message["action"])

	rr := e.do(t, http.MethodPost, "/api/buyer/"+hash+"/approve/", map[string]any{"buyer_hash": buyer})
	require.Equal(t, http.StatusOK, rr.Code)
	ev = readEvent(t, conn)
	assert.Equal(t, "negotiation_update", ev.Type)
	assert.Equal(t, "approved", ev.Message["action"])
	assert.Equal(t, "buyer", ev.Message["actor"])
	assert.Equal(t, "pending", ev.Message["status"])
}

// Кадр клиента уходит всем участникам комнаты, включая отправителя
func TestWS_RelayVerbatim(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)

	created, _ := e.create(t, singleBody())
	hash := created.Room.RoomHash

	a := dialRoom(t, srv, hash)
	b := dialRoom(t, srv, hash)
	readEvent(t, a)
	readEvent(t, b)
	require.Eventually(t, func() bool { return e.hub.Subscribers(hash) == 2 }, 2*time.Second, 10*time.Millisecond)

	frame := `{"type":"chat","data":{"text":"hello"}}`
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(frame)))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, frame, string(data))
	}
}

func TestWS_UnknownRoom(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/negotiation/missing/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// После отключения подписка снимается с группы
func TestWS_DisconnectUnsubscribes(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)

	created, _ := e.create(t, singleBody())
	hash := created.Room.RoomHash

	conn := dialRoom(t, srv, hash)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return e.hub.Subscribers(hash) == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	assert.Eventually(t, func() bool { return e.hub.Subscribers(hash) == 0 }, 2*time.Second, 10*time.Millisecond)
}

// downBroker - рассылка, до которой не достучаться
type downBroker struct{}

func (downBroker) Subscribe(context.Context, string) (*broadcast.Subscription, error) {
	return nil, errors.New("connection refused")
}

func (downBroker) Publish(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

// Недоступная рассылка даёт 503 до апгрейда, переходы при этом работают
func TestWS_BrokerUnavailable(t *testing.T) {
	e := newTestEnvWithBroker(t, downBroker{})
	created, _ := e.create(t, singleBody())
	hash := created.Room.RoomHash

	rr := e.do(t, http.MethodGet, "/ws/negotiation/"+hash+"/", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code, rr.Body.String())
	env := decode(t, rr, nil)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)

	buyerHash := e.join(t, hash)
	rr = e.do(t, http.MethodPost, "/api/buyer/"+hash+"/approve/", map[string]any{"buyer_hash": buyerHash})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
