package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/apierror"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 64 << 10
)

// WSHandler - канал комнаты /ws/negotiation/{room_hash}/.
// Новому участнику первым приходит room_state, дальше кадры группы как есть.
type WSHandler struct {
	Rooms    *service.RoomService
	Broker   broadcast.Broker
	Logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(rooms *service.RoomService, broker broadcast.Broker, logger *zap.SugaredLogger) *WSHandler {
	return &WSHandler{
		Rooms:  rooms,
		Broker: broker,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve подключает участника к группе комнаты
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	roomHash := chi.URLParam(r, "room_hash")

	// Снимок и подписка до апгрейда: неизвестная комната получает 404, недоступная рассылка 503.
	state, err := h.Rooms.State(r.Context(), roomHash)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	snapshot, err := broadcast.StateEvent(state)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := h.Broker.Subscribe(ctx, roomHash)
	if err != nil {
		h.Logger.Errorw("subscribe failed", "room_hash", roomHash, "error", err)
		response.Error(w, apierror.ServiceUnavailable("room channel unavailable"))
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Debugw("websocket upgrade failed", "room_hash", roomHash, "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
		return
	}

	h.Logger.Infow("websocket connected", "group", sub.Group)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		h.writeLoop(conn, sub)
		// Снимает блокировку ReadMessage, если писатель вышел первым.
		_ = conn.Close()
	}()

	h.readLoop(ctx, conn, roomHash)

	cancel()
	sub.Close()
	wg.Wait()
	h.Logger.Infow("websocket disconnected", "group", sub.Group)
}

// readLoop пересылает текстовые кадры клиента в группу без разбора.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, roomHash string) {
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Debugw("websocket read failed", "room_hash", roomHash, "error", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if err := h.Broker.Publish(ctx, roomHash, data); err != nil {
			h.Logger.Warnw("relay failed", "room_hash", roomHash, "error", err)
		}
	}
}

// writeLoop единственный писатель в соединение после снимка.
func (h *WSHandler) writeLoop(conn *websocket.Conn, sub *broadcast.Subscription) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
