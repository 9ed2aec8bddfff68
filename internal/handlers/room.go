package handlers

import (
	"net/http"

	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RoomHandler - чтение комнаты и журнала, старт переговоров.
type RoomHandler struct {
	Negotiator *service.Negotiator
	Rooms      *service.RoomService
	Logger     *zap.SugaredLogger
}

func NewRoomHandler(n *service.Negotiator, rooms *service.RoomService, logger *zap.SugaredLogger) *RoomHandler {
	return &RoomHandler{Negotiator: n, Rooms: rooms, Logger: logger}
}

// Get снимок комнаты
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.Get(r.Context(), chi.URLParam(r, "room_hash"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.OK(w, roomView(room))
}

// History журнал переговоров, новые записи первыми
func (h *RoomHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Rooms.History(r.Context(), chi.URLParam(r, "room_hash"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.JSONWithTotal(w, http.StatusOK, historyView(entries), int64(len(entries)))
}

// StartNegotiation продавец открывает переговоры
func (h *RoomHandler) StartNegotiation(w http.ResponseWriter, r *http.Request) {
	room, err := h.Negotiator.StartNegotiation(r.Context(), chi.URLParam(r, "room_hash"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.OK(w, roomView(room))
}
