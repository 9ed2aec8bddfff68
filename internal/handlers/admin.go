package handlers

import (
	"net/http"

	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler - просмотр и удаление комнат.
type AdminHandler struct {
	Rooms  *service.RoomService
	Logger *zap.SugaredLogger
}

func NewAdminHandler(rooms *service.RoomService, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{Rooms: rooms, Logger: logger}
}

// List все комнаты, новые первыми
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	out := make([]AdminRoomView, 0, len(rooms))
	for _, room := range rooms {
		v := AdminRoomView{
			RoomHash:        room.RoomHash,
			IsBuyerAssigned: room.IsBuyerAssigned,
			CreatedAt:       room.CreatedAt,
		}
		if room.Seller != nil {
			v.SellerName = room.Seller.Fullname
		}
		if room.Buyer != nil {
			v.BuyerName = room.Buyer.Fullname
		}
		if room.Invoice != nil {
			v.Status = string(room.Invoice.Status)
			v.TotalAmount = room.Invoice.TotalAmount.StringFixed(2)
		}
		out = append(out, v)
	}
	response.JSONWithTotal(w, http.StatusOK, out, int64(len(out)))
}

// Delete удаляет комнату
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Rooms.Delete(r.Context(), chi.URLParam(r, "room_hash")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.NoContent(w)
}
