package handlers

import (
	"context"
	"net/http"

	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuyerHandler - вход покупателя и его решения по счёту.
type BuyerHandler struct {
	Negotiator *service.Negotiator
	Logger     *zap.SugaredLogger
}

func NewBuyerHandler(n *service.Negotiator, logger *zap.SugaredLogger) *BuyerHandler {
	return &BuyerHandler{Negotiator: n, Logger: logger}
}

// JoinResponse - buyer_hash выдаётся один раз, клиент обязан его сохранить.
type JoinResponse struct {
	BuyerHash string   `json:"buyer_hash"`
	Room      RoomView `json:"room"`
}

// Join покупатель занимает комнату
func (h *BuyerHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req PartyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	room, err := h.Negotiator.JoinRoom(r.Context(), chi.URLParam(r, "room_hash"), req.toModel())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.Created(w, JoinResponse{BuyerHash: room.Buyer.BuyerHash, Room: roomView(room)})
}

type buyerAction func(ctx context.Context, roomHash string, req BuyerActionRequest) (*model.Room, error)

func (h *BuyerHandler) act(fn buyerAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BuyerActionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, h.Logger, err)
			return
		}
		room, err := fn(r.Context(), chi.URLParam(r, "room_hash"), req)
		if err != nil {
			writeError(w, h.Logger, err)
			return
		}
		response.OK(w, roomView(room))
	}
}

// Approve покупатель одобряет счёт
func (h *BuyerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.act(func(ctx context.Context, roomHash string, req BuyerActionRequest) (*model.Room, error) {
		return h.Negotiator.Approve(ctx, roomHash, req.BuyerHash)
	})(w, r)
}

// Disapprove покупатель возвращает счёт на доработку
func (h *BuyerHandler) Disapprove(w http.ResponseWriter, r *http.Request) {
	h.act(func(ctx context.Context, roomHash string, req BuyerActionRequest) (*model.Room, error) {
		return h.Negotiator.Disapprove(ctx, roomHash, req.BuyerHash, req.Notes)
	})(w, r)
}

// Reject покупатель отклоняет счёт
func (h *BuyerHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.act(func(ctx context.Context, roomHash string, req BuyerActionRequest) (*model.Room, error) {
		return h.Negotiator.Reject(ctx, roomHash, req.BuyerHash, req.Notes)
	})(w, r)
}

// MarkPaid покупатель сообщает об оплате
func (h *BuyerHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.act(func(ctx context.Context, roomHash string, req BuyerActionRequest) (*model.Room, error) {
		return h.Negotiator.MarkPaid(ctx, roomHash, req.BuyerHash)
	})(w, r)
}
