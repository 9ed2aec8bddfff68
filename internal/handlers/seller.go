package handlers

import (
	"net/http"

	"InvoiceRoom/internal/config"
	"InvoiceRoom/internal/middleware"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SellerHandler обрабатывает вход продавца и его действия.
type SellerHandler struct {
	Negotiator *service.Negotiator
	Sellers    *service.SellerAuthenticator
	Logger     *zap.SugaredLogger
	Config     *config.Config
}

// NewSellerHandler создаёт хендлер продавца
func NewSellerHandler(n *service.Negotiator, sellers *service.SellerAuthenticator, logger *zap.SugaredLogger, cfg *config.Config) *SellerHandler {
	return &SellerHandler{Negotiator: n, Sellers: sellers, Logger: logger, Config: cfg}
}

type LoginResponse struct {
	RoomHash string `json:"room_hash"`
}

// Login вход продавца по секрету
func (h *SellerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req SecretRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	var (
		room *model.Room
		err  error
	)
	if req.RoomHash != "" {
		room, err = h.Sellers.AuthenticateRoom(r.Context(), req.RoomHash, req.SecretKey)
	} else {
		room, err = h.Sellers.Authenticate(r.Context(), req.SecretKey)
	}
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	s := middleware.Session{RoomHash: room.RoomHash}
	if room.Seller != nil {
		s.SellerID = room.Seller.ID
	}
	if err := middleware.SetLoginCookie(w, s, h.Config.AuthSecret, h.Config.SessionTTL); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("seller logged in", "room_hash", room.RoomHash)
	response.OK(w, LoginResponse{RoomHash: room.RoomHash})
}

// Logout закрывает сессию продавца
func (h *SellerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearLoginCookie(w)
	response.NoContent(w)
}

// ConfirmPayment продавец подтверждает оплату
func (h *SellerHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	room, err := h.Negotiator.ConfirmPayment(r.Context(), chi.URLParam(r, "room_hash"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.OK(w, roomView(room))
}

// SetSecret задаёт новый секрет продавца
func (h *SellerHandler) SetSecret(w http.ResponseWriter, r *http.Request) {
	var req SecretRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if err := h.Sellers.SetSecret(r.Context(), chi.URLParam(r, "room_hash"), req.SecretKey); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.NoContent(w)
}
