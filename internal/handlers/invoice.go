package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"InvoiceRoom/internal/config"
	"InvoiceRoom/internal/middleware"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/proof"
	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/apierror"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// InvoiceHandler - создание и правка счёта, проверка и PDF.
type InvoiceHandler struct {
	Negotiator *service.Negotiator
	Rooms      *service.RoomService
	Renderer   *proof.Renderer
	Logger     *zap.SugaredLogger
	Config     *config.Config
}

// NewInvoiceHandler создаёт хендлер счетов
func NewInvoiceHandler(n *service.Negotiator, rooms *service.RoomService, renderer *proof.Renderer, logger *zap.SugaredLogger, cfg *config.Config) *InvoiceHandler {
	return &InvoiceHandler{Negotiator: n, Rooms: rooms, Renderer: renderer, Logger: logger, Config: cfg}
}

// CreateResponse - ответ на создание комнаты. VerificationKey видит только продавец.
type CreateResponse struct {
	Room            RoomView `json:"room"`
	VerificationKey string   `json:"verification_key"`
	VerifyURL       string   `json:"verify_url"`
}

// VerifyResponse - публичная проверка счёта по ключу.
type VerifyResponse struct {
	Verified   bool         `json:"verified"`
	SellerName string       `json:"seller_name"`
	BuyerName  string       `json:"buyer_name,omitempty"`
	Invoice    *InvoiceView `json:"invoice"`
}

// Create создаёт комнату со счётом и открывает сессию продавца
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	room, err := h.Negotiator.CreateInvoice(r.Context(), req.toInput())
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

	response.Created(w, CreateResponse{
		Room:            roomView(room),
		VerificationKey: room.VerificationKey,
		VerifyURL:       h.Renderer.VerifyURL(room.VerificationKey),
	})
}

// Edit правит счёт и возвращает его в draft
func (h *InvoiceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	room, err := h.Negotiator.EditInvoice(r.Context(), chi.URLParam(r, "room_hash"), req.toEdit())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	response.OK(w, roomView(room))
}

// Verify показывает счёт по ключу проверки
func (h *InvoiceHandler) Verify(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.Verify(r.Context(), chi.URLParam(r, "verification_key"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	resp := VerifyResponse{
		Verified: room.Invoice != nil,
		Invoice:  invoiceView(room.Invoice),
	}
	if room.Seller != nil {
		resp.SellerName = room.Seller.Fullname
	}
	if room.Buyer != nil {
		resp.BuyerName = room.Buyer.Fullname
	}
	response.OK(w, resp)
}

// Proof отдаёт PDF по ключу проверки
func (h *InvoiceHandler) Proof(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.Verify(r.Context(), chi.URLParam(r, "verification_key"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.writePDF(w, room)
}

// Download отдаёт PDF продавцу комнаты или покупателю по buyer_hash
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	roomHash := chi.URLParam(r, "room_hash")

	var (
		room *model.Room
		err  error
	)
	if isSellerOf(r, roomHash) {
		room, err = h.Rooms.Get(r.Context(), roomHash)
	} else {
		room, err = h.Rooms.ForBuyer(r.Context(), roomHash, r.URL.Query().Get("buyer_hash"))
	}
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.writePDF(w, room)
}

func (h *InvoiceHandler) writePDF(w http.ResponseWriter, room *model.Room) {
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, room); err != nil {
		if errors.Is(err, proof.ErrNoInvoice) {
			writeError(w, h.Logger, apierror.NotFound("room has no invoice"))
			return
		}
		writeError(w, h.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+proof.FileName(room)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Warnw("pdf write failed", "error", err)
	}
}
