package handlers

import (
	"net/http"

	"InvoiceRoom/internal/middleware"
	"InvoiceRoom/pkg/apierror"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
)

// requireSellerRoom пропускает только продавца, вошедшего в комнату из пути.
func requireSellerRoom(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := middleware.GetSessionFromContext(r.Context())
		if !ok {
			response.Error(w, apierror.Unauthorized("seller session required"))
			return
		}
		if s.RoomHash != chi.URLParam(r, "room_hash") {
			response.Error(w, apierror.Unauthorized("session belongs to another room"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isSellerOf сообщает, открыта ли у запроса сессия продавца этой комнаты.
func isSellerOf(r *http.Request, roomHash string) bool {
	s, ok := middleware.GetSessionFromContext(r.Context())
	return ok && s.RoomHash == roomHash
}
