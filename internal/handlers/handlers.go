package handlers

import (
	"net/http"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/config"
	"InvoiceRoom/internal/middleware"
	"InvoiceRoom/internal/proof"
	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/response"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	negotiator *service.Negotiator,
	rooms *service.RoomService,
	sellers *service.SellerAuthenticator,
	broker broadcast.Broker,
	renderer *proof.Renderer,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.WithLogging)
	r.Use(chimw.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.AdminKeyHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	invoiceHandler := NewInvoiceHandler(negotiator, rooms, renderer, logger, config)
	roomHandler := NewRoomHandler(negotiator, rooms, logger)
	sellerHandler := NewSellerHandler(negotiator, sellers, logger, config)
	buyerHandler := NewBuyerHandler(negotiator, logger)
	adminHandler := NewAdminHandler(rooms, logger)
	wsHandler := NewWSHandler(rooms, broker, logger)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.WithGzip)

		// Invoice routes
		r.Post("/invoice/create", invoiceHandler.Create)
		r.Get("/invoice/verify/{verification_key}", invoiceHandler.Verify)
		r.Get("/invoice/verify/{verification_key}/proof", invoiceHandler.Proof)
		r.Get("/invoice/{room_hash}/download", invoiceHandler.Download)

		// Room routes
		r.Get("/room/{room_hash}", roomHandler.Get)
		r.Get("/room/{room_hash}/history", roomHandler.History)
		r.With(requireSellerRoom).Post("/room/{room_hash}/start-negotiation", roomHandler.StartNegotiation)

		// Seller routes
		r.Post("/seller/login", sellerHandler.Login)
		r.Post("/seller/logout", sellerHandler.Logout)
		r.Route("/seller/{room_hash}", func(r chi.Router) {
			r.Use(requireSellerRoom)
			r.Put("/edit-invoice", invoiceHandler.Edit)
			r.Post("/confirm-payment", sellerHandler.ConfirmPayment)
			r.Put("/secret", sellerHandler.SetSecret)
		})

		// Buyer routes
		r.Post("/buyer/join/{room_hash}", buyerHandler.Join)
		r.Route("/buyer/{room_hash}", func(r chi.Router) {
			r.Post("/approve", buyerHandler.Approve)
			r.Post("/disapprove", buyerHandler.Disapprove)
			r.Post("/reject", buyerHandler.Reject)
			r.Post("/mark-paid", buyerHandler.MarkPaid)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminKey(config.AdminKey))
			r.Get("/rooms", adminHandler.List)
			r.Delete("/rooms/{room_hash}", adminHandler.Delete)
		})
	})

	r.Get("/ws/negotiation/{room_hash}", wsHandler.Serve)

	return &Handler{Router: r}
}
