package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/config"
	"InvoiceRoom/internal/handlers"
	"InvoiceRoom/internal/middleware"
	"InvoiceRoom/internal/proof"
	"InvoiceRoom/internal/repo"
	"InvoiceRoom/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём регистратор zap под окружение
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	middleware.SetSecureCookies(cfg.EnableHTTPS)
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	//context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "driver", cfg.DBDriver, "error", err)
	}

	broker, closeBroker := newBroker(ctx, cfg, sugar)
	defer closeBroker()

	roomRepo := repo.NewRoomRepository(gormDB)
	negotiator := service.NewNegotiator(roomRepo, repo.NewNegotiationRepository(gormDB), broker, sugar)
	roomService := service.NewRoomService(roomRepo, sugar)
	sellerAuth := service.NewSellerAuthenticator(repo.NewSellerRepository(gormDB), roomRepo, sugar)

	h := handlers.NewHandler(negotiator, roomService, sellerAuth, broker, proof.NewRenderer(cfg.PublicURL), sugar, cfg)

	addr := cfg.BaseURL
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"PublicURL", cfg.PublicURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DBDriver", cfg.DBDriver,
		"Broker", cfg.Broker,
		"AppEnv", cfg.AppEnv,
	)
	if cfg.AdminKey == "" {
		sugar.Warnw("ADMIN_KEY is empty, admin routes are disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	case <-ctx.Done():
		sugar.Infow("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("graceful shutdown failed", "error", err)
		}
	}
}

// newBroker выбирает рассылку: Redis Pub/Sub или in-process хаб.
// Недоступный Redis не мешает старту, сервис работает на одном узле.
func newBroker(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (broadcast.Broker, func()) {
	hub := broadcast.NewHub(broadcast.DefaultBuffer, log)
	if cfg.Broker != "redis" {
		return hub, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warnw("redis unavailable, falling back to in-process broker", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return hub, func() {}
	}

	log.Infow("redis broker connected", "addr", cfg.RedisAddr)
	return broadcast.NewRedisBroker(client, broadcast.DefaultBuffer, log), func() {
		if err := client.Close(); err != nil {
			log.Warnw("redis close failed", "error", err)
		}
	}
}
