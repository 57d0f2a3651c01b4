// SkripsiCepat - Thesis Writing Funnel Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/api"
	"github.com/ashureev/skripsi-cepat/internal/config"
	"github.com/ashureev/skripsi-cepat/internal/content"
	"github.com/ashureev/skripsi-cepat/internal/funnel"
	"github.com/ashureev/skripsi-cepat/internal/identity"
	"github.com/ashureev/skripsi-cepat/internal/ledger"
	"github.com/ashureev/skripsi-cepat/internal/middleware"
	"github.com/ashureev/skripsi-cepat/internal/payment"
	"github.com/ashureev/skripsi-cepat/internal/progress"
	"github.com/ashureev/skripsi-cepat/internal/store"
	"github.com/ashureev/skripsi-cepat/internal/thesis"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Content generator.
	gen, err := content.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		slog.Error("Failed to initialize content generator", "error", err)
		os.Exit(1)
	}
	slog.Info("Content generator initialized", "model", cfg.OpenAIModel)

	// Payment gateway. Without a server key the simulated gateway settles
	// orders immediately, which is only acceptable in development.
	var gateway payment.Gateway
	gateway, err = payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransProduction)
	if err != nil {
		var ce *payment.ConfigError
		if !errors.As(err, &ce) || !cfg.IsDevelopment() {
			slog.Error("Failed to initialize payment gateway", "error", err)
			os.Exit(1)
		}
		slog.Warn("MIDTRANS_SERVER_KEY not set, using simulated payment gateway")
		gateway = payment.NewSimulated()
	} else {
		slog.Info("Payment gateway initialized", "production", cfg.MidtransProduction)
	}

	// Initialize services.
	ldg := ledger.New(repo)
	sessions := funnel.NewManager(repo)
	hub := progress.NewHub()
	svc := thesis.NewService(repo, sessions, gen, ldg, gateway, hub, thesis.Prices{
		Subscription:  cfg.SubscriptionPrice,
		RevisionTopUp: cfg.RevisionTopUpPrice,
	})

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, svc, ldg, cfg)
	funnelHandler := api.NewFunnelHandler(baseHandler)
	sectionHandler := api.NewSectionHandler(baseHandler)
	webhookHandler := api.NewWebhookHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := progress.NewWebSocketHandler(hub, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{"*"}))

	// Public routes.
	healthHandler.RegisterHealth(r)
	webhookHandler.RegisterRoutes(r)

	// Visitor routes behind the anonymous identity cookie.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		funnelHandler.RegisterRoutes(r)
		sectionHandler.RegisterRoutes(r)
		r.Get("/ws/progress", wsHandler.ServeHTTP)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // chapter generation holds requests open for minutes
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start subscription expiry sweep.
	ledger.StartExpirySweep(ctx, repo, cfg.ExpirySweepInterval)
	slog.Info("Expiry sweep started", "interval", cfg.ExpirySweepInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
