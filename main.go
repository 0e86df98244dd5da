package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/mweigel/agentportal/internal/config"
	"github.com/mweigel/agentportal/internal/handler"
	"github.com/mweigel/agentportal/internal/repository/sqlite"
	"github.com/mweigel/agentportal/internal/service"
	"github.com/mweigel/agentportal/internal/view"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	stripe.Key = cfg.StripeSecretKey
	// Bound every outbound provider call; the default client waits far
	// longer than a request handler should.
	stripe.SetHTTPClient(&http.Client{Timeout: 15 * time.Second})

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	views, err := view.New()
	if err != nil {
		slog.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	authService := service.NewAuthService(db.Users(), cfg.SecretKey, cfg.BCryptCost)
	billingService := service.NewBillingService(
		service.StripeCheckout{},
		db.Users(),
		cfg.StripeWebhookSecret,
		cfg.StripePriceID,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)
	searchService := service.NewSearchService(cfg.SearchAPIURL)

	flash := handler.NewFlashStore(cfg.SecretKey, cfg.CookieSecure)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, billingService, searchService, views, flash, cfg.PremiumPrice, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(handler.RequestLogger(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
