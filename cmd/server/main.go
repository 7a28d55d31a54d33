package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/workflowai/workflowai/internal/api"
	"github.com/workflowai/workflowai/internal/auth"
	"github.com/workflowai/workflowai/internal/billing"
	"github.com/workflowai/workflowai/internal/config"
	"github.com/workflowai/workflowai/internal/generate"
	"github.com/workflowai/workflowai/internal/llm"
	"github.com/workflowai/workflowai/internal/profile"
	"github.com/workflowai/workflowai/internal/share"
	"github.com/workflowai/workflowai/internal/store"
	"github.com/workflowai/workflowai/internal/template"
	"github.com/workflowai/workflowai/internal/user"
	"github.com/workflowai/workflowai/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := user.NewPostgresRepository(db.Pool())
	workflows := workflow.NewPostgresRepository(db.Pool())
	shares := share.NewPostgresRepository(db.Pool())
	templates := template.NewPostgresRepository(db.Pool())
	profiles := profile.NewPostgresRepository(db.Pool())

	if cfg.TemplateSeedPath != "" {
		if err := template.Seed(ctx, templates, cfg.TemplateSeedPath); err != nil {
			slog.Warn("template catalog seeding failed", "error", err)
		}
	}

	authService := auth.NewService(users, cfg.BcryptCost)

	llmClient := llm.New(cfg.LLMEndpoint, cfg.UploadEndpoint, cfg.LLMAPIKey)
	generator := generate.NewService(users, workflows, llmClient, nil)

	provider := billing.NewStripeProvider(cfg.StripeSecretKey)
	checkout := billing.NewCheckoutService(users, provider, cfg.AppID, cfg.AppBaseURL)
	verifier := billing.NewStripeVerifier(cfg.StripeWebhookSecret)
	entitlementSync := billing.NewSyncService(users)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:        db,
		Version:         cfg.Version,
		AuthService:     authService,
		Users:           users,
		Workflows:       workflows,
		Shares:          shares,
		Templates:       templates,
		Profiles:        profiles,
		Generator:       generator,
		Uploader:        llmClient,
		Checkout:        checkout,
		WebhookVerifier: verifier,
		EntitlementSync: entitlementSync,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting Workflow AI server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
