package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hamstudy/backend/internal/api"
	"github.com/hamstudy/backend/internal/bankfile"
	"github.com/hamstudy/backend/internal/infrastructure/config"
	"github.com/hamstudy/backend/internal/service"
	"github.com/hamstudy/backend/internal/store"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── Dependencies ────────────────────────────────────────────────
	bank, err := bankfile.Load(cfg.BankFile)
	if err != nil {
		logger.Error("failed to load question bank", "file", cfg.BankFile, "error", err)
		os.Exit(1)
	}
	logger.Info("question bank loaded", "file", cfg.BankFile, "questions", bank.Len())

	results, err := newResultStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open result store", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer results.Close()

	sessions := service.NewSessionManager(bank, results, logger)
	handler := api.NewHandler(bank, results, sessions, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}

// newResultStore opens the configured result storage backend.
func newResultStore(cfg *config.Config, logger *slog.Logger) (store.ResultStore, error) {
	if cfg.StorageBackend == "minio" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return store.NewBlob(ctx, store.BlobConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
	}
	return store.NewSQLite(cfg.SQLitePath, logger)
}
