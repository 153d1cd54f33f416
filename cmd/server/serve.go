package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/messenger"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/settlement"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/postgres"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
	"github.com/mmynk/settleup/pkg/logging"
)

// loadConfig reads configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// openStore opens the configured backend. Both backends migrate on open.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Driver == config.DriverPostgres {
		store, err := postgres.New(ctx, cfg.PostgresURL.Value())
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg.Storage)
	if err != nil {
		slog.Error("Migration failed", "driver", cfg.Storage.Driver, "error", err)
		return err
	}
	slog.Info("Schema is up to date", "driver", cfg.Storage.Driver)
	return store.Close()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	handler, err := newHandler(cfg, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout.Duration())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHandler wires services, interceptors and HTTP middleware.
func newHandler(cfg *config.Config, store storage.Store) (http.Handler, error) {
	provider, err := messenger.NewClient(messenger.Config{
		BaseURL:        cfg.Messenger.BaseURL,
		MaxPages:       cfg.Messenger.MaxPages,
		PagesPerSecond: cfg.Messenger.PagesPerSecond,
		Timeout:        cfg.Messenger.Timeout.Duration(),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create messenger client: %w", err)
	}
	templates, err := messenger.NewTemplates(cfg.Messenger.Locale, cfg.Messenger.Currency, cfg.Messenger.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create message templates: %w", err)
	}
	manager := settlement.NewManager(store, provider, templates, cfg.Messenger.PayLinkBase)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret.Value(), cfg.Auth.TokenTTL.Duration())
	authenticator := auth.NewPasswordAuthenticator(store)

	logged := middleware.LoggingInterceptor(slog.Default())
	public := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), logged)
	private := connect.WithInterceptors(middleware.RequireAuth(jwtManager), logged)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, store, slog.Default()), public))
	mux.Handle(apiconnect.NewGroupServiceHandler(service.NewGroupService(store), private))
	mux.Handle(apiconnect.NewExpenseServiceHandler(service.NewExpenseService(store, manager), private))
	mux.Handle(apiconnect.NewSettlementServiceHandler(service.NewSettlementService(store, manager), private))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return loggingMiddleware(corsMiddleware(cfg.Server.AllowedOrigin, mux)), nil
}
