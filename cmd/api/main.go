package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/wallet-ledger/internal/auth"
	"github.com/josh-kwaku/wallet-ledger/internal/config"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/fx"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
	"github.com/josh-kwaku/wallet-ledger/internal/server"
	"github.com/josh-kwaku/wallet-ledger/internal/service"
	"github.com/josh-kwaku/wallet-ledger/internal/service/ledger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("wallet-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	defaultCurrency := domain.NormalizeCurrency(cfg.DefaultCurrency)

	resolver := fx.NewResolver(store.rates, fx.Options{
		LookupTimeout:   cfg.RateLookupTimeout,
		StalenessWindow: cfg.RateStalenessWindow,
		DefaultLimit:    cfg.MultiProviderLimit,
	})
	converter := fx.NewConverter(resolver)

	deps := server.Deps{
		Tokens:      auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		Users:       service.NewUserService(store.users, defaultCurrency),
		Wallets:     service.NewWalletService(store.wallets, store.users, defaultCurrency),
		Ledger:      ledger.NewService(store.wallets, store.transactions, resolver, converter, defaultCurrency),
		Resolver:    resolver,
		Converter:   converter,
		Idempotency: store.idempotency,
		Logger:      logger,
		Version:     version,
	}
	// A nil *sql.DB must not reach the interface field.
	if store.db != nil {
		deps.DB = store.db
	}

	if cfg.RateSyncInterval > 0 {
		sync := service.NewRateSync(
			service.NewRateFeedClient(cfg.RateFeedURL),
			store.rates,
			logger.With("component", "rate_sync"),
			cfg.RateSyncInterval,
		)
		go sync.Start(ctx)
	}

	if cfg.IdempotencyCleanupInterval > 0 {
		go cleanIdempotency(ctx, store.idempotency, cfg.IdempotencyCleanupInterval)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(deps),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreDriver, "default_currency", defaultCurrency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func cleanIdempotency(ctx context.Context, store idempotencyStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanExpired(ctx)
			if err != nil {
				slog.Error("idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("idempotency cleanup", "removed", n)
			}
		}
	}
}
