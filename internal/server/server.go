// Package server assembles the HTTP surface: routes, handlers and the
// middleware chain Tracing, Logging, Recovery, Auth, Idempotency.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/api"
	"github.com/josh-kwaku/wallet-ledger/internal/auth"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/fx"
	"github.com/josh-kwaku/wallet-ledger/internal/handler"
	"github.com/josh-kwaku/wallet-ledger/internal/middleware"
	"github.com/josh-kwaku/wallet-ledger/internal/service"
	"github.com/josh-kwaku/wallet-ledger/internal/service/ledger"
)

const apiPrefix = "/api/v1"

type idempotencyStore interface {
	Get(ctx context.Context, key string, userID uuid.UUID) (*domain.IdempotencyRecord, error)
	Set(ctx context.Context, rec *domain.IdempotencyRecord) error
}

type Deps struct {
	Tokens      *auth.TokenIssuer
	Users       *service.UserService
	Wallets     *service.WalletService
	Ledger      *ledger.Service
	Resolver    *fx.Resolver
	Converter   *fx.Converter
	Idempotency idempotencyStore
	// DB is pinged by the readiness probe; nil for the in-memory store.
	DB      handler.Pinger
	Logger  *slog.Logger
	Version string
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	healthH := handler.NewHealthHandler(d.DB, d.Version)
	authH := handler.NewAuthHandler(d.Users, d.Tokens)
	fxH := handler.NewFXHandler(d.Resolver, d.Converter)
	walletH := handler.NewWalletHandler(d.Wallets, d.Ledger)
	txH := handler.NewTransactionHandler(d.Ledger)
	portfolioH := handler.NewPortfolioHandler(d.Ledger, d.Users)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.Auth(d.Tokens))
	}
	creating := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.Auth(d.Tokens), middleware.Idempotency(d.Idempotency))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthH.Liveness)
	mux.HandleFunc("GET /ready", healthH.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs("Wallet Ledger API", "/docs/openapi.yaml"))
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.OpenAPI))

	mux.HandleFunc("POST "+apiPrefix+"/auth/register", authH.Register)
	mux.HandleFunc("POST "+apiPrefix+"/auth/login", authH.Login)

	mux.Handle("GET "+apiPrefix+"/rates/latest", authed(fxH.Latest))
	mux.Handle("GET "+apiPrefix+"/rates/multi", authed(fxH.MultiProvider))
	mux.Handle("GET "+apiPrefix+"/rates/providers", authed(fxH.Providers))
	mux.Handle("POST "+apiPrefix+"/rates/convert", authed(fxH.Convert))
	mux.Handle("POST "+apiPrefix+"/rates/convert/batch", authed(fxH.BatchConvert))

	mux.Handle("POST "+apiPrefix+"/wallets", creating(walletH.Create))
	mux.Handle("GET "+apiPrefix+"/wallets", authed(walletH.List))
	mux.Handle("GET "+apiPrefix+"/wallets/{id}", authed(walletH.Get))
	mux.Handle("PATCH "+apiPrefix+"/wallets/{id}", authed(walletH.Update))
	mux.Handle("DELETE "+apiPrefix+"/wallets/{id}", authed(walletH.Delete))
	mux.Handle("GET "+apiPrefix+"/wallets/{id}/balance", authed(walletH.Balance))
	mux.Handle("GET "+apiPrefix+"/wallets/{id}/transactions", authed(walletH.Transactions))
	mux.Handle("GET "+apiPrefix+"/wallets/{id}/categories", authed(walletH.Categories))
	mux.Handle("POST "+apiPrefix+"/wallets/{id}/transactions", creating(txH.Create))

	mux.Handle("PATCH "+apiPrefix+"/transactions/{id}", authed(txH.Update))
	mux.Handle("DELETE "+apiPrefix+"/transactions/{id}", authed(txH.Delete))

	mux.Handle("GET "+apiPrefix+"/portfolio/balance", authed(portfolioH.Balance))

	return middleware.Chain(mux,
		middleware.Tracing,
		middleware.Logging(logger),
		middleware.Recovery,
	)
}
