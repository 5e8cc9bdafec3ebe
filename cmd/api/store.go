package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/config"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/repository"
	"github.com/josh-kwaku/wallet-ledger/internal/repository/memory"
)

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type walletStore interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	Update(ctx context.Context, w *domain.Wallet) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type transactionStore interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, order domain.SortOrder) ([]domain.Transaction, error)
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error)
	SumByCategory(ctx context.Context, walletID uuid.UUID, dates domain.DateRange) ([]domain.CategoryTotal, error)
}

type rateStore interface {
	UpsertProvider(ctx context.Context, p *domain.ExchangeRateProvider) error
	ListProviders(ctx context.Context) ([]domain.ExchangeRateProvider, error)
	RecordObservation(ctx context.Context, obs *domain.ExchangeRate) (bool, error)
	FindObservations(ctx context.Context, q domain.RateQuery) ([]domain.ExchangeRate, error)
}

type idempotencyStore interface {
	Get(ctx context.Context, key string, userID uuid.UUID) (*domain.IdempotencyRecord, error)
	Set(ctx context.Context, rec *domain.IdempotencyRecord) error
	CleanExpired(ctx context.Context) (int64, error)
}

// stores is the record store behind the services, Postgres or in-memory.
type stores struct {
	users        userStore
	wallets      walletStore
	transactions transactionStore
	rates        rateStore
	idempotency  idempotencyStore
	// db is nil for the in-memory driver.
	db *sql.DB
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		m := memory.NewStore()
		return &stores{
			users:        m.Users(),
			wallets:      m.Wallets(),
			transactions: m.Transactions(),
			rates:        m.Rates(),
			idempotency:  m.Idempotency(),
		}, nil
	}

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("openStores: %w", err)
	}

	if cfg.MigrationsDir != "" {
		if err := repository.Migrate(ctx, db, cfg.MigrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("openStores: %w", err)
		}
		slog.Info("migrations applied", "dir", cfg.MigrationsDir)
	}

	return &stores{
		users:        repository.NewUserRepository(db),
		wallets:      repository.NewWalletRepository(db),
		transactions: repository.NewTransactionRepository(db),
		rates:        repository.NewRateRepository(db),
		idempotency:  repository.NewIdempotencyRepository(db),
		db:           db,
	}, nil
}
