package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:                uuid.New(),
		Email:             email,
		Name:              name,
		PasswordHash:      string(hash),
		ReportingCurrency: domain.FallbackCurrency,
		CreatedAt:         time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, reporting_currency, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.ReportingCurrency, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestWallet(t *testing.T, db *sql.DB, userID uuid.UUID, name, currency, initialBalance string) *domain.Wallet {
	t.Helper()

	now := time.Now().UTC()
	w := &domain.Wallet{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		Currency:       domain.Currency(currency),
		InitialBalance: decimal.RequireFromString(initialBalance),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := db.Exec(
		`INSERT INTO wallets (id, user_id, name, currency, initial_balance, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.UserID, w.Name, w.Currency, w.InitialBalance, w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test wallet %s/%s: %v", userID, currency, err)
	}
	return w
}

func SeedTestProvider(t *testing.T, db *sql.DB, name string, priority int, active bool) domain.ExchangeRateProvider {
	t.Helper()

	p := domain.ExchangeRateProvider{
		ID:               uuid.New(),
		Name:             name,
		IsActive:         active,
		Priority:         priority,
		ReliabilityScore: decimal.RequireFromString("0.95"),
		CreatedAt:        time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO exchange_rate_providers (id, name, is_active, priority, reliability_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.IsActive, p.Priority, p.ReliabilityScore, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed provider %s: %v", name, err)
	}
	return p
}

func CountTransactions(t *testing.T, db *sql.DB, walletID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`, walletID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for wallet %s: %v", walletID, err)
	}
	return count
}
