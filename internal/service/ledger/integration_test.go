package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/fx"
	"github.com/josh-kwaku/wallet-ledger/internal/repository"
	"github.com/josh-kwaku/wallet-ledger/internal/service/ledger"
	"github.com/josh-kwaku/wallet-ledger/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	resolver := fx.NewResolver(repository.NewRateRepository(db), fx.Options{})
	return ledger.NewService(
		repository.NewWalletRepository(db),
		repository.NewTransactionRepository(db),
		resolver,
		fx.NewConverter(resolver),
		domain.FallbackCurrency,
	)
}

func TestPostgresLedger_EditUpstreamExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "ledger@test.com", "Ledger")
	w := testutil.SeedTestWallet(t, db, user.ID, "Cash", "TWD", "1000.00")
	d1 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	expense, err := svc.CreateTransaction(ctx, user.ID, ledger.CreateTransactionRequest{
		WalletID: w.ID, Type: domain.TransactionTypeExpense, Amount: decimal.RequireFromString("200.00"), Date: &d1,
	})
	require.NoError(t, err)
	assert.Equal(t, "800.00", expense.BalanceAfter.StringFixed(2))

	_, err = svc.CreateTransaction(ctx, user.ID, ledger.CreateTransactionRequest{
		WalletID: w.ID, Type: domain.TransactionTypeIncome, Amount: decimal.RequireFromString("50.00"), Date: &d2,
	})
	require.NoError(t, err)

	amount := decimal.RequireFromString("300.00")
	updated, err := svc.UpdateTransaction(ctx, user.ID, expense.ID, ledger.UpdateTransactionRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "700.00", updated.BalanceAfter.StringFixed(2))

	bal, err := svc.GetBalance(ctx, user.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "750.00", bal.Balance.StringFixed(2))
	assert.Equal(t, "Cash", bal.WalletName)

	err = svc.DeleteWallet(ctx, user.ID, w.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 2, testutil.CountTransactions(t, db, w.ID))
}

func TestPostgresLedger_ConcurrentInserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "concurrent@test.com", "Concurrent")
	w := testutil.SeedTestWallet(t, db, user.ID, "Cash", "TWD", "100")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			typ := domain.TransactionTypeIncome
			if i%2 == 1 {
				typ = domain.TransactionTypeExpense
			}
			_, err := svc.CreateTransaction(ctx, user.ID, ledger.CreateTransactionRequest{
				WalletID: w.ID, Type: typ, Amount: decimal.RequireFromString("2.50"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	wl, err := svc.GetWalletWithTransactions(ctx, user.ID, w.ID)
	require.NoError(t, err)
	require.Len(t, wl.Transactions, n)
	assert.Equal(t, "100.00", wl.Balance.StringFixed(2))

	running := w.InitialBalance
	for _, tx := range wl.Transactions {
		running = running.Add(tx.SignedAmount())
		assert.True(t, tx.BalanceAfter.Equal(running.Round(2)))
	}
}

func TestPostgresLedger_ForeignCurrencyAndPortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	rates := repository.NewRateRepository(db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "portfolio@test.com", "Portfolio")
	twd := testutil.SeedTestWallet(t, db, user.ID, "Cash", "TWD", "500")
	testutil.SeedTestWallet(t, db, user.ID, "Travel", "USD", "20")
	provider := testutil.SeedTestProvider(t, db, "central-bank", 1, true)

	_, err := rates.RecordObservation(ctx, &domain.ExchangeRate{
		ID:           uuid.New(),
		FromCurrency: "USD",
		ToCurrency:   "TWD",
		Provider:     provider,
		Rate:         decimal.RequireFromString("32"),
		RateType:     domain.RateTypeSpot,
		Timestamp:    time.Now().UTC().Add(-time.Minute),
	})
	require.NoError(t, err)

	tx, err := svc.CreateTransaction(ctx, user.ID, ledger.CreateTransactionRequest{
		WalletID: twd.ID, Type: domain.TransactionTypeExpense, Amount: decimal.RequireFromString("3"), Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "central-bank", tx.ExchangeRateSource)
	assert.Equal(t, "96.00", tx.AmountInWalletCurrency.StringFixed(2))

	p, err := svc.PortfolioBalance(ctx, user.ID, "TWD")
	require.NoError(t, err)
	// 500 - 3 (raw amount) + 20 * 32
	assert.Equal(t, "1137.00", p.Total.StringFixed(2))
}
