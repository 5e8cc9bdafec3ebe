package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/repository"
	"github.com/josh-kwaku/wallet-ledger/internal/testutil"
)

func newTransaction(walletID uuid.UUID, typ domain.TransactionType, amount string, date time.Time, category *string) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	amt := decimal.RequireFromString(amount)
	return &domain.Transaction{
		ID:                     uuid.Must(uuid.NewV7()),
		WalletID:               walletID,
		Type:                   typ,
		Amount:                 amt,
		Currency:               "TWD",
		ExchangeRate:           decimal.NewFromInt(1),
		ExchangeRateSource:     domain.ExchangeRateSourceManual,
		AmountInWalletCurrency: domain.AmountInWalletCurrency(amt, decimal.NewFromInt(1)),
		Category:               category,
		Date:                   date,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func TestWalletRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewWalletRepository(db)
	txs := repository.NewTransactionRepository(db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "wallets@test.com", "Wallets")
	w := testutil.SeedTestWallet(t, db, user.ID, "Cash", "TWD", "1000.50")

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cash", got.Name)
	assert.True(t, got.InitialBalance.Equal(decimal.RequireFromString("1000.50")))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)

	got.Name = "Pocket"
	got.Version = 2
	require.NoError(t, repo.Update(ctx, got))

	stale := *got
	stale.Version = 2
	assert.ErrorIs(t, repo.Update(ctx, &stale), domain.ErrVersionConflict)

	missing := *got
	missing.ID = uuid.New()
	missing.Version = 2
	assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrWalletNotFound)

	require.NoError(t, txs.Create(ctx, newTransaction(w.ID, domain.TransactionTypeIncome, "1", time.Now().UTC(), nil)))
	assert.ErrorIs(t, repo.Delete(ctx, w.ID), domain.ErrConflict)

	empty := testutil.SeedTestWallet(t, db, user.ID, "Empty", "USD", "0")
	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, empty.ID))
	assert.ErrorIs(t, repo.Delete(ctx, empty.ID), domain.ErrWalletNotFound)
}

func TestTransactionRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "tx@test.com", "Tx")
	w := testutil.SeedTestWallet(t, db, user.ID, "Cash", "TWD", "0")
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	food, rent := "food", "rent"

	late := newTransaction(w.ID, domain.TransactionTypeExpense, "10.25", day.AddDate(0, 0, 2), &food)
	sameDayA := newTransaction(w.ID, domain.TransactionTypeIncome, "100", day, nil)
	sameDayB := newTransaction(w.ID, domain.TransactionTypeExpense, "500", day, &rent)
	for _, tx := range []*domain.Transaction{late, sameDayA, sameDayB} {
		require.NoError(t, repo.Create(ctx, tx))
	}

	asc, err := repo.ListByWallet(ctx, w.ID, domain.SortAsc)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, []uuid.UUID{sameDayA.ID, sameDayB.ID, late.ID}, []uuid.UUID{asc[0].ID, asc[1].ID, asc[2].ID})
	assert.Equal(t, &rent, asc[1].Category)
	assert.Nil(t, asc[0].Category)

	desc, err := repo.ListByWallet(ctx, w.ID, domain.SortDesc)
	require.NoError(t, err)
	assert.Equal(t, late.ID, desc[0].ID)

	late.Amount = decimal.RequireFromString("20")
	late.Version = 2
	require.NoError(t, repo.Update(ctx, late))
	assert.ErrorIs(t, repo.Update(ctx, late), domain.ErrVersionConflict)

	totals, err := repo.SumByCategory(ctx, w.ID, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "rent", totals[0].Category)
	assert.Equal(t, "food", totals[1].Category)
	assert.True(t, totals[1].TotalAmount.Equal(decimal.NewFromInt(20)))

	from := day.AddDate(0, 0, 1)
	totals, err = repo.SumByCategory(ctx, w.ID, domain.DateRange{From: &from})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "food", totals[0].Category)

	n, err := repo.CountByWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, repo.Delete(ctx, sameDayA.ID))
	_, err = repo.GetByID(ctx, sameDayA.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	assert.ErrorIs(t, repo.Create(ctx, newTransaction(uuid.New(), domain.TransactionTypeIncome, "1", day, nil)), domain.ErrWalletNotFound)
}

func TestRateRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewRateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	active := testutil.SeedTestProvider(t, db, "central-bank", 1, true)
	inactive := testutil.SeedTestProvider(t, db, "retired", 2, false)

	record := func(p domain.ExchangeRateProvider, rate string, ts time.Time) bool {
		t.Helper()
		mid := decimal.RequireFromString(rate)
		inserted, err := repo.RecordObservation(ctx, &domain.ExchangeRate{
			ID:           uuid.New(),
			FromCurrency: "USD",
			ToCurrency:   "TWD",
			Provider:     p,
			Rate:         mid,
			MidRate:      &mid,
			RateType:     domain.RateTypeMid,
			Timestamp:    ts,
		})
		require.NoError(t, err)
		return inserted
	}

	assert.True(t, record(active, "32.1", now.Add(-2*time.Hour)))
	assert.True(t, record(active, "32.2", now.Add(-time.Hour)))
	assert.False(t, record(active, "99", now.Add(-time.Hour)), "same identity is ignored")
	assert.True(t, record(inactive, "31", now))

	obs, err := repo.FindObservations(ctx, domain.RateQuery{From: "USD", To: "TWD", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.True(t, obs[0].Rate.Equal(decimal.RequireFromString("32.2")))
	assert.Equal(t, "central-bank", obs[0].Provider.Name)
	require.NotNil(t, obs[0].MidRate)
	assert.Nil(t, obs[0].BidRate)

	all, err := repo.FindObservations(ctx, domain.RateQuery{From: "USD", To: "TWD"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	since := now.Add(-90 * time.Minute)
	fresh, err := repo.FindObservations(ctx, domain.RateQuery{From: "USD", To: "TWD", ActiveOnly: true, Since: &since})
	require.NoError(t, err)
	assert.Len(t, fresh, 1)

	byProvider, err := repo.FindObservations(ctx, domain.RateQuery{From: "USD", To: "TWD", ProviderID: &inactive.ID})
	require.NoError(t, err)
	require.Len(t, byProvider, 1)
	assert.Equal(t, "retired", byProvider[0].Provider.Name)

	renamed := domain.ExchangeRateProvider{ID: uuid.New(), Name: "retired", IsActive: true, Priority: 0, ReliabilityScore: decimal.NewFromInt(1)}
	require.NoError(t, repo.UpsertProvider(ctx, &renamed))
	assert.Equal(t, inactive.ID, renamed.ID)

	providers, err := repo.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "retired", providers[0].Name)
	assert.True(t, providers[0].IsActive)

	_, err = repo.GetProviderByName(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserAndIdempotencyRepositories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repository.NewUserRepository(db)
	idem := repository.NewIdempotencyRepository(db)
	ctx := context.Background()

	u := testutil.SeedTestUser(t, db, "Someone@Test.com", "Someone")
	err := users.Create(ctx, &domain.User{
		ID:                uuid.New(),
		Email:             "someone@test.com",
		Name:              "Dup",
		PasswordHash:      "x",
		ReportingCurrency: "TWD",
		CreatedAt:         time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	got, err := users.GetByEmail(ctx, "SOMEONE@test.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	rec, err := idem.Get(ctx, "k1", u.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	now := time.Now().UTC()
	require.NoError(t, idem.Set(ctx, &domain.IdempotencyRecord{
		Key: "k1", UserID: u.ID, RequestHash: "h", StatusCode: 201,
		ResponseBody: []byte(`{"success":true}`), CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	rec, err = idem.Get(ctx, "k1", u.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 201, rec.StatusCode)

	n, err := idem.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
