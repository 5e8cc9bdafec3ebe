package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResolveCurrency(t *testing.T) {
	tests := []struct {
		name       string
		tx         Currency
		wallet     Currency
		fallback   Currency
		want       Currency
		wantSource CurrencySource
	}{
		{"transaction wins", "USD", "TWD", "EUR", "USD", CurrencyFromTransaction},
		{"wallet when transaction empty", "", "JPY", "EUR", "JPY", CurrencyFromWallet},
		{"configured fallback", "", "", "EUR", "EUR", CurrencyFromFallback},
		{"hard fallback", "", "", "", FallbackCurrency, CurrencyFromFallback},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, src := ResolveCurrency(tc.tx, tc.wallet, tc.fallback)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantSource, src)
		})
	}
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, Currency("USD"), NormalizeCurrency(" usd "))
	assert.False(t, NormalizeCurrency("  ").IsValid())
	assert.False(t, Currency("US D").IsValid())
	assert.True(t, Currency("BTC").IsValid())
}

func TestAmountInWalletCurrency_RoundsOnce(t *testing.T) {
	got := AmountInWalletCurrency(decimal.RequireFromString("33.333"), decimal.NewFromInt(3))
	assert.Equal(t, "100.00", got.StringFixed(2))
	assert.True(t, got.Equal(decimal.RequireFromString("100")), "got %s", got)

	// Rounding the stored value again must not move it.
	assert.True(t, RoundMoney(got).Equal(got))
}

func TestSignedAmount(t *testing.T) {
	income := Transaction{Type: TransactionTypeIncome, Amount: decimal.RequireFromString("50.00")}
	expense := Transaction{Type: TransactionTypeExpense, Amount: decimal.RequireFromString("200.00")}

	assert.True(t, income.SignedAmount().Equal(decimal.RequireFromString("50")))
	assert.True(t, expense.SignedAmount().Equal(decimal.RequireFromString("-200")))
}

func TestTransactionBefore(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first := Transaction{ID: uuid.Must(uuid.NewV7()), Date: day}
	second := Transaction{ID: uuid.Must(uuid.NewV7()), Date: day}
	earlier := Transaction{ID: uuid.Must(uuid.NewV7()), Date: day.Add(-time.Hour)}

	assert.True(t, first.Before(&second), "same date orders by id")
	assert.False(t, second.Before(&first))
	assert.True(t, earlier.Before(&first), "earlier date wins over id")
	assert.False(t, first.Before(&first))
}

func TestDateRangeContains(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	r := DateRange{From: &from, To: &to}

	assert.True(t, r.Contains(from))
	assert.True(t, r.Contains(to))
	assert.False(t, r.Contains(from.Add(-time.Second)))
	assert.False(t, r.Contains(to.Add(time.Second)))
	assert.True(t, DateRange{}.Contains(time.Time{}))
}

func TestResolvedRateVariants(t *testing.T) {
	var r ResolvedRate = Identity{Currency: "TWD"}
	from, to := r.Pair()
	assert.Equal(t, Currency("TWD"), from)
	assert.Equal(t, Currency("TWD"), to)
	assert.True(t, r.Value().Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "identity", RateSourceName(r))

	obs := Observed{Observation: ExchangeRate{
		FromCurrency: "USD",
		ToCurrency:   "TWD",
		Rate:         decimal.RequireFromString("32.1"),
		Provider:     ExchangeRateProvider{Name: "central-bank"},
	}}
	assert.True(t, obs.Value().Equal(decimal.RequireFromString("32.1")))
	assert.Equal(t, "central-bank", RateSourceName(obs))
}

func TestRateQueryMatches(t *testing.T) {
	active := ExchangeRateProvider{ID: uuid.New(), IsActive: true}
	inactive := ExchangeRateProvider{ID: uuid.New()}
	now := time.Now().UTC()
	since := now.Add(-time.Hour)

	obs := func(p ExchangeRateProvider, ts time.Time) *ExchangeRate {
		return &ExchangeRate{FromCurrency: "USD", ToCurrency: "TWD", Provider: p, Timestamp: ts}
	}

	q := RateQuery{From: "USD", To: "TWD", ActiveOnly: true}
	assert.True(t, q.Matches(obs(active, now)))
	assert.False(t, q.Matches(obs(inactive, now)))

	q.ProviderID = &inactive.ID
	assert.False(t, q.Matches(obs(active, now)))

	q = RateQuery{From: "USD", To: "TWD", Since: &since}
	assert.True(t, q.Matches(obs(active, now)))
	assert.False(t, q.Matches(obs(active, since)))
	assert.False(t, RateQuery{From: "EUR", To: "TWD"}.Matches(obs(active, now)))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatAmount(decimal.RequireFromString("1234.5"), "USD"))
	assert.Equal(t, "12.30 XYZ", FormatAmount(decimal.RequireFromString("12.3"), "XYZ"))
}
