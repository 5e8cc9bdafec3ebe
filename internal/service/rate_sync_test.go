package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/repository/memory"
)

var quotedAt = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func feedServer(t *testing.T, snap FeedSnapshot) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/quotes" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(snap))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateSync_Sync(t *testing.T) {
	mid := decimal.RequireFromString("32.45")
	snap := FeedSnapshot{Providers: []FeedProvider{
		{
			Name: "central-bank", Priority: 1, Active: true, Reliability: decimal.RequireFromString("0.99"),
			Quotes: []FeedQuote{
				{From: "usd", To: "twd", Rate: mid, Mid: &mid, Type: "mid", Timestamp: quotedAt},
				{From: "EUR", To: "TWD", Rate: decimal.RequireFromString("35.1"), Timestamp: quotedAt},
				{From: "EUR", To: "EUR", Rate: decimal.NewFromInt(1), Timestamp: quotedAt},
				{From: "GBP", To: "TWD", Rate: decimal.Zero, Timestamp: quotedAt},
			},
		},
		{
			Name: "broker", Priority: 2, Active: false, Reliability: decimal.RequireFromString("0.7"),
			Quotes: []FeedQuote{
				{From: "USD", To: "TWD", Rate: decimal.RequireFromString("32.6"), Type: "ask", Timestamp: quotedAt},
			},
		},
	}}
	srv := feedServer(t, snap)

	store := memory.NewStore()
	sync := NewRateSync(NewRateFeedClient(srv.URL), store.Rates(), discardLogger(), time.Minute)
	ctx := context.Background()

	res, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Providers: 2, Inserted: 3, Skipped: 2}, *res)

	obs, err := store.Rates().FindObservations(ctx, domain.RateQuery{From: "USD", To: "TWD", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "central-bank", obs[0].Provider.Name)
	assert.Equal(t, domain.RateTypeMid, obs[0].RateType)
	require.NotNil(t, obs[0].MidRate)

	eur, err := store.Rates().FindObservations(ctx, domain.RateQuery{From: "EUR", To: "TWD"})
	require.NoError(t, err)
	require.Len(t, eur, 1)
	assert.Equal(t, domain.RateTypeSpot, eur[0].RateType)

	again, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, 3, again.Duplicate)

	providers, err := store.Rates().ListProviders(ctx)
	require.NoError(t, err)
	assert.Len(t, providers, 2, "providers are matched by name across syncs")
}

func TestRateSync_FeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sync := NewRateSync(NewRateFeedClient(srv.URL), memory.NewStore().Rates(), discardLogger(), time.Minute)
	_, err := sync.Sync(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestRateSync_StartStopsWithContext(t *testing.T) {
	srv := feedServer(t, FeedSnapshot{})
	sync := NewRateSync(NewRateFeedClient(srv.URL), memory.NewStore().Rates(), discardLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sync.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rate sync did not stop after cancel")
	}
}
