package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/logging"
	"github.com/josh-kwaku/wallet-ledger/internal/service"
)

type provider struct {
	name        string
	priority    int
	active      bool
	reliability string
	// skew shifts every base rate, in basis points.
	skew int64
}

var providers = []provider{
	{name: "central-bank", priority: 1, active: true, reliability: "0.99", skew: 0},
	{name: "market-data", priority: 2, active: true, reliability: "0.95", skew: 12},
	{name: "legacy-feed", priority: 9, active: false, reliability: "0.60", skew: -40},
}

var baseRates = []struct {
	from, to string
	rate     string
}{
	{"USD", "TWD", "32.5"},
	{"TWD", "USD", "0.0307692308"},
	{"EUR", "TWD", "35.2"},
	{"TWD", "EUR", "0.0284090909"},
	{"JPY", "TWD", "0.215"},
	{"GBP", "TWD", "41.1"},
	{"EUR", "USD", "1.083"},
	{"USD", "EUR", "0.9233610342"},
}

func main() {
	logging.Init("mock-rates", "info", os.Getenv("APP_ENV"))

	addr := ":8081"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /quotes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, snapshot(time.Now().UTC()))
	})

	slog.Info("mock rate feed started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// snapshot quotes every base rate from every provider. Timestamps are
// truncated to the minute so repeated polls within a minute are duplicates.
func snapshot(now time.Time) service.FeedSnapshot {
	ts := now.Truncate(time.Minute)
	validUntil := ts.Add(time.Hour)
	spread := decimal.RequireFromString("0.001")

	out := service.FeedSnapshot{Providers: make([]service.FeedProvider, 0, len(providers))}
	for _, p := range providers {
		fp := service.FeedProvider{
			Name:        p.name,
			Priority:    p.priority,
			Active:      p.active,
			Reliability: decimal.RequireFromString(p.reliability),
		}
		factor := decimal.NewFromInt(10000 + p.skew).Shift(-4)
		for _, b := range baseRates {
			mid := decimal.RequireFromString(b.rate).Mul(factor).Round(10)
			bid := mid.Mul(decimal.NewFromInt(1).Sub(spread)).Round(10)
			ask := mid.Mul(decimal.NewFromInt(1).Add(spread)).Round(10)
			fp.Quotes = append(fp.Quotes, service.FeedQuote{
				From:       b.from,
				To:         b.to,
				Rate:       mid,
				Bid:        &bid,
				Ask:        &ask,
				Mid:        &mid,
				Type:       "mid",
				Timestamp:  ts,
				ValidUntil: &validUntil,
			})
		}
		out.Providers = append(out.Providers, fp)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
