package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type quoteFetcher interface {
	FetchQuotes(ctx context.Context) (*FeedSnapshot, error)
}

type rateStore interface {
	UpsertProvider(ctx context.Context, p *domain.ExchangeRateProvider) error
	RecordObservation(ctx context.Context, obs *domain.ExchangeRate) (bool, error)
}

// RateSync copies feed quotes into the rate store. It only appends
// observations; balances are derived on read and need no refresh.
type RateSync struct {
	feed     quoteFetcher
	rates    rateStore
	logger   *slog.Logger
	interval time.Duration
}

func NewRateSync(feed quoteFetcher, rates rateStore, logger *slog.Logger, interval time.Duration) *RateSync {
	return &RateSync{
		feed:     feed,
		rates:    rates,
		logger:   logger,
		interval: interval,
	}
}

type SyncResult struct {
	Providers int
	Inserted  int
	Duplicate int
	Skipped   int
}

// Start syncs once immediately and then on every tick until ctx is done.
func (s *RateSync) Start(ctx context.Context) {
	s.logger.Info("rate sync started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rate sync stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *RateSync) runOnce(ctx context.Context) {
	res, err := s.Sync(ctx)
	if err != nil {
		s.logger.Error("rate sync failed", "error", err)
		return
	}
	s.logger.Info("rate sync completed",
		"providers", res.Providers,
		"inserted", res.Inserted,
		"duplicate", res.Duplicate,
		"skipped", res.Skipped,
	)
}

func (s *RateSync) Sync(ctx context.Context) (*SyncResult, error) {
	snap, err := s.feed.FetchQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("Sync: %w", err)
	}

	res := &SyncResult{}
	for _, fp := range snap.Providers {
		if fp.Name == "" {
			res.Skipped += len(fp.Quotes)
			continue
		}
		provider := &domain.ExchangeRateProvider{
			ID:               uuid.New(),
			Name:             fp.Name,
			IsActive:         fp.Active,
			Priority:         fp.Priority,
			ReliabilityScore: fp.Reliability,
		}
		if err := s.rates.UpsertProvider(ctx, provider); err != nil {
			return res, fmt.Errorf("Sync: provider %s: %w", fp.Name, err)
		}
		res.Providers++

		for _, q := range fp.Quotes {
			obs, ok := observationFromQuote(*provider, q)
			if !ok {
				s.logger.Warn("skipping malformed quote",
					"provider", fp.Name,
					"from", q.From,
					"to", q.To,
				)
				res.Skipped++
				continue
			}
			inserted, err := s.rates.RecordObservation(ctx, obs)
			if err != nil {
				return res, fmt.Errorf("Sync: record %s/%s: %w", obs.FromCurrency, obs.ToCurrency, err)
			}
			if inserted {
				res.Inserted++
			} else {
				res.Duplicate++
			}
		}
	}
	return res, nil
}

func observationFromQuote(p domain.ExchangeRateProvider, q FeedQuote) (*domain.ExchangeRate, bool) {
	from := domain.NormalizeCurrency(q.From)
	to := domain.NormalizeCurrency(q.To)
	rateType := domain.RateType(q.Type)
	if rateType == "" {
		rateType = domain.RateTypeSpot
	}
	if !from.IsValid() || !to.IsValid() || from == to || !q.Rate.IsPositive() ||
		!rateType.IsValid() || q.Timestamp.IsZero() {
		return nil, false
	}
	return &domain.ExchangeRate{
		ID:           uuid.New(),
		FromCurrency: from,
		ToCurrency:   to,
		Provider:     p,
		Rate:         q.Rate,
		BidRate:      q.Bid,
		AskRate:      q.Ask,
		MidRate:      q.Mid,
		RateType:     rateType,
		Timestamp:    q.Timestamp.UTC(),
		ValidUntil:   q.ValidUntil,
	}, true
}
