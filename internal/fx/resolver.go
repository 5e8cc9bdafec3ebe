package fx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

const (
	DefaultMultiProviderLimit = 5
	DefaultStalenessWindow    = 24 * time.Hour
	DefaultLookupTimeout      = 3 * time.Second
)

// RateSource is the read side of the rate store.
type RateSource interface {
	FindObservations(ctx context.Context, q domain.RateQuery) ([]domain.ExchangeRate, error)
	ListProviders(ctx context.Context) ([]domain.ExchangeRateProvider, error)
}

type Options struct {
	LookupTimeout   time.Duration
	StalenessWindow time.Duration
	DefaultLimit    int
	Now             func() time.Time
}

type Resolver struct {
	source       RateSource
	timeout      time.Duration
	staleness    time.Duration
	defaultLimit int
	now          func() time.Time
}

func NewResolver(source RateSource, opts Options) *Resolver {
	r := &Resolver{
		source:       source,
		timeout:      opts.LookupTimeout,
		staleness:    opts.StalenessWindow,
		defaultLimit: opts.DefaultLimit,
		now:          opts.Now,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultLookupTimeout
	}
	if r.staleness <= 0 {
		r.staleness = DefaultStalenessWindow
	}
	if r.defaultLimit <= 0 {
		r.defaultLimit = DefaultMultiProviderLimit
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	return r
}

// Latest returns the freshest observation for from/to among active providers,
// optionally restricted to one provider. Same-currency pairs resolve to
// domain.Identity without touching the store.
func (r *Resolver) Latest(ctx context.Context, from, to domain.Currency, providerID *uuid.UUID) (domain.ResolvedRate, error) {
	if err := validatePair(from, to); err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	if from == to {
		return domain.Identity{Currency: from}, nil
	}

	obs, err := r.find(ctx, domain.RateQuery{
		From:       from,
		To:         to,
		ActiveOnly: true,
		ProviderID: providerID,
	})
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("Latest: %s/%s: %w", from, to, domain.ErrRateNotFound)
	}

	best := obs[0]
	for _, o := range obs[1:] {
		if o.Timestamp.After(best.Timestamp) {
			best = o
		}
	}
	return domain.Observed{Observation: best}, nil
}

// MultiProvider returns fresh observations (inside the staleness window) from
// active providers, best provider priority first, newest first within a
// provider, truncated to limit. limit <= 0 uses the configured default.
func (r *Resolver) MultiProvider(ctx context.Context, from, to domain.Currency, limit int) ([]domain.ResolvedRate, error) {
	if err := validatePair(from, to); err != nil {
		return nil, fmt.Errorf("MultiProvider: %w", err)
	}
	if from == to {
		return []domain.ResolvedRate{domain.Identity{Currency: from}}, nil
	}
	if limit <= 0 {
		limit = r.defaultLimit
	}

	since := r.now().Add(-r.staleness)
	obs, err := r.find(ctx, domain.RateQuery{
		From:       from,
		To:         to,
		ActiveOnly: true,
		Since:      &since,
	})
	if err != nil {
		return nil, fmt.Errorf("MultiProvider: %w", err)
	}

	sort.SliceStable(obs, func(i, j int) bool {
		pi, pj := obs[i].Provider.Priority, obs[j].Provider.Priority
		if pi != pj {
			return pi < pj
		}
		return obs[i].Timestamp.After(obs[j].Timestamp)
	})
	if len(obs) > limit {
		obs = obs[:limit]
	}

	rates := make([]domain.ResolvedRate, len(obs))
	for i := range obs {
		rates[i] = domain.Observed{Observation: obs[i]}
	}
	return rates, nil
}

func (r *Resolver) Providers(ctx context.Context) ([]domain.ExchangeRateProvider, error) {
	providers, err := r.source.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("Providers: %w", err)
	}
	return providers, nil
}

type findResult struct {
	obs []domain.ExchangeRate
	err error
}

// find queries the source under the lookup timeout. The query runs on its own
// goroutine so a source that ignores ctx still cannot hold the caller past the
// bound. A timeout reports both ErrRateNotFound and ErrUnavailable.
func (r *Resolver) find(ctx context.Context, q domain.RateQuery) ([]domain.ExchangeRate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ch := make(chan findResult, 1)
	go func() {
		obs, err := r.source.FindObservations(ctx, q)
		ch <- findResult{obs: obs, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return nil, r.timedOut(ctx, q)
			}
			return nil, fmt.Errorf("find: %w", res.err)
		}
		return res.obs, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, r.timedOut(ctx, q)
		}
		return nil, fmt.Errorf("find: %w", ctx.Err())
	}
}

func (r *Resolver) timedOut(ctx context.Context, q domain.RateQuery) error {
	logging.FromContext(ctx).Warn("rate source lookup timed out",
		"from", q.From,
		"to", q.To,
		"timeout_ms", r.timeout.Milliseconds(),
	)
	return fmt.Errorf("find %s/%s: %w: %w", q.From, q.To, domain.ErrRateNotFound, domain.ErrUnavailable)
}

func validatePair(from, to domain.Currency) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("invalid currency pair %q/%q: %w", from, to, domain.ErrInvalidCurrency)
	}
	return nil
}
