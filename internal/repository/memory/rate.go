package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type RateRepository struct {
	s *Store
}

// UpsertProvider inserts p or replaces the provider with the same name.
func (r *RateRepository) UpsertProvider(_ context.Context, p *domain.ExchangeRateProvider) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, existing := range r.s.providers {
		if existing.Name == p.Name {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
			break
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	r.s.providers[p.ID] = &cp
	return nil
}

func (r *RateRepository) GetProviderByName(_ context.Context, name string) (*domain.ExchangeRateProvider, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.providers {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("GetProviderByName: %w", domain.ErrNotFound)
}

func (r *RateRepository) ListProviders(_ context.Context) ([]domain.ExchangeRateProvider, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	providers := make([]domain.ExchangeRateProvider, 0, len(r.s.providers))
	for _, p := range r.s.providers {
		providers = append(providers, *p)
	}
	sort.Slice(providers, func(i, j int) bool {
		if providers[i].Priority != providers[j].Priority {
			return providers[i].Priority < providers[j].Priority
		}
		return providers[i].Name < providers[j].Name
	})
	return providers, nil
}

// RecordObservation appends obs. An observation with the same
// (from, to, provider, timestamp) identity is ignored and reported as not inserted.
func (r *RateRepository) RecordObservation(_ context.Context, obs *domain.ExchangeRate) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.providers[obs.Provider.ID]; !ok {
		return false, fmt.Errorf("RecordObservation: provider %s: %w", obs.Provider.ID, domain.ErrNotFound)
	}
	for _, existing := range r.s.rates {
		if existing.FromCurrency == obs.FromCurrency &&
			existing.ToCurrency == obs.ToCurrency &&
			existing.Provider.ID == obs.Provider.ID &&
			existing.Timestamp.Equal(obs.Timestamp) {
			return false, nil
		}
	}
	cp := *obs
	r.s.rates = append(r.s.rates, &cp)
	return true, nil
}

// FindObservations joins each observation with the current provider row so
// activation changes apply to history, as the SQL join does.
func (r *RateRepository) FindObservations(ctx context.Context, q domain.RateQuery) ([]domain.ExchangeRate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.ExchangeRate
	for _, obs := range r.s.rates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("FindObservations: %w", err)
		}
		joined := *obs
		if p, ok := r.s.providers[obs.Provider.ID]; ok {
			joined.Provider = *p
		}
		if q.Matches(&joined) {
			out = append(out, joined)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
