package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const providerColumns = `id, name, is_active, priority, reliability_score, created_at`

const observationColumns = `r.id, r.from_currency, r.to_currency, r.rate,
	r.bid_rate, r.ask_rate, r.mid_rate, r.rate_type, r.timestamp, r.valid_until,
	p.id, p.name, p.is_active, p.priority, p.reliability_score, p.created_at`

// RateRepository is the rate store: providers plus an append-only log of
// observations. It serves as the resolver's rate source.
type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// UpsertProvider inserts p or updates the provider with the same name,
// setting p.ID to the stored id.
func (r *RateRepository) UpsertProvider(ctx context.Context, p *domain.ExchangeRateProvider) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO exchange_rate_providers (`+providerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			priority = EXCLUDED.priority,
			reliability_score = EXCLUDED.reliability_score
		RETURNING id, created_at`,
		p.ID, p.Name, p.IsActive, p.Priority, p.ReliabilityScore, p.CreatedAt,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("UpsertProvider: %w", err)
	}
	return nil
}

func (r *RateRepository) GetProviderByName(ctx context.Context, name string) (*domain.ExchangeRateProvider, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM exchange_rate_providers WHERE name = $1`, name,
	)
	p, err := scanProvider(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetProviderByName: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetProviderByName: %w", err)
	}
	return p, nil
}

func (r *RateRepository) ListProviders(ctx context.Context) ([]domain.ExchangeRateProvider, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+providerColumns+` FROM exchange_rate_providers ORDER BY priority, name COLLATE "C"`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListProviders: %w", err)
	}
	defer rows.Close()

	var providers []domain.ExchangeRateProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("ListProviders: scan: %w", err)
		}
		providers = append(providers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListProviders: rows: %w", err)
	}
	return providers, nil
}

// RecordObservation appends obs and reports whether a row was written. An
// observation with the same (from, to, provider, timestamp) is ignored.
func (r *RateRepository) RecordObservation(ctx context.Context, obs *domain.ExchangeRate) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (
			id, from_currency, to_currency, provider_id, rate,
			bid_rate, ask_rate, mid_rate, rate_type, timestamp, valid_until
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (from_currency, to_currency, provider_id, timestamp) DO NOTHING`,
		obs.ID, obs.FromCurrency, obs.ToCurrency, obs.Provider.ID, obs.Rate,
		nullDecimal(obs.BidRate), nullDecimal(obs.AskRate), nullDecimal(obs.MidRate),
		obs.RateType, obs.Timestamp, obs.ValidUntil,
	)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return false, fmt.Errorf("RecordObservation: provider %s: %w", obs.Provider.ID, domain.ErrNotFound)
		}
		return false, fmt.Errorf("RecordObservation: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("RecordObservation: rows affected: %w", err)
	}
	return rows == 1, nil
}

// FindObservations returns observations matching q, freshest first.
func (r *RateRepository) FindObservations(ctx context.Context, q domain.RateQuery) ([]domain.ExchangeRate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+observationColumns+`
		FROM exchange_rates r
		JOIN exchange_rate_providers p ON p.id = r.provider_id
		WHERE r.from_currency = $1 AND r.to_currency = $2
			AND (NOT $3::boolean OR p.is_active)
			AND ($4::uuid IS NULL OR r.provider_id = $4)
			AND ($5::timestamptz IS NULL OR r.timestamp > $5)
		ORDER BY r.timestamp DESC, r.id`,
		q.From, q.To, q.ActiveOnly, q.ProviderID, q.Since,
	)
	if err != nil {
		return nil, fmt.Errorf("FindObservations: %w", err)
	}
	defer rows.Close()

	var out []domain.ExchangeRate
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("FindObservations: scan: %w", err)
		}
		out = append(out, *obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindObservations: rows: %w", err)
	}
	return out, nil
}

func scanProvider(s scanner) (*domain.ExchangeRateProvider, error) {
	var p domain.ExchangeRateProvider
	err := s.Scan(&p.ID, &p.Name, &p.IsActive, &p.Priority, &p.ReliabilityScore, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanObservation(s scanner) (*domain.ExchangeRate, error) {
	var (
		obs           domain.ExchangeRate
		bid, ask, mid decimal.NullDecimal
	)
	err := s.Scan(
		&obs.ID, &obs.FromCurrency, &obs.ToCurrency, &obs.Rate,
		&bid, &ask, &mid, &obs.RateType, &obs.Timestamp, &obs.ValidUntil,
		&obs.Provider.ID, &obs.Provider.Name, &obs.Provider.IsActive,
		&obs.Provider.Priority, &obs.Provider.ReliabilityScore, &obs.Provider.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	obs.BidRate = fromNullDecimal(bid)
	obs.AskRate = fromNullDecimal(ask)
	obs.MidRate = fromNullDecimal(mid)
	obs.Timestamp = obs.Timestamp.UTC()
	return &obs, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
