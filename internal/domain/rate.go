package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RateType string

const (
	RateTypeBid  RateType = "bid"
	RateTypeAsk  RateType = "ask"
	RateTypeMid  RateType = "mid"
	RateTypeSpot RateType = "spot"
)

func (t RateType) IsValid() bool {
	switch t {
	case RateTypeBid, RateTypeAsk, RateTypeMid, RateTypeSpot:
		return true
	}
	return false
}

type ExchangeRateProvider struct {
	ID               uuid.UUID
	Name             string
	IsActive         bool
	Priority         int
	ReliabilityScore decimal.Decimal
	CreatedAt        time.Time
}

// ExchangeRate is one immutable observation from a provider. Observations
// are identified by (FromCurrency, ToCurrency, Provider, Timestamp).
type ExchangeRate struct {
	ID           uuid.UUID
	FromCurrency Currency
	ToCurrency   Currency
	Provider     ExchangeRateProvider
	Rate         decimal.Decimal
	BidRate      *decimal.Decimal
	AskRate      *decimal.Decimal
	MidRate      *decimal.Decimal
	RateType     RateType
	Timestamp    time.Time
	ValidUntil   *time.Time
}

// RateQuery filters observations for a currency pair.
type RateQuery struct {
	From       Currency
	To         Currency
	ActiveOnly bool
	ProviderID *uuid.UUID
	Since      *time.Time
}

func (q RateQuery) Matches(r *ExchangeRate) bool {
	if r.FromCurrency != q.From || r.ToCurrency != q.To {
		return false
	}
	if q.ActiveOnly && !r.Provider.IsActive {
		return false
	}
	if q.ProviderID != nil && r.Provider.ID != *q.ProviderID {
		return false
	}
	if q.Since != nil && !r.Timestamp.After(*q.Since) {
		return false
	}
	return true
}

// ResolvedRate is the result of a rate lookup: either Observed, backed by a
// stored observation, or Identity for a same-currency pair.
type ResolvedRate interface {
	Value() decimal.Decimal
	Pair() (from, to Currency)
	resolvedRate()
}

type Observed struct {
	Observation ExchangeRate
}

func (o Observed) Value() decimal.Decimal     { return o.Observation.Rate }
func (o Observed) Pair() (Currency, Currency) { return o.Observation.FromCurrency, o.Observation.ToCurrency }
func (Observed) resolvedRate()                {}

type Identity struct {
	Currency Currency
}

func (Identity) Value() decimal.Decimal       { return decimal.NewFromInt(1) }
func (i Identity) Pair() (Currency, Currency) { return i.Currency, i.Currency }
func (Identity) resolvedRate()                {}

// RateSourceName names where a resolved rate came from for audit fields.
func RateSourceName(r ResolvedRate) string {
	switch v := r.(type) {
	case Observed:
		return v.Observation.Provider.Name
	case Identity:
		return "identity"
	default:
		return ExchangeRateSourceManual
	}
}
