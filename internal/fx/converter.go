package fx

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

type rateResolver interface {
	Latest(ctx context.Context, from, to domain.Currency, providerID *uuid.UUID) (domain.ResolvedRate, error)
}

// Conversion is one amount converted at Rate. ConvertedAmount is not rounded.
type Conversion struct {
	Amount          decimal.Decimal
	From            domain.Currency
	To              domain.Currency
	ConvertedAmount decimal.Decimal
	Rate            domain.ResolvedRate
}

type BatchItem struct {
	Amount   decimal.Decimal
	Currency domain.Currency
}

type BatchConversion struct {
	Target      domain.Currency
	TotalAmount decimal.Decimal
	Items       []Conversion
}

type Converter struct {
	rates rateResolver
}

func NewConverter(rates rateResolver) *Converter {
	return &Converter{rates: rates}
}

func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, providerID *uuid.UUID) (*Conversion, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Convert: %w", domain.ErrInvalidAmount)
	}

	rate, err := c.rates.Latest(ctx, from, to, providerID)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			return nil, fmt.Errorf("Convert: %w: %w", domain.ErrRateUnavailable, err)
		}
		return nil, fmt.Errorf("Convert: %w", err)
	}

	return &Conversion{
		Amount:          amount,
		From:            from,
		To:              to,
		ConvertedAmount: amount.Mul(rate.Value()),
		Rate:            rate,
	}, nil
}

// BatchConvert converts every item into target and sums the results. Items
// already in target pass through at the identity rate without a lookup. The
// first failing item aborts the whole batch.
func (c *Converter) BatchConvert(ctx context.Context, items []BatchItem, target domain.Currency) (*BatchConversion, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("BatchConvert: target %q: %w", target, domain.ErrInvalidCurrency)
	}
	log := logging.FromContext(ctx)

	out := &BatchConversion{
		Target:      target,
		TotalAmount: decimal.Zero,
		Items:       make([]Conversion, 0, len(items)),
	}

	for i, item := range items {
		if !item.Amount.IsPositive() {
			return nil, fmt.Errorf("BatchConvert: item %d (%s %s): %w", i, item.Amount, item.Currency, domain.ErrInvalidAmount)
		}

		var conv *Conversion
		if item.Currency == target {
			conv = &Conversion{
				Amount:          item.Amount,
				From:            target,
				To:              target,
				ConvertedAmount: item.Amount,
				Rate:            domain.Identity{Currency: target},
			}
		} else {
			var err error
			conv, err = c.Convert(ctx, item.Amount, item.Currency, target, nil)
			if err != nil {
				return nil, fmt.Errorf("BatchConvert: item %d (%s %s): %w", i, item.Amount, item.Currency, err)
			}
		}

		out.TotalAmount = out.TotalAmount.Add(conv.ConvertedAmount)
		out.Items = append(out.Items, *conv)

		log.Debug("batch item converted",
			"index", i,
			"from", conv.From,
			"to", target,
			"rate", conv.Rate.Value(),
			"converted", conv.ConvertedAmount,
			"running_total", out.TotalAmount,
		)
	}

	return out, nil
}
