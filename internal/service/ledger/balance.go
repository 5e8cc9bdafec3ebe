package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

type WalletBalance struct {
	WalletID   uuid.UUID
	WalletName string
	Currency   domain.Currency
	Balance    decimal.Decimal
}

// GetBalance is initialBalance plus every signed amount, rounded once at the end.
func (s *Service) GetBalance(ctx context.Context, userID, walletID uuid.UUID) (*WalletBalance, error) {
	wallet, err := s.ownedWallet(ctx, userID, walletID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	_, balance, err := s.history(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return &WalletBalance{
		WalletID:   wallet.ID,
		WalletName: wallet.Name,
		Currency:   wallet.Currency,
		Balance:    balance,
	}, nil
}

// PortfolioEntry is one wallet's contribution to a portfolio total. Rate is
// nil when no conversion was needed.
type PortfolioEntry struct {
	WalletBalance
	Converted decimal.Decimal
	Rate      domain.ResolvedRate
}

type Portfolio struct {
	Currency domain.Currency
	Total    decimal.Decimal
	Wallets  []PortfolioEntry
}

// PortfolioBalance converts every wallet balance of userID into reporting and
// sums them. An empty reporting currency means the service default. A wallet
// already in reporting skips conversion, a zero balance contributes zero, and
// a negative balance is converted by magnitude and keeps its sign. Any wallet
// whose rate cannot be resolved fails the whole call with ErrRateUnavailable.
func (s *Service) PortfolioBalance(ctx context.Context, userID uuid.UUID, reporting domain.Currency) (*Portfolio, error) {
	log := logging.FromContext(ctx)

	if reporting == "" {
		reporting = s.defaultCurrency
	}
	if !reporting.IsValid() {
		return nil, fmt.Errorf("PortfolioBalance: %w", domain.ErrInvalidCurrency)
	}

	wallets, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("PortfolioBalance: %w", err)
	}

	out := &Portfolio{
		Currency: reporting,
		Total:    decimal.Zero,
		Wallets:  make([]PortfolioEntry, 0, len(wallets)),
	}
	for i := range wallets {
		w := &wallets[i]
		_, balance, err := s.history(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("PortfolioBalance: wallet %s: %w", w.ID, err)
		}

		entry := PortfolioEntry{
			WalletBalance: WalletBalance{WalletID: w.ID, WalletName: w.Name, Currency: w.Currency, Balance: balance},
			Converted:     decimal.Zero,
		}
		switch {
		case w.Currency == reporting:
			entry.Converted = balance
			entry.Rate = domain.Identity{Currency: reporting}
		case balance.IsZero():
		default:
			conv, err := s.fx.Convert(ctx, balance.Abs(), w.Currency, reporting, nil)
			if err != nil {
				return nil, fmt.Errorf("PortfolioBalance: wallet %s: %w", w.ID, rateUnavailable(err))
			}
			entry.Converted = conv.ConvertedAmount
			if balance.IsNegative() {
				entry.Converted = entry.Converted.Neg()
			}
			entry.Rate = conv.Rate
		}

		out.Total = out.Total.Add(entry.Converted)
		entry.Converted = domain.RoundMoney(entry.Converted)
		out.Wallets = append(out.Wallets, entry)
	}
	out.Total = domain.RoundMoney(out.Total)

	log.Debug("portfolio balance computed",
		"user_id", userID,
		"currency", reporting,
		"wallets", len(out.Wallets),
		"total", out.Total,
	)

	return out, nil
}
