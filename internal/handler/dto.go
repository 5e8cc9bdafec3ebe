package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/fx"
	"github.com/josh-kwaku/wallet-ledger/internal/service/ledger"
)

const dateOnly = "2006-01-02"

// parseDate accepts RFC 3339 timestamps or bare dates, which mean midnight UTC.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parseDate %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func money(d decimal.Decimal) string {
	return domain.RoundMoney(d).StringFixed(domain.MoneyPlaces)
}

type userDTO struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	ReportingCurrency string    `json:"reporting_currency"`
	CreatedAt         time.Time `json:"created_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		ReportingCurrency: string(u.ReportingCurrency),
		CreatedAt:         u.CreatedAt,
	}
}

type walletDTO struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Currency       string    `json:"currency"`
	InitialBalance string    `json:"initial_balance"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toWalletDTO(w *domain.Wallet) walletDTO {
	return walletDTO{
		ID:             w.ID,
		UserID:         w.UserID,
		Name:           w.Name,
		Currency:       string(w.Currency),
		InitialBalance: money(w.InitialBalance),
		Version:        w.Version,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

type transactionDTO struct {
	ID                     uuid.UUID `json:"id"`
	WalletID               uuid.UUID `json:"wallet_id"`
	Type                   string    `json:"type"`
	Amount                 string    `json:"amount"`
	Currency               string    `json:"currency"`
	ExchangeRate           string    `json:"exchange_rate"`
	ExchangeRateSource     string    `json:"exchange_rate_source"`
	AmountInWalletCurrency string    `json:"amount_in_wallet_currency"`
	Category               *string   `json:"category"`
	Description            *string   `json:"description"`
	Date                   time.Time `json:"date"`
	BalanceAfter           string    `json:"balance_after"`
	Version                int64     `json:"version"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:                     t.ID,
		WalletID:               t.WalletID,
		Type:                   string(t.Type),
		Amount:                 t.Amount.String(),
		Currency:               string(t.Currency),
		ExchangeRate:           t.ExchangeRate.String(),
		ExchangeRateSource:     t.ExchangeRateSource,
		AmountInWalletCurrency: money(t.AmountInWalletCurrency),
		Category:               t.Category,
		Description:            t.Description,
		Date:                   t.Date,
		BalanceAfter:           money(t.BalanceAfter),
		Version:                t.Version,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}

func toTransactionDTOs(txs []domain.Transaction) []transactionDTO {
	out := make([]transactionDTO, len(txs))
	for i := range txs {
		out[i] = toTransactionDTO(&txs[i])
	}
	return out
}

type balanceDTO struct {
	WalletID   uuid.UUID `json:"wallet_id"`
	WalletName string    `json:"wallet_name"`
	Currency   string    `json:"currency"`
	Balance    string    `json:"balance"`
	Formatted  string    `json:"formatted"`
}

func toBalanceDTO(b *ledger.WalletBalance) balanceDTO {
	return balanceDTO{
		WalletID:   b.WalletID,
		WalletName: b.WalletName,
		Currency:   string(b.Currency),
		Balance:    money(b.Balance),
		Formatted:  domain.FormatAmount(b.Balance, b.Currency),
	}
}

type categoryDTO struct {
	Category    string `json:"category"`
	TotalAmount string `json:"total_amount"`
	Count       int    `json:"count"`
}

type rateDTO struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Rate       string     `json:"rate"`
	Source     string     `json:"source"`
	ProviderID *uuid.UUID `json:"provider_id,omitempty"`
	Priority   *int       `json:"priority,omitempty"`
	RateType   string     `json:"rate_type,omitempty"`
	Bid        *string    `json:"bid,omitempty"`
	Ask        *string    `json:"ask,omitempty"`
	Mid        *string    `json:"mid,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

func optionalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func toRateDTO(r domain.ResolvedRate) rateDTO {
	from, to := r.Pair()
	dto := rateDTO{
		From:   string(from),
		To:     string(to),
		Rate:   r.Value().String(),
		Source: domain.RateSourceName(r),
	}
	if o, ok := r.(domain.Observed); ok {
		obs := o.Observation
		dto.ProviderID = &obs.Provider.ID
		dto.Priority = &obs.Provider.Priority
		dto.RateType = string(obs.RateType)
		dto.Bid = optionalString(obs.BidRate)
		dto.Ask = optionalString(obs.AskRate)
		dto.Mid = optionalString(obs.MidRate)
		dto.Timestamp = &obs.Timestamp
		dto.ValidUntil = obs.ValidUntil
	}
	return dto
}

type providerDTO struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	IsActive         bool      `json:"is_active"`
	Priority         int       `json:"priority"`
	ReliabilityScore string    `json:"reliability_score"`
}

type conversionDTO struct {
	Amount          string  `json:"amount"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	ConvertedAmount string  `json:"converted_amount"`
	Rounded         string  `json:"rounded"`
	Rate            rateDTO `json:"rate"`
}

func toConversionDTO(c *fx.Conversion) conversionDTO {
	return conversionDTO{
		Amount:          c.Amount.String(),
		From:            string(c.From),
		To:              string(c.To),
		ConvertedAmount: c.ConvertedAmount.String(),
		Rounded:         money(c.ConvertedAmount),
		Rate:            toRateDTO(c.Rate),
	}
}
