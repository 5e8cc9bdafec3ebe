package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

type CreateTransactionRequest struct {
	WalletID uuid.UUID
	Type     domain.TransactionType
	Amount   decimal.Decimal
	// Currency is optional; see domain.ResolveCurrency.
	Currency domain.Currency
	// ExchangeRate converts Amount into the wallet currency. When nil and the
	// currencies differ the latest observed rate is used.
	ExchangeRate       *decimal.Decimal
	ExchangeRateSource string
	Category           *string
	Description        *string
	Date               *time.Time
}

func (r *CreateTransactionRequest) validate() error {
	if !r.Type.IsValid() {
		return domain.ErrInvalidType
	}
	if !r.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if r.Currency != "" && !r.Currency.IsValid() {
		return domain.ErrInvalidCurrency
	}
	if r.ExchangeRate != nil && !r.ExchangeRate.IsPositive() {
		return fmt.Errorf("exchange rate must be positive: %w", domain.ErrInvalidRequest)
	}
	return nil
}

// UpdateTransactionRequest is a partial update; nil fields keep their stored value.
type UpdateTransactionRequest struct {
	Type               *domain.TransactionType
	Amount             *decimal.Decimal
	Currency           *domain.Currency
	ExchangeRate       *decimal.Decimal
	ExchangeRateSource *string
	Category           *string
	Description        *string
	Date               *time.Time
}

func (r *UpdateTransactionRequest) validate() error {
	if r.Type != nil && !r.Type.IsValid() {
		return domain.ErrInvalidType
	}
	if r.Amount != nil && !r.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if r.Currency != nil && !r.Currency.IsValid() {
		return domain.ErrInvalidCurrency
	}
	if r.ExchangeRate != nil && !r.ExchangeRate.IsPositive() {
		return fmt.Errorf("exchange rate must be positive: %w", domain.ErrInvalidRequest)
	}
	return nil
}

func (s *Service) CreateTransaction(ctx context.Context, userID uuid.UUID, req CreateTransactionRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	release, err := s.locks.acquire(ctx, req.WalletID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	defer release()

	wallet, err := s.ownedWallet(ctx, userID, req.WalletID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	currency, currencySource := domain.ResolveCurrency(req.Currency, wallet.Currency, s.defaultCurrency)
	rate, rateSource, err := s.exchangeRateFor(ctx, req, currency, wallet.Currency)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	now := s.now()
	date := now
	if req.Date != nil {
		date = req.Date.UTC()
	}

	t := &domain.Transaction{
		ID:                     id,
		WalletID:               wallet.ID,
		Type:                   req.Type,
		Amount:                 req.Amount,
		Currency:               currency,
		ExchangeRate:           rate,
		ExchangeRateSource:     rateSource,
		AmountInWalletCurrency: domain.AmountInWalletCurrency(req.Amount, rate),
		Category:               req.Category,
		Description:            req.Description,
		Date:                   date,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	created, err := s.withBalanceAfter(ctx, wallet, t.ID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	log.Info("transaction created",
		"transaction_id", created.ID,
		"wallet_id", wallet.ID,
		"type", created.Type,
		"amount", created.Amount,
		"currency", created.Currency,
		"currency_source", currencySource,
		"exchange_rate", created.ExchangeRate,
		"balance_after", created.BalanceAfter,
	)

	return created, nil
}

// exchangeRateFor picks the rate that converts the transaction currency into
// the wallet currency: the caller's rate, 1 for same-currency, or the latest
// observed rate.
func (s *Service) exchangeRateFor(ctx context.Context, req CreateTransactionRequest, currency, walletCurrency domain.Currency) (decimal.Decimal, string, error) {
	source := req.ExchangeRateSource
	if req.ExchangeRate != nil {
		if source == "" {
			source = domain.ExchangeRateSourceManual
		}
		return *req.ExchangeRate, source, nil
	}

	if walletCurrency == "" || currency == walletCurrency {
		if source == "" {
			source = domain.ExchangeRateSourceManual
		}
		return decimal.NewFromInt(1), source, nil
	}

	rate, err := s.rates.Latest(ctx, currency, walletCurrency, nil)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("exchangeRateFor %s/%s: %w", currency, walletCurrency, rateUnavailable(err))
	}
	return rate.Value(), domain.RateSourceName(rate), nil
}

func (s *Service) UpdateTransaction(ctx context.Context, userID, txID uuid.UUID, req UpdateTransactionRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	existing, err := s.transactions.GetByID(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	release, err := s.locks.acquire(ctx, existing.WalletID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	defer release()

	// Re-read under the wallet lock so the merge starts from the latest version.
	existing, err = s.transactions.GetByID(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	wallet, err := s.ownedWallet(ctx, userID, existing.WalletID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	// A new currency without a rate gets the rate Create would pick for it.
	if req.Currency != nil && req.ExchangeRate == nil && *req.Currency != existing.Currency {
		rate, source, err := s.exchangeRateFor(ctx, CreateTransactionRequest{}, *req.Currency, wallet.Currency)
		if err != nil {
			return nil, fmt.Errorf("UpdateTransaction: %w", err)
		}
		req.ExchangeRate = &rate
		if req.ExchangeRateSource == nil {
			req.ExchangeRateSource = &source
		}
	}

	updated := mergeTransaction(*existing, req)
	updated.Version = existing.Version + 1
	updated.UpdatedAt = s.now()

	if err := s.transactions.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	result, err := s.withBalanceAfter(ctx, wallet, updated.ID)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	log.Info("transaction updated",
		"transaction_id", result.ID,
		"wallet_id", wallet.ID,
		"version", result.Version,
		"amount", result.Amount,
		"amount_in_wallet_currency", result.AmountInWalletCurrency,
		"balance_after", result.BalanceAfter,
	)

	return result, nil
}

// mergeTransaction applies req over t. AmountInWalletCurrency is recomputed
// from the merged values whenever amount, rate or currency is touched.
func mergeTransaction(t domain.Transaction, req UpdateTransactionRequest) domain.Transaction {
	if req.Type != nil {
		t.Type = *req.Type
	}
	if req.Amount != nil {
		t.Amount = *req.Amount
	}
	if req.Currency != nil {
		t.Currency = *req.Currency
	}
	if req.ExchangeRate != nil {
		t.ExchangeRate = *req.ExchangeRate
		t.ExchangeRateSource = domain.ExchangeRateSourceManual
	}
	if req.ExchangeRateSource != nil {
		t.ExchangeRateSource = *req.ExchangeRateSource
	}
	if req.Category != nil {
		t.Category = req.Category
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Date != nil {
		t.Date = req.Date.UTC()
	}
	if req.Amount != nil || req.ExchangeRate != nil || req.Currency != nil {
		t.AmountInWalletCurrency = domain.AmountInWalletCurrency(t.Amount, t.ExchangeRate)
	}
	return t
}

func (s *Service) DeleteTransaction(ctx context.Context, userID, txID uuid.UUID) error {
	log := logging.FromContext(ctx)

	existing, err := s.transactions.GetByID(ctx, txID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	release, err := s.locks.acquire(ctx, existing.WalletID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	defer release()

	if _, err := s.ownedWallet(ctx, userID, existing.WalletID); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if err := s.transactions.Delete(ctx, txID); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	log.Info("transaction deleted", "transaction_id", txID, "wallet_id", existing.WalletID)
	return nil
}

// WalletLedger is a wallet with its full history and closing balance.
type WalletLedger struct {
	Wallet       domain.Wallet
	Transactions []domain.Transaction
	Balance      decimal.Decimal
}

// GetWalletWithTransactions returns the wallet's history in ascending ledger order.
func (s *Service) GetWalletWithTransactions(ctx context.Context, userID, walletID uuid.UUID) (*WalletLedger, error) {
	wallet, err := s.ownedWallet(ctx, userID, walletID)
	if err != nil {
		return nil, fmt.Errorf("GetWalletWithTransactions: %w", err)
	}
	txs, balance, err := s.history(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("GetWalletWithTransactions: %w", err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return &WalletLedger{Wallet: *wallet, Transactions: txs, Balance: balance}, nil
}

// ListTransactions returns the wallet's history in the requested order, each
// transaction carrying its derived BalanceAfter.
func (s *Service) ListTransactions(ctx context.Context, userID, walletID uuid.UUID, order domain.SortOrder) ([]domain.Transaction, error) {
	wl, err := s.GetWalletWithTransactions(ctx, userID, walletID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	txs := wl.Transactions
	if order == domain.SortDesc {
		for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
			txs[i], txs[j] = txs[j], txs[i]
		}
	}
	return txs, nil
}

// GetTransactionsByCategory totals raw amounts per non-empty category within
// dates, largest total first.
func (s *Service) GetTransactionsByCategory(ctx context.Context, userID, walletID uuid.UUID, dates domain.DateRange) ([]domain.CategoryTotal, error) {
	if dates.From != nil && dates.To != nil && dates.From.After(*dates.To) {
		return nil, fmt.Errorf("GetTransactionsByCategory: from after to: %w", domain.ErrInvalidRequest)
	}
	if _, err := s.ownedWallet(ctx, userID, walletID); err != nil {
		return nil, fmt.Errorf("GetTransactionsByCategory: %w", err)
	}
	totals, err := s.transactions.SumByCategory(ctx, walletID, dates)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionsByCategory: %w", err)
	}
	if totals == nil {
		totals = []domain.CategoryTotal{}
	}
	return totals, nil
}
