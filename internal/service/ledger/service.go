// Package ledger owns per-wallet transaction history and everything derived
// from it: running balances, wallet balances and the cross-wallet portfolio.
//
// Running balances are never stored. Every read walks the wallet's history in
// (date, id) order from the initial balance, so an insert, edit or delete
// anywhere in the history is reflected in every later balanceAfter.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/fx"
)

type walletRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	Update(ctx context.Context, w *domain.Wallet) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type transactionRepo interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, order domain.SortOrder) ([]domain.Transaction, error)
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error)
	SumByCategory(ctx context.Context, walletID uuid.UUID, dates domain.DateRange) ([]domain.CategoryTotal, error)
}

type rateResolver interface {
	Latest(ctx context.Context, from, to domain.Currency, providerID *uuid.UUID) (domain.ResolvedRate, error)
}

type converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, providerID *uuid.UUID) (*fx.Conversion, error)
}

type Service struct {
	wallets         walletRepo
	transactions    transactionRepo
	rates           rateResolver
	fx              converter
	locks           *walletLocks
	defaultCurrency domain.Currency
	now             func() time.Time
}

func NewService(
	wallets walletRepo,
	transactions transactionRepo,
	rates rateResolver,
	conv converter,
	defaultCurrency domain.Currency,
) *Service {
	if defaultCurrency == "" {
		defaultCurrency = domain.FallbackCurrency
	}
	return &Service{
		wallets:         wallets,
		transactions:    transactions,
		rates:           rates,
		fx:              conv,
		locks:           newWalletLocks(),
		defaultCurrency: defaultCurrency,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// ownedWallet loads the wallet and checks it belongs to userID.
func (s *Service) ownedWallet(ctx context.Context, userID, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("ownedWallet: %w", err)
	}
	if !w.OwnedBy(userID) {
		return nil, fmt.Errorf("ownedWallet: wallet %s: %w", walletID, domain.ErrForbidden)
	}
	return w, nil
}

// history returns the wallet's transactions in ascending ledger order with
// BalanceAfter populated, and the rounded closing balance.
func (s *Service) history(ctx context.Context, w *domain.Wallet) ([]domain.Transaction, decimal.Decimal, error) {
	txs, err := s.transactions.ListByWallet(ctx, w.ID, domain.SortAsc)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("history: %w", err)
	}
	closing := runningBalances(w.InitialBalance, txs)
	return txs, domain.RoundMoney(closing), nil
}

// withBalanceAfter re-reads the wallet history and returns transaction id
// carrying its derived BalanceAfter.
func (s *Service) withBalanceAfter(ctx context.Context, w *domain.Wallet, id uuid.UUID) (*domain.Transaction, error) {
	txs, _, err := s.history(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("withBalanceAfter: %w", err)
	}
	for i := range txs {
		if txs[i].ID == id {
			return &txs[i], nil
		}
	}
	return nil, fmt.Errorf("withBalanceAfter: %w", domain.ErrTransactionNotFound)
}

// runningBalances fills BalanceAfter on txs, which must be in ascending ledger
// order, and returns the unrounded closing balance. Each BalanceAfter is
// rounded for presentation only; the accumulator never is.
func runningBalances(initial decimal.Decimal, txs []domain.Transaction) decimal.Decimal {
	bal := initial
	for i := range txs {
		bal = bal.Add(txs[i].SignedAmount())
		txs[i].BalanceAfter = domain.RoundMoney(bal)
	}
	return bal
}

// rateUnavailable maps a resolver miss onto the ledger's error class.
func rateUnavailable(err error) error {
	if errors.Is(err, domain.ErrRateNotFound) && !errors.Is(err, domain.ErrRateUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrRateUnavailable, err)
	}
	return err
}
