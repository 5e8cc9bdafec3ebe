package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

type walletRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	Create(ctx context.Context, w *domain.Wallet) error
}

type userChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// WalletService creates and reads wallets. Mutations that touch balances go
// through the ledger service.
type WalletService struct {
	wallets         walletRepo
	users           userChecker
	defaultCurrency domain.Currency
}

func NewWalletService(wallets walletRepo, users userChecker, defaultCurrency domain.Currency) *WalletService {
	if defaultCurrency == "" {
		defaultCurrency = domain.FallbackCurrency
	}
	return &WalletService{wallets: wallets, users: users, defaultCurrency: defaultCurrency}
}

type CreateWalletRequest struct {
	Name string
	// Currency defaults to the owner's reporting currency, then the service default.
	Currency       domain.Currency
	InitialBalance decimal.Decimal
}

func (s *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID, req CreateWalletRequest) (*domain.Wallet, error) {
	log := logging.FromContext(ctx)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("CreateWallet: name required: %w", domain.ErrInvalidRequest)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CreateWallet: %w", err)
	}

	currency, _ := domain.ResolveCurrency(req.Currency, user.ReportingCurrency, s.defaultCurrency)
	if !currency.IsValid() {
		return nil, fmt.Errorf("CreateWallet: %w", domain.ErrInvalidCurrency)
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		Currency:       currency,
		InitialBalance: domain.RoundMoney(req.InitialBalance),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.wallets.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("CreateWallet: %w", err)
	}

	log.Info("wallet created",
		"wallet_id", wallet.ID,
		"user_id", userID,
		"currency", currency,
		"initial_balance", wallet.InitialBalance,
	)

	return wallet, nil
}

func (s *WalletService) ListWallets(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListWallets: %w", err)
	}
	if wallets == nil {
		wallets = []domain.Wallet{}
	}
	return wallets, nil
}

func (s *WalletService) GetWallet(ctx context.Context, userID, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("GetWallet: %w", err)
	}
	if !w.OwnedBy(userID) {
		return nil, fmt.Errorf("GetWallet: %w", domain.ErrForbidden)
	}
	return w, nil
}
