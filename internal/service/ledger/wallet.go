package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

// UpdateWalletRequest is a partial update; nil fields keep their stored value.
type UpdateWalletRequest struct {
	Name           *string
	Currency       *domain.Currency
	InitialBalance *decimal.Decimal
}

// UpdateWallet renames a wallet or changes its initial balance, which shifts
// every derived balance. The currency can only change while the wallet owns
// no transactions, since their AmountInWalletCurrency would go stale.
func (s *Service) UpdateWallet(ctx context.Context, userID, walletID uuid.UUID, req UpdateWalletRequest) (*domain.Wallet, error) {
	log := logging.FromContext(ctx)

	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("UpdateWallet: name required: %w", domain.ErrInvalidRequest)
	}
	if req.Currency != nil && !req.Currency.IsValid() {
		return nil, fmt.Errorf("UpdateWallet: %w", domain.ErrInvalidCurrency)
	}

	release, err := s.locks.acquire(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("UpdateWallet: %w", err)
	}
	defer release()

	wallet, err := s.ownedWallet(ctx, userID, walletID)
	if err != nil {
		return nil, fmt.Errorf("UpdateWallet: %w", err)
	}

	updated := *wallet
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.InitialBalance != nil {
		updated.InitialBalance = domain.RoundMoney(*req.InitialBalance)
	}
	if req.Currency != nil && *req.Currency != wallet.Currency {
		n, err := s.transactions.CountByWallet(ctx, walletID)
		if err != nil {
			return nil, fmt.Errorf("UpdateWallet: %w", err)
		}
		if n > 0 {
			return nil, fmt.Errorf("UpdateWallet: change currency with %d transactions: %w", n, domain.ErrConflict)
		}
		updated.Currency = *req.Currency
	}
	updated.Version = wallet.Version + 1
	updated.UpdatedAt = s.now()

	if err := s.wallets.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("UpdateWallet: %w", err)
	}

	log.Info("wallet updated", "wallet_id", walletID, "version", updated.Version)
	return &updated, nil
}

// DeleteWallet removes a wallet that owns no transactions.
func (s *Service) DeleteWallet(ctx context.Context, userID, walletID uuid.UUID) error {
	log := logging.FromContext(ctx)

	release, err := s.locks.acquire(ctx, walletID)
	if err != nil {
		return fmt.Errorf("DeleteWallet: %w", err)
	}
	defer release()

	if _, err := s.ownedWallet(ctx, userID, walletID); err != nil {
		return fmt.Errorf("DeleteWallet: %w", err)
	}

	n, err := s.transactions.CountByWallet(ctx, walletID)
	if err != nil {
		return fmt.Errorf("DeleteWallet: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("DeleteWallet: wallet has %d transactions: %w", n, domain.ErrConflict)
	}

	if err := s.wallets.Delete(ctx, walletID); err != nil {
		return fmt.Errorf("DeleteWallet: %w", err)
	}

	log.Info("wallet deleted", "wallet_id", walletID)
	return nil
}
