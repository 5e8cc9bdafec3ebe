package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type WalletRepository struct {
	s *Store
}

func (r *WalletRepository) Create(_ context.Context, w *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[w.ID]; ok {
		return fmt.Errorf("Create: wallet %s already exists", w.ID)
	}
	cp := *w
	r.s.wallets[w.ID] = &cp
	return nil
}

func (r *WalletRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrWalletNotFound)
	}
	cp := *w
	return &cp, nil
}

func (r *WalletRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var wallets []domain.Wallet
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			wallets = append(wallets, *w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool {
		if !wallets[i].CreatedAt.Equal(wallets[j].CreatedAt) {
			return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
		}
		return wallets[i].ID.String() < wallets[j].ID.String()
	})
	return wallets, nil
}

// Update stores w if the stored version is w.Version-1.
func (r *WalletRepository) Update(_ context.Context, w *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.wallets[w.ID]
	if !ok {
		return fmt.Errorf("Update: %w", domain.ErrWalletNotFound)
	}
	if cur.Version != w.Version-1 {
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	cp := *w
	r.s.wallets[w.ID] = &cp
	return nil
}

// Delete removes the wallet unless it still owns transactions.
func (r *WalletRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[id]; !ok {
		return fmt.Errorf("Delete: %w", domain.ErrWalletNotFound)
	}
	for _, t := range r.s.transactions {
		if t.WalletID == id {
			return fmt.Errorf("Delete: %w", domain.ErrConflict)
		}
	}
	delete(r.s.wallets, id)
	return nil
}
