package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type TransactionRepository struct {
	s *Store
}

func (r *TransactionRepository) Create(_ context.Context, t *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[t.WalletID]; !ok {
		return fmt.Errorf("Create: %w", domain.ErrWalletNotFound)
	}
	if _, ok := r.s.transactions[t.ID]; ok {
		return fmt.Errorf("Create: transaction %s already exists", t.ID)
	}
	r.s.transactions[t.ID] = stored(t)
	return nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrTransactionNotFound)
	}
	cp := *t
	return &cp, nil
}

func (r *TransactionRepository) ListByWallet(_ context.Context, walletID uuid.UUID, order domain.SortOrder) ([]domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var txs []domain.Transaction
	for _, t := range r.s.transactions {
		if t.WalletID == walletID {
			txs = append(txs, *t)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if order == domain.SortDesc {
			return txs[j].Before(&txs[i])
		}
		return txs[i].Before(&txs[j])
	})
	return txs, nil
}

// Update stores t if the stored version is t.Version-1.
func (r *TransactionRepository) Update(_ context.Context, t *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.transactions[t.ID]
	if !ok {
		return fmt.Errorf("Update: %w", domain.ErrTransactionNotFound)
	}
	if cur.Version != t.Version-1 {
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	r.s.transactions[t.ID] = stored(t)
	return nil
}

func (r *TransactionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.transactions[id]; !ok {
		return fmt.Errorf("Delete: %w", domain.ErrTransactionNotFound)
	}
	delete(r.s.transactions, id)
	return nil
}

func (r *TransactionRepository) CountByWallet(_ context.Context, walletID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, t := range r.s.transactions {
		if t.WalletID == walletID {
			n++
		}
	}
	return n, nil
}

func (r *TransactionRepository) SumByCategory(_ context.Context, walletID uuid.UUID, dates domain.DateRange) ([]domain.CategoryTotal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byName := make(map[string]*domain.CategoryTotal)
	for _, t := range r.s.transactions {
		if t.WalletID != walletID || t.Category == nil || !dates.Contains(t.Date) {
			continue
		}
		ct, ok := byName[*t.Category]
		if !ok {
			ct = &domain.CategoryTotal{Category: *t.Category, TotalAmount: decimal.Zero}
			byName[*t.Category] = ct
		}
		ct.TotalAmount = ct.TotalAmount.Add(t.Amount)
		ct.Count++
	}

	totals := make([]domain.CategoryTotal, 0, len(byName))
	for _, ct := range byName {
		totals = append(totals, *ct)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].TotalAmount.Cmp(totals[j].TotalAmount); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals, nil
}

// stored copies t without the read-side BalanceAfter.
func stored(t *domain.Transaction) *domain.Transaction {
	cp := *t
	cp.BalanceAfter = decimal.Zero
	return &cp
}
