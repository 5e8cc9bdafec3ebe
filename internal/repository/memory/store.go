// Package memory is an in-process record store and rate source. It is safe
// for concurrent use and loses all data on restart; it backs the unit tests
// and STORE_DRIVER=memory.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type idempotencyKey struct {
	key    string
	userID uuid.UUID
}

type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*domain.User
	wallets      map[uuid.UUID]*domain.Wallet
	transactions map[uuid.UUID]*domain.Transaction
	providers    map[uuid.UUID]*domain.ExchangeRateProvider
	rates        []*domain.ExchangeRate
	idempotency  map[idempotencyKey]*domain.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]*domain.User),
		wallets:      make(map[uuid.UUID]*domain.Wallet),
		transactions: make(map[uuid.UUID]*domain.Transaction),
		providers:    make(map[uuid.UUID]*domain.ExchangeRateProvider),
		idempotency:  make(map[idempotencyKey]*domain.IdempotencyRecord),
	}
}

// Each view exposes one repository's method set over the shared maps.

func (s *Store) Users() *UserRepository               { return &UserRepository{s: s} }
func (s *Store) Wallets() *WalletRepository           { return &WalletRepository{s: s} }
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s: s} }
func (s *Store) Rates() *RateRepository               { return &RateRepository{s: s} }
func (s *Store) Idempotency() *IdempotencyRepository  { return &IdempotencyRepository{s: s} }
