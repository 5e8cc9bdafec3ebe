package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("Create: %w", domain.ErrEmailTaken)
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("GetByEmail: %w", domain.ErrNotFound)
}

type IdempotencyRepository struct {
	s *Store
}

// Get returns nil, nil when no unexpired record exists.
func (r *IdempotencyRepository) Get(_ context.Context, key string, userID uuid.UUID) (*domain.IdempotencyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.idempotency[idempotencyKey{key: key, userID: userID}]
	if !ok || !rec.ExpiresAt.After(time.Now().UTC()) {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *IdempotencyRepository) Set(_ context.Context, rec *domain.IdempotencyRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := idempotencyKey{key: rec.Key, userID: rec.UserID}
	if existing, ok := r.s.idempotency[k]; ok && existing.ExpiresAt.After(time.Now().UTC()) {
		return nil
	}
	cp := *rec
	r.s.idempotency[k] = &cp
	return nil
}

func (r *IdempotencyRepository) CleanExpired(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	var n int64
	for k, rec := range r.s.idempotency {
		if rec.ExpiresAt.Before(now) {
			delete(r.s.idempotency, k)
			n++
		}
	}
	return n, nil
}
