package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

const minPasswordLength = 8

type userRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type UserService struct {
	users           userRepo
	defaultCurrency domain.Currency
	bcryptCost      int
}

func NewUserService(users userRepo, defaultCurrency domain.Currency) *UserService {
	if defaultCurrency == "" {
		defaultCurrency = domain.FallbackCurrency
	}
	return &UserService{users: users, defaultCurrency: defaultCurrency, bcryptCost: bcrypt.DefaultCost}
}

type RegisterRequest struct {
	Email             string
	Name              string
	Password          string
	ReportingCurrency domain.Currency
}

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	log := logging.FromContext(ctx)

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("Register: email: %w", domain.ErrInvalidRequest)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("Register: password shorter than %d: %w", minPasswordLength, domain.ErrInvalidRequest)
	}
	currency := req.ReportingCurrency
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("Register: %w", domain.ErrInvalidCurrency)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	user := &domain.User{
		ID:                uuid.New(),
		Email:             email,
		Name:              strings.TrimSpace(req.Name),
		PasswordHash:      string(hash),
		ReportingCurrency: currency,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate returns the user when password matches. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Authenticate: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrInvalidCredentials)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return u, nil
}
