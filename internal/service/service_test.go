package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/repository/memory"
)

func newUserService(store *memory.Store) *UserService {
	svc := NewUserService(store.Users(), "TWD")
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	store := memory.NewStore()
	svc := newUserService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Email: " ana@example.com ", Name: "Ana", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, domain.Currency("TWD"), u.ReportingCurrency)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "ANA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Register(ctx, RegisterRequest{Email: "Ana@Example.com", Name: "Again", Password: "another-one"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc := newUserService(memory.NewStore())

	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{name: "bad email", req: RegisterRequest{Email: "not-an-email", Password: "long-enough"}, wantErr: domain.ErrInvalidRequest},
		{name: "short password", req: RegisterRequest{Email: "a@b.co", Password: "short"}, wantErr: domain.ErrInvalidRequest},
		{name: "bad currency", req: RegisterRequest{Email: "a@b.co", Password: "long-enough", ReportingCurrency: "US D"}, wantErr: domain.ErrInvalidCurrency},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestWalletService(t *testing.T) {
	store := memory.NewStore()
	users := newUserService(store)
	svc := NewWalletService(store.Wallets(), store.Users(), "TWD")
	ctx := context.Background()

	owner, err := users.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "password123", ReportingCurrency: "JPY"})
	require.NoError(t, err)

	defaulted, err := svc.CreateWallet(ctx, owner.ID, CreateWalletRequest{Name: "  Cash  ", InitialBalance: decimal.RequireFromString("10.005")})
	require.NoError(t, err)
	assert.Equal(t, "Cash", defaulted.Name)
	assert.Equal(t, domain.Currency("JPY"), defaulted.Currency, "falls back to the owner's reporting currency")
	assert.Equal(t, "10.01", defaulted.InitialBalance.StringFixed(2))

	usd, err := svc.CreateWallet(ctx, owner.ID, CreateWalletRequest{Name: "Travel", Currency: "USD"})
	require.NoError(t, err)

	list, err := svc.ListWallets(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := svc.GetWallet(ctx, owner.ID, usd.ID)
	require.NoError(t, err)
	assert.Equal(t, "Travel", got.Name)

	_, err = svc.GetWallet(ctx, uuid.New(), usd.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateWallet(ctx, owner.ID, CreateWalletRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.CreateWallet(ctx, uuid.New(), CreateWalletRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	empty, err := svc.ListWallets(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
