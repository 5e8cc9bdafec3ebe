package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Currency       Currency
	InitialBalance decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OwnedBy reports whether userID may read or mutate the wallet.
func (w *Wallet) OwnedBy(userID uuid.UUID) bool {
	return w.UserID == userID
}
