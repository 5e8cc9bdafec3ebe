package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	// ReportingCurrency is the default target for portfolio balances.
	ReportingCurrency Currency
	CreatedAt         time.Time
}
