package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRateNotFound        = errors.New("exchange rate not found")
	ErrConflict            = errors.New("wallet still owns transactions")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidType         = errors.New("transaction type must be income or expense")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrForbidden           = errors.New("resource belongs to another user")
	ErrRateUnavailable     = errors.New("exchange rate unavailable")
	ErrUnavailable         = errors.New("rate source unavailable")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)
