package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Resource belongs to another user"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrWalletNotFound      = &AppError{http.StatusNotFound, "WALLET_NOT_FOUND", "Wallet not found"}
	ErrTransactionNotFound = &AppError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"}
	ErrRateNotFound        = &AppError{http.StatusNotFound, "RATE_NOT_FOUND", "No exchange rate found for this currency pair"}
	ErrRateUnavailable     = &AppError{http.StatusUnprocessableEntity, "RATE_UNAVAILABLE", "Exchange rate unavailable for conversion"}
	ErrRateSourceDown      = &AppError{http.StatusServiceUnavailable, "RATE_SOURCE_UNAVAILABLE", "Exchange rate source did not respond in time"}
	ErrWalletHasHistory    = &AppError{http.StatusConflict, "WALLET_HAS_TRANSACTIONS", "Wallet still owns transactions"}
	ErrEmailTaken          = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email is already registered"}
	ErrInvalidCurrency     = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidType         = &AppError{http.StatusBadRequest, "INVALID_TYPE", "Transaction type must be income or expense"}

	ErrVersionConflict       = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyKeyInvalid = &AppError{http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key header must be at most 255 characters"}
)
