package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps err onto the AppError table. Order matters: a rate
// lookup timeout matches both ErrUnavailable and ErrRateNotFound, and a
// conversion failure matches both ErrRateUnavailable and ErrRateNotFound.
func RespondDomainError(w http.ResponseWriter, err error) {
	RespondAppError(w, domainAppError(err), nil)
}

func domainAppError(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrUnavailable):
		return ErrRateSourceDown
	case errors.Is(err, domain.ErrRateUnavailable):
		return ErrRateUnavailable
	case errors.Is(err, domain.ErrRateNotFound):
		return ErrRateNotFound
	case errors.Is(err, domain.ErrWalletNotFound):
		return ErrWalletNotFound
	case errors.Is(err, domain.ErrTransactionNotFound):
		return ErrTransactionNotFound
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	case errors.Is(err, domain.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, domain.ErrConflict):
		return ErrWalletHasHistory
	case errors.Is(err, domain.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, domain.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidCurrency):
		return ErrInvalidCurrency
	case errors.Is(err, domain.ErrInvalidType):
		return ErrInvalidType
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrInvalidRequest
	default:
		slog.Error("unhandled domain error", "error", err)
		return ErrInternalError
	}
}
