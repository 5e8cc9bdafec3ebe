package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/service/ledger"
)

type transactionService interface {
	CreateTransaction(ctx context.Context, userID uuid.UUID, req ledger.CreateTransactionRequest) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, txID uuid.UUID, req ledger.UpdateTransactionRequest) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID uuid.UUID) error
}

type TransactionHandler struct {
	transactions transactionService
}

func NewTransactionHandler(transactions transactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type createTransactionRequest struct {
	Type               string           `json:"type"`
	Amount             *decimal.Decimal `json:"amount"`
	Currency           string           `json:"currency"`
	ExchangeRate       *decimal.Decimal `json:"exchange_rate"`
	ExchangeRateSource string           `json:"exchange_rate_source"`
	Category           *string          `json:"category"`
	Description        *string          `json:"description"`
	Date               *string          `json:"date"`
}

func (r createTransactionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "required"})
	} else if !domain.TransactionType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be income or expense"})
	}
	if r.Amount == nil {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if r.Currency != "" && !domain.NormalizeCurrency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "invalid currency code"})
	}
	if r.ExchangeRate != nil && !r.ExchangeRate.IsPositive() {
		errs = append(errs, FieldError{Field: "exchange_rate", Message: "must be greater than zero"})
	}
	if r.Date != nil {
		if _, err := parseDate(*r.Date); err != nil {
			errs = append(errs, FieldError{Field: "date", Message: "must be RFC 3339 or YYYY-MM-DD"})
		}
	}
	return errs
}

type updateTransactionRequest struct {
	Type               *string          `json:"type"`
	Amount             *decimal.Decimal `json:"amount"`
	Currency           *string          `json:"currency"`
	ExchangeRate       *decimal.Decimal `json:"exchange_rate"`
	ExchangeRateSource *string          `json:"exchange_rate_source"`
	Category           *string          `json:"category"`
	Description        *string          `json:"description"`
	Date               *string          `json:"date"`
}

func (r updateTransactionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Type != nil && !domain.TransactionType(*r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be income or expense"})
	}
	if r.Amount != nil && !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if r.Currency != nil && !domain.NormalizeCurrency(*r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "invalid currency code"})
	}
	if r.ExchangeRate != nil && !r.ExchangeRate.IsPositive() {
		errs = append(errs, FieldError{Field: "exchange_rate", Message: "must be greater than zero"})
	}
	if r.Date != nil {
		if _, err := parseDate(*r.Date); err != nil {
			errs = append(errs, FieldError{Field: "date", Message: "must be RFC 3339 or YYYY-MM-DD"})
		}
	}
	return errs
}

func optionalDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, walletID, ok := walletTarget(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	tx, err := h.transactions.CreateTransaction(r.Context(), userID, ledger.CreateTransactionRequest{
		WalletID:           walletID,
		Type:               domain.TransactionType(req.Type),
		Amount:             *req.Amount,
		Currency:           domain.NormalizeCurrency(req.Currency),
		ExchangeRate:       req.ExchangeRate,
		ExchangeRateSource: req.ExchangeRateSource,
		Category:           req.Category,
		Description:        req.Description,
		Date:               optionalDate(req.Date),
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(tx))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	txID, appErr := pathID(r, ErrTransactionNotFound)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	patch := ledger.UpdateTransactionRequest{
		Amount:             req.Amount,
		ExchangeRate:       req.ExchangeRate,
		ExchangeRateSource: req.ExchangeRateSource,
		Category:           req.Category,
		Description:        req.Description,
		Date:               optionalDate(req.Date),
	}
	if req.Type != nil {
		t := domain.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Currency != nil {
		c := domain.NormalizeCurrency(*req.Currency)
		patch.Currency = &c
	}

	tx, err := h.transactions.UpdateTransaction(r.Context(), userID, txID, patch)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	txID, appErr := pathID(r, ErrTransactionNotFound)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.transactions.DeleteTransaction(r.Context(), userID, txID); err != nil {
		RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
