package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/service"
	"github.com/josh-kwaku/wallet-ledger/internal/service/ledger"
)

type walletService interface {
	CreateWallet(ctx context.Context, userID uuid.UUID, req service.CreateWalletRequest) (*domain.Wallet, error)
	ListWallets(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
}

type walletLedger interface {
	GetWalletWithTransactions(ctx context.Context, userID, walletID uuid.UUID) (*ledger.WalletLedger, error)
	UpdateWallet(ctx context.Context, userID, walletID uuid.UUID, req ledger.UpdateWalletRequest) (*domain.Wallet, error)
	DeleteWallet(ctx context.Context, userID, walletID uuid.UUID) error
	GetBalance(ctx context.Context, userID, walletID uuid.UUID) (*ledger.WalletBalance, error)
	ListTransactions(ctx context.Context, userID, walletID uuid.UUID, order domain.SortOrder) ([]domain.Transaction, error)
	GetTransactionsByCategory(ctx context.Context, userID, walletID uuid.UUID, dates domain.DateRange) ([]domain.CategoryTotal, error)
}

type WalletHandler struct {
	wallets walletService
	ledger  walletLedger
}

func NewWalletHandler(wallets walletService, entries walletLedger) *WalletHandler {
	return &WalletHandler{wallets: wallets, ledger: entries}
}

type createWalletRequest struct {
	Name           string           `json:"name"`
	Currency       string           `json:"currency"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
}

func (r createWalletRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Currency != "" && !domain.NormalizeCurrency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "invalid currency code"})
	}
	return errs
}

type updateWalletRequest struct {
	Name           *string          `json:"name"`
	Currency       *string          `json:"currency"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
}

func (r updateWalletRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "must not be empty"})
	}
	if r.Currency != nil && !domain.NormalizeCurrency(*r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "invalid currency code"})
	}
	if r.Name == nil && r.Currency == nil && r.InitialBalance == nil {
		errs = append(errs, FieldError{Field: "body", Message: "at least one field required"})
	}
	return errs
}

type walletDetailDTO struct {
	walletDTO
	Balance      string           `json:"balance"`
	Formatted    string           `json:"formatted_balance"`
	Transactions []transactionDTO `json:"transactions"`
}

func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	initial := decimal.Zero
	if req.InitialBalance != nil {
		initial = *req.InitialBalance
	}
	wallet, err := h.wallets.CreateWallet(r.Context(), userID, service.CreateWalletRequest{
		Name:           req.Name,
		Currency:       domain.NormalizeCurrency(req.Currency),
		InitialBalance: initial,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toWalletDTO(wallet))
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	wallets, err := h.wallets.ListWallets(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]walletDTO, len(wallets))
	for i := range wallets {
		dtos[i] = toWalletDTO(&wallets[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, walletID, ok := walletTarget(w, r)
	if !ok {
		return
	}

	wl, err := h.ledger.GetWalletWithTransactions(r.Context(), userID, walletID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, walletDetailDTO{
		walletDTO:    toWalletDTO(&wl.Wallet),
		Balance:      money(wl.Balance),
		Formatted:    domain.FormatAmount(wl.Balance, wl.Wallet.Currency),
		Transactions: toTransactionDTOs(wl.Transactions),
	})
}

func (h *WalletHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, walletID, ok := walletTarget(w, r)
	if !ok {
		return
	}

	var req updateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	patch := ledger.UpdateWalletRequest{InitialBalance: req.InitialBalance}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	if req.Currency != nil {
		c := domain.NormalizeCurrency(*req.Currency)
		patch.Currency = &c
	}

	wallet, err := h.ledger.UpdateWallet(r.Context(), userID, walletID, patch)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toWalletDTO(wallet))
}

func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, walletID, ok := walletTarget(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeleteWallet(r.Context(), userID, walletID); err != nil {
		RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, walletID, ok := walletTarget(w, r)
	if !ok {
		return
	}

	bal, err := h.ledger.GetBalance(r.Context(), userID, walletID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBalanceDTO(bal))
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, walletID, ok := walletTarget(w, r)
	if !ok {
		return
	}

	order := domain.SortOrder(r.URL.Query().Get("order"))
	switch order {
	case "":
		order = domain.SortAsc
	case domain.SortAsc, domain.SortDesc:
	default:
		RespondValidationError(w, []FieldError{{Field: "order", Message: "must be asc or desc"}})
		return
	}

	txs, err := h.ledger.ListTransactions(r.Context(), userID, walletID, order)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTOs(txs))
}

func (h *WalletHandler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, walletID, ok := walletTarget(w, r)
	if !ok {
		return
	}

	var (
		dates  domain.DateRange
		fields []FieldError
	)
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			fields = append(fields, FieldError{Field: "from", Message: "must be RFC 3339 or YYYY-MM-DD"})
		} else {
			dates.From = &t
		}
	}
	if s := q.Get("to"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			fields = append(fields, FieldError{Field: "to", Message: "must be RFC 3339 or YYYY-MM-DD"})
		} else {
			dates.To = &t
		}
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	totals, err := h.ledger.GetTransactionsByCategory(r.Context(), userID, walletID, dates)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]categoryDTO, len(totals))
	for i, t := range totals {
		dtos[i] = categoryDTO{Category: t.Category, TotalAmount: t.TotalAmount.String(), Count: t.Count}
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

// walletTarget resolves the caller and the {id} wallet, writing the error
// response itself when either is missing.
func walletTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return uuid.Nil, uuid.Nil, false
	}
	walletID, appErr := pathID(r, ErrWalletNotFound)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, walletID, true
}
