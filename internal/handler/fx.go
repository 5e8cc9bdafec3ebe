package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/fx"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

type rateService interface {
	Latest(ctx context.Context, from, to domain.Currency, providerID *uuid.UUID) (domain.ResolvedRate, error)
	MultiProvider(ctx context.Context, from, to domain.Currency, limit int) ([]domain.ResolvedRate, error)
	Providers(ctx context.Context) ([]domain.ExchangeRateProvider, error)
}

type conversionService interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, providerID *uuid.UUID) (*fx.Conversion, error)
	BatchConvert(ctx context.Context, items []fx.BatchItem, target domain.Currency) (*fx.BatchConversion, error)
}

type FXHandler struct {
	rates rateService
	conv  conversionService
}

func NewFXHandler(rates rateService, conv conversionService) *FXHandler {
	return &FXHandler{rates: rates, conv: conv}
}

func validatePairParams(from, to string) []FieldError {
	var errs []FieldError
	if from == "" {
		errs = append(errs, FieldError{Field: "from", Message: "required"})
	} else if !domain.NormalizeCurrency(from).IsValid() {
		errs = append(errs, FieldError{Field: "from", Message: "invalid currency code"})
	}
	if to == "" {
		errs = append(errs, FieldError{Field: "to", Message: "required"})
	} else if !domain.NormalizeCurrency(to).IsValid() {
		errs = append(errs, FieldError{Field: "to", Message: "invalid currency code"})
	}
	return errs
}

func parseProviderID(s string) (*uuid.UUID, bool) {
	if s == "" {
		return nil, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func (h *FXHandler) Latest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	fields := validatePairParams(from, to)
	providerID, ok := parseProviderID(q.Get("provider_id"))
	if !ok {
		fields = append(fields, FieldError{Field: "provider_id", Message: "must be a UUID"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	rate, err := h.rates.Latest(r.Context(), domain.NormalizeCurrency(from), domain.NormalizeCurrency(to), providerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("latest rate lookup failed", "error", err, "from", from, "to", to)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toRateDTO(rate))
}

func (h *FXHandler) MultiProvider(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	fields := validatePairParams(from, to)
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: "limit", Message: "must be a non-negative integer"})
		}
		limit = n
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	rates, err := h.rates.MultiProvider(r.Context(), domain.NormalizeCurrency(from), domain.NormalizeCurrency(to), limit)
	if err != nil {
		logging.FromContext(r.Context()).Warn("multi-provider rate lookup failed", "error", err, "from", from, "to", to)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]rateDTO, len(rates))
	for i, rate := range rates {
		dtos[i] = toRateDTO(rate)
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *FXHandler) Providers(w http.ResponseWriter, r *http.Request) {
	providers, err := h.rates.Providers(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]providerDTO, len(providers))
	for i, p := range providers {
		dtos[i] = providerDTO{
			ID:               p.ID,
			Name:             p.Name,
			IsActive:         p.IsActive,
			Priority:         p.Priority,
			ReliabilityScore: p.ReliabilityScore.String(),
		}
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type convertRequest struct {
	Amount     *decimal.Decimal `json:"amount"`
	From       string           `json:"from"`
	To         string           `json:"to"`
	ProviderID *uuid.UUID       `json:"provider_id"`
}

func (r convertRequest) Validate() []FieldError {
	errs := validatePairParams(r.From, r.To)
	if r.Amount == nil {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	return errs
}

func (h *FXHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	conv, err := h.conv.Convert(r.Context(), *req.Amount, domain.NormalizeCurrency(req.From), domain.NormalizeCurrency(req.To), req.ProviderID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("conversion failed", "error", err, "from", req.From, "to", req.To)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toConversionDTO(conv))
}

type batchItemRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`
}

type batchConvertRequest struct {
	Items  []batchItemRequest `json:"items"`
	Target string             `json:"target"`
}

func (r batchConvertRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Target == "" {
		errs = append(errs, FieldError{Field: "target", Message: "required"})
	} else if !domain.NormalizeCurrency(r.Target).IsValid() {
		errs = append(errs, FieldError{Field: "target", Message: "invalid currency code"})
	}
	if len(r.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "at least one item required"})
	}
	for i, item := range r.Items {
		prefix := "items[" + strconv.Itoa(i) + "]"
		if item.Amount == nil || !item.Amount.IsPositive() {
			errs = append(errs, FieldError{Field: prefix + ".amount", Message: "must be greater than zero"})
		}
		if !domain.NormalizeCurrency(item.Currency).IsValid() {
			errs = append(errs, FieldError{Field: prefix + ".currency", Message: "invalid currency code"})
		}
	}
	return errs
}

type batchConversionDTO struct {
	Target      string          `json:"target"`
	TotalAmount string          `json:"total_amount"`
	Rounded     string          `json:"rounded"`
	Formatted   string          `json:"formatted"`
	Items       []conversionDTO `json:"items"`
}

func (h *FXHandler) BatchConvert(w http.ResponseWriter, r *http.Request) {
	var req batchConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	items := make([]fx.BatchItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = fx.BatchItem{Amount: *item.Amount, Currency: domain.NormalizeCurrency(item.Currency)}
	}
	target := domain.NormalizeCurrency(req.Target)

	batch, err := h.conv.BatchConvert(r.Context(), items, target)
	if err != nil {
		logging.FromContext(r.Context()).Warn("batch conversion failed", "error", err, "target", target)
		RespondDomainError(w, err)
		return
	}

	dto := batchConversionDTO{
		Target:      string(batch.Target),
		TotalAmount: batch.TotalAmount.String(),
		Rounded:     money(batch.TotalAmount),
		Formatted:   domain.FormatAmount(batch.TotalAmount, batch.Target),
		Items:       make([]conversionDTO, len(batch.Items)),
	}
	for i := range batch.Items {
		dto.Items[i] = toConversionDTO(&batch.Items[i])
	}
	RespondSuccess(w, http.StatusOK, dto)
}
