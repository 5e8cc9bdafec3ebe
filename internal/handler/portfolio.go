package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/service/ledger"
)

type portfolioService interface {
	PortfolioBalance(ctx context.Context, userID uuid.UUID, reporting domain.Currency) (*ledger.Portfolio, error)
}

type userLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type PortfolioHandler struct {
	portfolio portfolioService
	users     userLookup
}

func NewPortfolioHandler(portfolio portfolioService, users userLookup) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, users: users}
}

type portfolioEntryDTO struct {
	balanceDTO
	Converted  string  `json:"converted"`
	Rate       *string `json:"rate"`
	RateSource *string `json:"rate_source"`
}

type portfolioDTO struct {
	Currency  string              `json:"currency"`
	Total     string              `json:"total"`
	Formatted string              `json:"formatted"`
	Wallets   []portfolioEntryDTO `json:"wallets"`
}

// Balance totals every wallet of the caller in ?currency, or in the caller's
// reporting currency when the parameter is absent.
func (h *PortfolioHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	reporting := domain.NormalizeCurrency(r.URL.Query().Get("currency"))
	if reporting == "" {
		user, err := h.users.GetUser(r.Context(), userID)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		reporting = user.ReportingCurrency
	} else if !reporting.IsValid() {
		RespondValidationError(w, []FieldError{{Field: "currency", Message: "invalid currency code"}})
		return
	}

	p, err := h.portfolio.PortfolioBalance(r.Context(), userID, reporting)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dto := portfolioDTO{
		Currency:  string(p.Currency),
		Total:     money(p.Total),
		Formatted: domain.FormatAmount(p.Total, p.Currency),
		Wallets:   make([]portfolioEntryDTO, len(p.Wallets)),
	}
	for i := range p.Wallets {
		e := &p.Wallets[i]
		entry := portfolioEntryDTO{
			balanceDTO: toBalanceDTO(&e.WalletBalance),
			Converted:  money(e.Converted),
		}
		if e.Rate != nil {
			rate := e.Rate.Value().String()
			source := domain.RateSourceName(e.Rate)
			entry.Rate, entry.RateSource = &rate, &source
		}
		dto.Wallets[i] = entry
	}
	RespondSuccess(w, http.StatusOK, dto)
}
