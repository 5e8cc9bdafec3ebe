package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/fx"
)

func TestDomainAppError(t *testing.T) {
	timeout := fmt.Errorf("Latest: %w: %w", domain.ErrRateNotFound, domain.ErrUnavailable)

	tests := []struct {
		name string
		err  error
		want *AppError
	}{
		{"rate source timeout", timeout, ErrRateSourceDown},
		{"conversion timeout", fmt.Errorf("Convert: %w: %w", domain.ErrRateUnavailable, timeout), ErrRateSourceDown},
		{"conversion without rate", fmt.Errorf("Convert: %w: %w", domain.ErrRateUnavailable, domain.ErrRateNotFound), ErrRateUnavailable},
		{"plain rate miss", fmt.Errorf("Latest: %w", domain.ErrRateNotFound), ErrRateNotFound},
		{"wallet missing", fmt.Errorf("GetByID: %w", domain.ErrWalletNotFound), ErrWalletNotFound},
		{"transaction missing", domain.ErrTransactionNotFound, ErrTransactionNotFound},
		{"generic missing", domain.ErrNotFound, ErrResourceNotFound},
		{"not owner", domain.ErrForbidden, ErrForbidden},
		{"wallet has history", domain.ErrConflict, ErrWalletHasHistory},
		{"stale version", domain.ErrVersionConflict, ErrVersionConflict},
		{"email taken", domain.ErrEmailTaken, ErrEmailTaken},
		{"bad credentials", domain.ErrInvalidCredentials, ErrInvalidCredentials},
		{"bad amount", domain.ErrInvalidAmount, ErrInvalidAmount},
		{"bad currency", domain.ErrInvalidCurrency, ErrInvalidCurrency},
		{"bad type", domain.ErrInvalidType, ErrInvalidType},
		{"bad request", domain.ErrInvalidRequest, ErrInvalidRequest},
		{"unknown", errors.New("connection reset"), ErrInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domainAppError(tc.err))
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2026-10-01T12:30:00+08:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 4, 30, 0, 0, time.UTC), got)

	_, err = parseDate("01/10/2026")
	assert.Error(t, err)
}

func TestCreateTransactionRequest_Validate(t *testing.T) {
	amount := decimal.NewFromInt(10)
	zero := decimal.Zero
	badDate := "yesterday"

	tests := []struct {
		name       string
		req        createTransactionRequest
		wantFields []string
	}{
		{"valid", createTransactionRequest{Type: "expense", Amount: &amount}, nil},
		{"missing everything", createTransactionRequest{}, []string{"type", "amount"}},
		{"bad type", createTransactionRequest{Type: "transfer", Amount: &amount}, []string{"type"}},
		{"zero amount", createTransactionRequest{Type: "income", Amount: &zero}, []string{"amount"}},
		{"zero rate", createTransactionRequest{Type: "income", Amount: &amount, ExchangeRate: &zero}, []string{"exchange_rate"}},
		{"bad currency", createTransactionRequest{Type: "income", Amount: &amount, Currency: "US D"}, []string{"currency"}},
		{"bad date", createTransactionRequest{Type: "income", Amount: &amount, Date: &badDate}, []string{"date"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, f := range tc.req.Validate() {
				got = append(got, f.Field)
			}
			assert.Equal(t, tc.wantFields, got)
		})
	}
}

type stubRates struct {
	latest domain.ResolvedRate
	err    error
}

func (s *stubRates) Latest(context.Context, domain.Currency, domain.Currency, *uuid.UUID) (domain.ResolvedRate, error) {
	return s.latest, s.err
}

func (s *stubRates) MultiProvider(context.Context, domain.Currency, domain.Currency, int) ([]domain.ResolvedRate, error) {
	return nil, s.err
}

func (s *stubRates) Providers(context.Context) ([]domain.ExchangeRateProvider, error) {
	return nil, s.err
}

func TestFXHandler_Latest(t *testing.T) {
	timeout := fmt.Errorf("Latest: %w: %w", domain.ErrRateNotFound, domain.ErrUnavailable)

	tests := []struct {
		name       string
		query      string
		rates      *stubRates
		wantStatus int
		wantCode   string
	}{
		{
			name:       "identity pair",
			query:      "from=TWD&to=twd",
			rates:      &stubRates{latest: domain.Identity{Currency: "TWD"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing params",
			query:      "",
			rates:      &stubRates{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "bad provider id",
			query:      "from=USD&to=TWD&provider_id=nope",
			rates:      &stubRates{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "no rate",
			query:      "from=USD&to=TWD",
			rates:      &stubRates{err: domain.ErrRateNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   "RATE_NOT_FOUND",
		},
		{
			name:       "source timeout",
			query:      "from=USD&to=TWD",
			rates:      &stubRates{err: timeout},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "RATE_SOURCE_UNAVAILABLE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewFXHandler(tc.rates, fx.NewConverter(tc.rates))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/rates/latest?"+tc.query, nil)
			rr := httptest.NewRecorder()
			h.Latest(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tc.wantCode == "" {
				assert.True(t, resp.Success)
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestFXHandler_Convert(t *testing.T) {
	obs := domain.Observed{Observation: domain.ExchangeRate{
		FromCurrency: "USD",
		ToCurrency:   "TWD",
		Provider:     domain.ExchangeRateProvider{ID: uuid.New(), Name: "central-bank", Priority: 1},
		Rate:         decimal.RequireFromString("32.5"),
		RateType:     domain.RateTypeSpot,
		Timestamp:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}}
	rates := &stubRates{latest: obs}
	h := NewFXHandler(rates, fx.NewConverter(rates))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates/convert",
		strings.NewReader(`{"amount":"12.34","from":"usd","to":"TWD"}`))
	rr := httptest.NewRecorder()
	h.Convert(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Data conversionDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "401.05", resp.Data.ConvertedAmount)
	assert.Equal(t, "401.05", resp.Data.Rounded)
	assert.Equal(t, "central-bank", resp.Data.Rate.Source)
	assert.Equal(t, "spot", resp.Data.Rate.RateType)

	bad := httptest.NewRecorder()
	h.Convert(bad, httptest.NewRequest(http.MethodPost, "/api/v1/rates/convert", strings.NewReader(`{"amount":"-1","from":"USD","to":"TWD"}`)))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}
