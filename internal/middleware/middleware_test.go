package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/wallet-ledger/internal/auth"
	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/handler"
	"github.com/josh-kwaku/wallet-ledger/internal/repository/memory"
)

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAuth(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	user := &domain.User{ID: uuid.New(), Email: "a@example.com"}
	token, _, err := issuer.Issue(user)
	require.NoError(t, err)

	var seen uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Auth(issuer)(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"forged token", "Bearer " + token + "x", http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantCode == "" {
				assert.Equal(t, user.ID, seen)
			} else {
				assert.Equal(t, tc.wantCode, errorCode(t, rr))
				assert.Equal(t, uuid.Nil, seen)
			}
		})
	}
}

func TestIdempotency(t *testing.T) {
	userID := uuid.New()
	var calls atomic.Int32
	status := http.StatusCreated

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		handler.RespondSuccess(w, status, map[string]int32{"call": n})
	})
	h := Idempotency(memory.NewStore().Idempotency())(next)

	send := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", strings.NewReader(body))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		req = req.WithContext(auth.ContextWithClaims(context.Background(), &auth.Claims{UserID: userID}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	t.Run("no key passes through", func(t *testing.T) {
		before := calls.Load()
		send("", `{"name":"a"}`)
		send("", `{"name":"a"}`)
		assert.Equal(t, before+2, calls.Load())
	})

	t.Run("same key and body replays", func(t *testing.T) {
		first := send("key-1", `{"name":"a"}`)
		second := send("key-1", `{"name":"a"}`)

		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))
		assert.JSONEq(t, first.Body.String(), second.Body.String())
	})

	t.Run("same key different body conflicts", func(t *testing.T) {
		rr := send("key-1", `{"name":"b"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "IDEMPOTENCY_CONFLICT", errorCode(t, rr))
	})

	t.Run("oversized key rejected", func(t *testing.T) {
		rr := send(strings.Repeat("k", maxIdempotencyKey+1), `{}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("server errors are not stored", func(t *testing.T) {
		status = http.StatusInternalServerError
		send("key-2", `{}`)
		status = http.StatusCreated

		rr := send("key-2", `{}`)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, rr.Header().Get("X-Idempotent-Replayed"))
	})
}

func TestTracing(t *testing.T) {
	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id\nwith newline")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rr))

	abort := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
