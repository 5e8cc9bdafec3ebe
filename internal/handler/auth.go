package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
	"github.com/josh-kwaku/wallet-ledger/internal/service"
)

type accountService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type tokenIssuer interface {
	Issue(u *domain.User) (string, time.Time, error)
}

type AuthHandler struct {
	users  accountService
	tokens tokenIssuer
}

func NewAuthHandler(users accountService, tokens tokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type registerRequest struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	Password          string `json:"password"`
	ReportingCurrency string `json:"reporting_currency"`
}

func (r registerRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	if r.ReportingCurrency != "" && !domain.NormalizeCurrency(r.ReportingCurrency).IsValid() {
		errs = append(errs, FieldError{Field: "reporting_currency", Message: "invalid currency code"})
	}
	return errs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userDTO   `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterRequest{
		Email:             req.Email,
		Name:              req.Name,
		Password:          req.Password,
		ReportingCurrency: domain.NormalizeCurrency(req.ReportingCurrency),
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	h.respondSession(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	h.respondSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respondSession(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		logging.FromContext(r.Context()).Error("token issue failed", "error", err, "user_id", user.ID)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, status, sessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserDTO(user),
	})
}
