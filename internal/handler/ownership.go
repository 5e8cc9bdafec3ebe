package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/auth"
)

// callerID is the authenticated user. Ownership of the addressed resource is
// checked by the services, which answer ErrForbidden for another user's data.
func callerID(r *http.Request) (uuid.UUID, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return userID, nil
}

func pathID(r *http.Request, notFound *AppError) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
