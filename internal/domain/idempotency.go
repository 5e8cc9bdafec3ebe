package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord caches the response of a mutating request per user and key.
type IdempotencyRecord struct {
	Key          string
	UserID       uuid.UUID
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
