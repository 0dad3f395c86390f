package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BaseModel is embedded by every DB-resident record that carries a
// surrogate UUID primary key plus creation/update timestamps.
type BaseModel struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUUID returns a fresh random UUID, used for DB primary keys.
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ErrInvalidUserID is returned by ValidateUserID for empty or malformed ids.
var ErrInvalidUserID = errors.New("store: invalid user id")

// ValidateUserID rejects empty user/creator identifiers before they are
// written to a durable store; every grant, request, and server row must be
// attributable to someone.
func ValidateUserID(id string) error {
	if id == "" {
		return ErrInvalidUserID
	}
	return nil
}
