package authz

import (
	"context"
	"errors"
	"time"

	"github.com/agora-social/agora/internal/platform/httpx"
)

// SessionStore is the persistence contract for session lookups.
type SessionStore interface {
	FindSession(ctx context.Context, token string) (*Session, error)
}

// Validator is the single trust boundary between anonymous requests and
// authenticated operations. It is read-only: no sliding expiry, no token
// rotation, and an invalid token is a terminal rejection for the request.
type Validator struct {
	store SessionStore
	now   func() time.Time
}

// NewValidator constructs a Validator.
func NewValidator(store SessionStore) *Validator {
	return &Validator{store: store, now: time.Now}
}

// Validate resolves a token to its owning user. A session is usable iff it
// is active and expires_at is in the future. No-row, inactive and expired
// all map to the same rejection.
func (v *Validator) Validate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrMissingToken
	}
	sess, err := v.store.FindSession(ctx, token)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return 0, ErrInvalidSession
		}
		return 0, err
	}
	if !sess.IsActive || !sess.ExpiresAt.After(v.now()) {
		return 0, ErrInvalidSession
	}
	return sess.UserID, nil
}
