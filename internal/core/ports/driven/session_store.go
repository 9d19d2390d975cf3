package driven

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// SessionStore handles session persistence (Redis or PostgreSQL)
type SessionStore interface {
	// Save stores a session with TTL based on ExpiresAt
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.Session, error)

	// GetByToken retrieves a session by token value
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Delete deletes a session
	Delete(ctx context.Context, id string) error

	// DeleteByToken deletes a session by token
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByAccount deletes all sessions for an account
	DeleteByAccount(ctx context.Context, accountID string) error
}

// SessionPurger removes expired sessions from stores without native expiry
type SessionPurger interface {
	// Purge deletes expired sessions and returns how many were removed
	Purge(ctx context.Context) (int64, error)
}
