package driven

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// AccountStore handles local account persistence (PostgreSQL).
// Primary and administrative accounts are separate realms keyed by surface.
type AccountStore interface {
	// Save creates or updates an account
	Save(ctx context.Context, account *domain.Account) error

	// Get retrieves an account by ID. Returns nil, nil when missing.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// GetByEmail retrieves an account by exact email within a surface,
	// including disabled accounts. Returns nil, nil when missing.
	GetByEmail(ctx context.Context, surface domain.Surface, email string) (*domain.Account, error)

	// List retrieves all accounts of a surface
	List(ctx context.Context, surface domain.Surface) ([]*domain.Account, error)

	// Delete deletes an account
	Delete(ctx context.Context, id string) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, id string) error
}
