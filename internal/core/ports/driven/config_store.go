package driven

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// OAuthConfigStore persists Entra ID app registrations.
// Client secrets are encrypted on write and decrypted on read; a secret
// that cannot be decrypted is returned as "".
type OAuthConfigStore interface {
	// Get retrieves a configuration by id. Returns nil, nil when missing.
	Get(ctx context.Context, id int64) (*domain.OAuthConfiguration, error)

	// GetByTenantContext retrieves the configuration keyed to a tenant
	// context. Returns nil, nil when missing.
	GetByTenantContext(ctx context.Context, tenantContextID int64) (*domain.OAuthConfiguration, error)

	// ListAdministrative returns one page of the administrative pool
	// (tenant_context_id = 0) ordered by id, plus the total count.
	ListAdministrative(ctx context.Context, offset, limit int) ([]*domain.OAuthConfiguration, int, error)

	// ListEnabledAdministrative returns every enabled administrative configuration.
	ListEnabledAdministrative(ctx context.Context) ([]*domain.OAuthConfiguration, error)

	// Save inserts (ID == 0) or updates a configuration. When ClientSecret
	// is empty the stored blob is left untouched.
	Save(ctx context.Context, cfg *domain.OAuthConfiguration) error

	// Delete removes a configuration
	Delete(ctx context.Context, id int64) error

	// CloneSecret copies the encrypted secret blob of one configuration to
	// another without decrypting it.
	CloneSecret(ctx context.Context, sourceID, targetID int64) error
}
