package driven

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// IdentityProvider talks to the external OAuth2 identity provider.
type IdentityProvider interface {
	// AuthorizeURL builds the provider authorize URL for cfg and surface.
	AuthorizeURL(cfg *domain.OAuthConfiguration, surface domain.Surface, state string) string

	// ExchangeCode redeems an authorization code and fetches the profile.
	// Every failure is a *domain.ExchangeError.
	ExchangeCode(ctx context.Context, cfg *domain.OAuthConfiguration, code, redirectURI string) (*domain.ExternalIdentity, error)

	// LogoutURL builds the provider sign-out URL.
	LogoutURL(cfg *domain.OAuthConfiguration, postLogoutRedirect string) string
}
