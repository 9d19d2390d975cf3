package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// LoginService is the entry point that starts a sign-in and ends a session.
type LoginService interface {
	// IsConfigured reports whether the resolved configuration can start a
	// sign-in on surface. Login pages check this before offering the button.
	IsConfigured(ctx context.Context, surface domain.Surface, tenantContextID, configID int64) bool

	// AuthorizeURL resolves the configuration, mints a signed state and
	// returns the provider authorize URL.
	// Returns domain.ErrNotConfigured when nothing usable resolves.
	AuthorizeURL(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error)

	// AdministrativeLogins returns one option per enabled, fully configured
	// administrative configuration.
	AdministrativeLogins(ctx context.Context, returnURL string) ([]*LoginOption, error)

	// Logout deletes the session and returns where the browser goes next.
	Logout(ctx context.Context, req LogoutRequest) (*LogoutResponse, error)
}

// AuthorizeRequest starts a sign-in.
type AuthorizeRequest struct {
	Surface         domain.Surface `json:"surface"`
	ReturnURL       string         `json:"return_url"`
	TenantContextID int64          `json:"tenant_context_id"`
	ConfigID        int64          `json:"config_id"`
}

// AuthorizeResponse carries the URL to send the browser to.
type AuthorizeResponse struct {
	AuthorizationURL string    `json:"authorization_url"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// LoginOption is one administrative sign-in button.
type LoginOption struct {
	ConfigID         int64  `json:"config_id"`
	Label            string `json:"label"`
	ShowLabel        bool   `json:"show_label"`
	AuthorizationURL string `json:"authorization_url"`
}

// LogoutRequest ends a session.
type LogoutRequest struct {
	Token              string `json:"-"`
	TenantContextID    int64  `json:"tenant_context_id"`
	PostLogoutRedirect string `json:"post_logout_redirect"`
	// ProviderSignOut also signs the browser out of Entra ID.
	ProviderSignOut bool `json:"provider_sign_out"`
}

// LogoutResponse tells the client where to navigate after logout.
type LogoutResponse struct {
	RedirectURL string `json:"redirect_url"`
}
