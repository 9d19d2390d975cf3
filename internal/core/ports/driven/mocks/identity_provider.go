package mocks

import (
	"context"
	"net/url"
	"sync"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

var _ driven.IdentityProvider = (*MockIdentityProvider)(nil)

// MockIdentityProvider returns a fixed identity (or error) from ExchangeCode
// and records every exchanged code.
type MockIdentityProvider struct {
	mu        sync.Mutex
	Identity  *domain.ExternalIdentity
	Err       error
	exchanges []string
}

// NewMockIdentityProvider creates a provider that returns identity
func NewMockIdentityProvider(identity *domain.ExternalIdentity) *MockIdentityProvider {
	return &MockIdentityProvider{Identity: identity}
}

func (m *MockIdentityProvider) AuthorizeURL(cfg *domain.OAuthConfiguration, surface domain.Surface, state string) string {
	q := url.Values{}
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURI(surface))
	q.Set("state", state)
	return "https://idp.test/" + cfg.TenantID + "/authorize?" + q.Encode()
}

func (m *MockIdentityProvider) ExchangeCode(ctx context.Context, cfg *domain.OAuthConfiguration, code, redirectURI string) (*domain.ExternalIdentity, error) {
	m.mu.Lock()
	m.exchanges = append(m.exchanges, code)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	id := *m.Identity
	return &id, nil
}

func (m *MockIdentityProvider) LogoutURL(cfg *domain.OAuthConfiguration, postLogoutRedirect string) string {
	return "https://idp.test/" + cfg.TenantID + "/logout?post_logout_redirect_uri=" + url.QueryEscape(postLogoutRedirect)
}

// Exchanges returns the codes passed to ExchangeCode
func (m *MockIdentityProvider) Exchanges() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.exchanges...)
}
