package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
)

// Ensure loginService implements LoginService
var _ driving.LoginService = (*loginService)(nil)

// LoginServiceConfig holds configuration for the login service.
type LoginServiceConfig struct {
	Resolver *ConfigResolver
	Configs  driven.OAuthConfigStore
	States   driven.StateCodec
	Provider driven.IdentityProvider
	Sessions driven.SessionStore

	// AllowedHosts lists hosts (or URLs) that absolute return and
	// post-logout URLs may point at, besides the redirect URI hosts.
	AllowedHosts []string

	Logger *slog.Logger
}

// loginService implements the LoginService interface.
type loginService struct {
	resolver *ConfigResolver
	configs  driven.OAuthConfigStore
	states   driven.StateCodec
	provider driven.IdentityProvider
	sessions driven.SessionStore
	hosts    returnHosts
	logger   *slog.Logger
}

// NewLoginService creates a new login service.
func NewLoginService(cfg LoginServiceConfig) driving.LoginService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &loginService{
		resolver: cfg.Resolver,
		configs:  cfg.Configs,
		states:   cfg.States,
		provider: cfg.Provider,
		sessions: cfg.Sessions,
		hosts:    newReturnHosts(cfg.AllowedHosts),
		logger:   logger,
	}
}

// IsConfigured reports whether an enabled, complete configuration resolves.
func (s *loginService) IsConfigured(ctx context.Context, surface domain.Surface, tenantContextID, configID int64) bool {
	cfg := s.resolver.Resolve(ctx, surface, tenantContextID, configID)
	return cfg.IsConfigured(surface) && cfg.Enabled
}

// AuthorizeURL mints a signed state and returns the provider authorize URL.
func (s *loginService) AuthorizeURL(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
	cfg := s.resolver.Resolve(ctx, req.Surface, req.TenantContextID, req.ConfigID)
	if !cfg.IsConfigured(req.Surface) || !cfg.Enabled {
		return nil, domain.ErrNotConfigured
	}

	returnURL := s.hosts.safeReturnURL(req.ReturnURL, cfg)
	if req.ReturnURL != "" && returnURL != req.ReturnURL {
		s.logger.Debug("foreign return url replaced", "surface", req.Surface)
	}

	// Pin the resolved administrative record so the callback exchanges
	// with the same app registration.
	configID := req.ConfigID
	if req.Surface == domain.SurfaceAdministrative && cfg.ID > 0 {
		configID = cfg.ID
	}

	token, state, err := s.states.Create(domain.SignedState{
		Surface:         req.Surface,
		ReturnURL:       returnURL,
		TenantContextID: req.TenantContextID,
		ConfigID:        configID,
	})
	if err != nil {
		return nil, fmt.Errorf("create state: %w", err)
	}

	return &driving.AuthorizeResponse{
		AuthorizationURL: s.provider.AuthorizeURL(cfg, req.Surface, token),
		ExpiresAt:        state.ExpiresAt,
	}, nil
}

// AdministrativeLogins returns one sign-in option per usable administrative configuration.
func (s *loginService) AdministrativeLogins(ctx context.Context, returnURL string) ([]*driving.LoginOption, error) {
	configs, err := s.configs.ListEnabledAdministrative(ctx)
	if err != nil {
		return nil, fmt.Errorf("list administrative configurations: %w", err)
	}

	options := make([]*driving.LoginOption, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.IsConfigured(domain.SurfaceAdministrative) {
			continue
		}
		resp, err := s.AuthorizeURL(ctx, driving.AuthorizeRequest{
			Surface:   domain.SurfaceAdministrative,
			ReturnURL: returnURL,
			ConfigID:  cfg.ID,
		})
		if err != nil {
			return nil, err
		}
		options = append(options, &driving.LoginOption{
			ConfigID:         cfg.ID,
			Label:            cfg.DisplayLabel,
			ShowLabel:        cfg.ShowLabel,
			AuthorizationURL: resp.AuthorizationURL,
		})
	}
	return options, nil
}

// Logout deletes the session behind the token. With ProviderSignOut the
// browser is also sent through the Entra ID sign-out endpoint.
func (s *loginService) Logout(ctx context.Context, req driving.LogoutRequest) (*driving.LogoutResponse, error) {
	if req.Token != "" {
		if err := s.sessions.DeleteByToken(ctx, req.Token); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
	}

	cfg := s.resolver.Resolve(ctx, domain.SurfacePrimary, req.TenantContextID, 0)
	redirect := s.hosts.safeReturnURL(req.PostLogoutRedirect, cfg)

	if req.ProviderSignOut {
		if cfg.HasTenant() {
			return &driving.LogoutResponse{RedirectURL: s.provider.LogoutURL(cfg, redirect)}, nil
		}
		s.logger.Debug("provider sign-out skipped, no tenant resolved", "tenant_context_id", req.TenantContextID)
	}

	return &driving.LogoutResponse{RedirectURL: redirect}, nil
}
