package services

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

// ConfigResolver picks the Entra ID configuration that applies to a request.
//
// Administrative surface, first record with a tenant id wins:
//  1. the configuration with id configID (when > 0)
//  2. the configuration of tenantContextID (when > 0)
//  3. the administrative pool default (tenant context 0)
//  4. the static fallback
//
// Primary surface: the configuration of tenantContextID (when > 0), then
// the static fallback.
type ConfigResolver struct {
	store    driven.OAuthConfigStore
	fallback *domain.OAuthConfiguration
	logger   *slog.Logger
}

// NewConfigResolver creates a resolver. fallback may be nil.
func NewConfigResolver(store driven.OAuthConfigStore, fallback *domain.OAuthConfiguration, logger *slog.Logger) *ConfigResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigResolver{
		store:    store,
		fallback: fallback,
		logger:   logger,
	}
}

// Resolve returns the applicable configuration, or the static fallback
// (possibly nil) when no stored record names a tenant. Lookup errors are
// logged and treated as a miss.
func (r *ConfigResolver) Resolve(ctx context.Context, surface domain.Surface, tenantContextID, configID int64) *domain.OAuthConfiguration {
	if surface == domain.SurfaceAdministrative {
		if configID > 0 {
			if cfg := r.byID(ctx, configID); cfg.HasTenant() {
				return cfg
			}
		}
		if tenantContextID > 0 {
			if cfg := r.byTenant(ctx, tenantContextID); cfg.HasTenant() {
				return cfg
			}
		}
		if cfg := r.byTenant(ctx, 0); cfg.HasTenant() {
			return cfg
		}
		return r.fallback
	}

	if tenantContextID > 0 {
		if cfg := r.byTenant(ctx, tenantContextID); cfg.HasTenant() {
			return cfg
		}
	}
	return r.fallback
}

// IsConfigured reports whether the resolved configuration has tenant id,
// client id, client secret and the surface redirect URI.
func (r *ConfigResolver) IsConfigured(ctx context.Context, surface domain.Surface, tenantContextID, configID int64) bool {
	return r.Resolve(ctx, surface, tenantContextID, configID).IsConfigured(surface)
}

func (r *ConfigResolver) byID(ctx context.Context, id int64) *domain.OAuthConfiguration {
	if r.store == nil {
		return nil
	}
	cfg, err := r.store.Get(ctx, id)
	if err != nil {
		r.logger.Warn("configuration lookup failed", "config_id", id, "error", err)
		return nil
	}
	return cfg
}

func (r *ConfigResolver) byTenant(ctx context.Context, tenantContextID int64) *domain.OAuthConfiguration {
	if r.store == nil {
		return nil
	}
	cfg, err := r.store.GetByTenantContext(ctx, tenantContextID)
	if err != nil {
		r.logger.Warn("configuration lookup failed", "tenant_context_id", tenantContextID, "error", err)
		return nil
	}
	return cfg
}
