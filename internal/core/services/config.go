package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
)

// Ensure configService implements ConfigService
var _ driving.ConfigService = (*configService)(nil)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// configService implements the ConfigService interface
type configService struct {
	store  driven.OAuthConfigStore
	logger *slog.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(store driven.OAuthConfigStore, logger *slog.Logger) driving.ConfigService {
	if logger == nil {
		logger = slog.Default()
	}
	return &configService{store: store, logger: logger}
}

// ListAdministrative returns one page of administrative configurations.
// Page numbers start at 1.
func (s *configService) ListAdministrative(ctx context.Context, page, pageSize int) (*driving.ConfigPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	configs, total, err := s.store.ListAdministrative(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list administrative configurations: %w", err)
	}

	items := make([]*domain.OAuthConfigurationSummary, 0, len(configs))
	for _, cfg := range configs {
		items = append(items, cfg.ToSummary())
	}
	return &driving.ConfigPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Get retrieves a configuration summary by id
func (s *configService) Get(ctx context.Context, id int64) (*domain.OAuthConfigurationSummary, error) {
	cfg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get configuration: %w", err)
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	return cfg.ToSummary(), nil
}

// SavePrimary creates or updates the single configuration of a tenant context.
func (s *configService) SavePrimary(ctx context.Context, tenantContextID int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error) {
	if tenantContextID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	cfg, err := buildConfig(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetByTenantContext(ctx, tenantContextID)
	if err != nil {
		return nil, fmt.Errorf("get configuration: %w", err)
	}
	if existing != nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	}
	cfg.TenantContextID = tenantContextID

	return s.save(ctx, cfg)
}

// SaveAdministrative creates (id == 0) or updates an administrative configuration.
func (s *configService) SaveAdministrative(ctx context.Context, id int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error) {
	cfg, err := buildConfig(req)
	if err != nil {
		return nil, err
	}

	if id > 0 {
		existing, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get configuration: %w", err)
		}
		if existing == nil || existing.TenantContextID != 0 {
			return nil, domain.ErrNotFound
		}
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	}

	return s.save(ctx, cfg)
}

// Delete removes a configuration
func (s *configService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("configuration deleted", "config_id", id)
	return nil
}

// CloneSecret copies the stored client secret between configurations
func (s *configService) CloneSecret(ctx context.Context, sourceID, targetID int64) error {
	if sourceID <= 0 || targetID <= 0 || sourceID == targetID {
		return domain.ErrInvalidInput
	}
	if err := s.store.CloneSecret(ctx, sourceID, targetID); err != nil {
		return err
	}
	s.logger.Info("client secret cloned", "source_id", sourceID, "target_id", targetID)
	return nil
}

func (s *configService) save(ctx context.Context, cfg *domain.OAuthConfiguration) (*domain.OAuthConfigurationSummary, error) {
	if err := s.store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save configuration: %w", err)
	}
	s.logger.Info("configuration saved", "config_id", cfg.ID, "tenant_context_id", cfg.TenantContextID)

	// Re-read so HasSecret reflects a kept secret
	return s.Get(ctx, cfg.ID)
}

func buildConfig(req driving.SaveConfigRequest) (*domain.OAuthConfiguration, error) {
	cfg := &domain.OAuthConfiguration{
		Enabled:                   req.Enabled,
		ShowLabel:                 req.ShowLabel,
		DisplayLabel:              strings.TrimSpace(req.DisplayLabel),
		TenantID:                  strings.TrimSpace(req.TenantID),
		ClientID:                  strings.TrimSpace(req.ClientID),
		ClientSecret:              req.ClientSecret,
		RedirectURIPrimary:        strings.TrimSpace(req.RedirectURIPrimary),
		RedirectURIAdministrative: strings.TrimSpace(req.RedirectURIAdministrative),
		AutoCreateAccount:         req.AutoCreateAccount,
		StorageLocation:           req.StorageLocation,
	}
	for _, g := range req.DefaultGroups {
		if g = strings.TrimSpace(g); g != "" {
			cfg.DefaultGroups = append(cfg.DefaultGroups, g)
		}
	}

	for _, uri := range []string{cfg.RedirectURIPrimary, cfg.RedirectURIAdministrative} {
		if uri != "" && !isAbsoluteHTTPURL(uri) {
			return nil, fmt.Errorf("%w: redirect uri must be an absolute http(s) URL", domain.ErrInvalidInput)
		}
	}
	if cfg.StorageLocation < 0 {
		return nil, fmt.Errorf("%w: storage location must not be negative", domain.ErrInvalidInput)
	}
	return cfg, nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
