package driving

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// ConfigService manages Entra ID configurations (admin operations)
type ConfigService interface {
	// ListAdministrative returns one page of the administrative pool
	ListAdministrative(ctx context.Context, page, pageSize int) (*ConfigPage, error)

	// Get retrieves a configuration summary by id
	Get(ctx context.Context, id int64) (*domain.OAuthConfigurationSummary, error)

	// SavePrimary creates or updates the configuration of a tenant context
	SavePrimary(ctx context.Context, tenantContextID int64, req SaveConfigRequest) (*domain.OAuthConfigurationSummary, error)

	// SaveAdministrative creates (id == 0) or updates an administrative configuration
	SaveAdministrative(ctx context.Context, id int64, req SaveConfigRequest) (*domain.OAuthConfigurationSummary, error)

	// Delete removes a configuration
	Delete(ctx context.Context, id int64) error

	// CloneSecret copies the stored client secret from one configuration to another
	CloneSecret(ctx context.Context, sourceID, targetID int64) error
}

// SaveConfigRequest is the editable part of a configuration.
// An empty ClientSecret keeps the stored secret.
type SaveConfigRequest struct {
	Enabled                   bool     `json:"enabled"`
	ShowLabel                 bool     `json:"show_label"`
	DisplayLabel              string   `json:"display_label"`
	TenantID                  string   `json:"tenant_id"`
	ClientID                  string   `json:"client_id"`
	ClientSecret              string   `json:"client_secret,omitempty"`
	RedirectURIPrimary        string   `json:"redirect_uri_primary"`
	RedirectURIAdministrative string   `json:"redirect_uri_administrative"`
	AutoCreateAccount         bool     `json:"auto_create_account"`
	DefaultGroups             []string `json:"default_groups"`
	StorageLocation           int64    `json:"storage_location"`
}

// ConfigPage is one page of administrative configurations.
type ConfigPage struct {
	Items    []*domain.OAuthConfigurationSummary `json:"items"`
	Total    int                                 `json:"total"`
	Page     int                                 `json:"page"`
	PageSize int                                 `json:"page_size"`
}
