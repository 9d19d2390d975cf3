package domain

import "time"

// OAuthConfiguration holds the Entra ID app registration used for one
// tenant context, or for the administrative pool when TenantContextID is 0.
type OAuthConfiguration struct {
	ID              int64  `json:"id"`
	TenantContextID int64  `json:"tenant_context_id"`
	Enabled         bool   `json:"enabled"`
	ShowLabel       bool   `json:"show_label"`
	DisplayLabel    string `json:"display_label"`

	TenantID     string `json:"tenant_id"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"` // Plaintext in memory only, never serialize

	RedirectURIPrimary        string `json:"redirect_uri_primary"`
	RedirectURIAdministrative string `json:"redirect_uri_administrative"`

	// Auto-provisioning (primary surface only)
	AutoCreateAccount bool     `json:"auto_create_account"`
	DefaultGroups     []string `json:"default_groups,omitempty"`
	StorageLocation   int64    `json:"storage_location"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedirectURI returns the callback URI registered for the given surface.
func (c *OAuthConfiguration) RedirectURI(surface Surface) string {
	if surface == SurfaceAdministrative {
		return c.RedirectURIAdministrative
	}
	return c.RedirectURIPrimary
}

// HasTenant reports whether the record names a directory tenant.
// Resolution falls through records without one.
func (c *OAuthConfiguration) HasTenant() bool {
	return c != nil && c.TenantID != ""
}

// IsConfigured checks that every value the authorization-code flow needs
// for the surface is present.
func (c *OAuthConfiguration) IsConfigured(surface Surface) bool {
	if c == nil {
		return false
	}
	return c.TenantID != "" &&
		c.ClientID != "" &&
		c.ClientSecret != "" &&
		c.RedirectURI(surface) != ""
}

// OAuthConfigurationSummary is the admin view of a configuration (no secret).
type OAuthConfigurationSummary struct {
	ID                        int64     `json:"id"`
	TenantContextID           int64     `json:"tenant_context_id"`
	Enabled                   bool      `json:"enabled"`
	ShowLabel                 bool      `json:"show_label"`
	DisplayLabel              string    `json:"display_label"`
	TenantID                  string    `json:"tenant_id"`
	ClientID                  string    `json:"client_id"`
	HasSecret                 bool      `json:"has_secret"`
	RedirectURIPrimary        string    `json:"redirect_uri_primary,omitempty"`
	RedirectURIAdministrative string    `json:"redirect_uri_administrative,omitempty"`
	AutoCreateAccount         bool      `json:"auto_create_account"`
	DefaultGroups             []string  `json:"default_groups,omitempty"`
	StorageLocation           int64     `json:"storage_location"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// ToSummary converts a configuration to its secret-free view
func (c *OAuthConfiguration) ToSummary() *OAuthConfigurationSummary {
	return &OAuthConfigurationSummary{
		ID:                        c.ID,
		TenantContextID:           c.TenantContextID,
		Enabled:                   c.Enabled,
		ShowLabel:                 c.ShowLabel,
		DisplayLabel:              c.DisplayLabel,
		TenantID:                  c.TenantID,
		ClientID:                  c.ClientID,
		HasSecret:                 c.ClientSecret != "",
		RedirectURIPrimary:        c.RedirectURIPrimary,
		RedirectURIAdministrative: c.RedirectURIAdministrative,
		AutoCreateAccount:         c.AutoCreateAccount,
		DefaultGroups:             c.DefaultGroups,
		StorageLocation:           c.StorageLocation,
		CreatedAt:                 c.CreatedAt,
		UpdatedAt:                 c.UpdatedAt,
	}
}
