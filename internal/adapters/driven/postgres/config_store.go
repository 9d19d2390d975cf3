package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.OAuthConfigStore = (*ConfigStore)(nil)

// ConfigStore implements driven.OAuthConfigStore using PostgreSQL.
// Client secrets pass through the cipher on every read and write.
type ConfigStore struct {
	db     *DB
	cipher driven.SecretCipher
}

// NewConfigStore creates a new PostgreSQL-backed configuration store.
func NewConfigStore(db *DB, cipher driven.SecretCipher) *ConfigStore {
	return &ConfigStore{db: db, cipher: cipher}
}

const configColumns = `
	id, tenant_context_id, enabled, show_label, display_label,
	tenant_id, client_id, client_secret_encrypted,
	redirect_uri_primary, redirect_uri_administrative,
	auto_create_account, default_groups, storage_location,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *ConfigStore) scan(row rowScanner) (*domain.OAuthConfiguration, error) {
	var cfg domain.OAuthConfiguration
	var secretBlob string
	var groups []string

	err := row.Scan(
		&cfg.ID,
		&cfg.TenantContextID,
		&cfg.Enabled,
		&cfg.ShowLabel,
		&cfg.DisplayLabel,
		&cfg.TenantID,
		&cfg.ClientID,
		&secretBlob,
		&cfg.RedirectURIPrimary,
		&cfg.RedirectURIAdministrative,
		&cfg.AutoCreateAccount,
		pq.Array(&groups),
		&cfg.StorageLocation,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.ClientSecret = s.cipher.Decrypt(secretBlob)
	if len(groups) > 0 {
		cfg.DefaultGroups = groups
	}
	return &cfg, nil
}

// Get retrieves a configuration by id.
func (s *ConfigStore) Get(ctx context.Context, id int64) (*domain.OAuthConfiguration, error) {
	query := `SELECT` + configColumns + ` FROM oauth_configurations WHERE id = $1`

	cfg, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oauth configuration: %w", err)
	}
	return cfg, nil
}

// GetByTenantContext retrieves the configuration for a tenant context.
// For 0 it returns the oldest record of the administrative pool.
func (s *ConfigStore) GetByTenantContext(ctx context.Context, tenantContextID int64) (*domain.OAuthConfiguration, error) {
	query := `SELECT` + configColumns + `
		FROM oauth_configurations
		WHERE tenant_context_id = $1
		ORDER BY id
		LIMIT 1`

	cfg, err := s.scan(s.db.QueryRowContext(ctx, query, tenantContextID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oauth configuration by tenant context: %w", err)
	}
	return cfg, nil
}

// ListAdministrative returns one page of the administrative pool.
func (s *ConfigStore) ListAdministrative(ctx context.Context, offset, limit int) ([]*domain.OAuthConfiguration, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM oauth_configurations WHERE tenant_context_id = 0`,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count oauth configurations: %w", err)
	}

	query := `SELECT` + configColumns + `
		FROM oauth_configurations
		WHERE tenant_context_id = 0
		ORDER BY id
		OFFSET $1 LIMIT $2`

	configs, err := s.list(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return configs, total, nil
}

// ListEnabledAdministrative returns every enabled administrative configuration.
func (s *ConfigStore) ListEnabledAdministrative(ctx context.Context) ([]*domain.OAuthConfiguration, error) {
	query := `SELECT` + configColumns + `
		FROM oauth_configurations
		WHERE tenant_context_id = 0 AND enabled
		ORDER BY id`
	return s.list(ctx, query)
}

func (s *ConfigStore) list(ctx context.Context, query string, args ...any) ([]*domain.OAuthConfiguration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list oauth configurations: %w", err)
	}
	defer rows.Close()

	var configs []*domain.OAuthConfiguration
	for rows.Next() {
		cfg, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan oauth configuration: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list oauth configurations: %w", err)
	}
	return configs, nil
}

// Save inserts (ID == 0) or updates a configuration. An empty ClientSecret
// keeps the stored blob.
func (s *ConfigStore) Save(ctx context.Context, cfg *domain.OAuthConfiguration) error {
	blob, err := s.cipher.Encrypt(cfg.ClientSecret)
	if err != nil {
		return fmt.Errorf("encrypt client secret: %w", err)
	}

	now := time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	groups := cfg.DefaultGroups
	if groups == nil {
		groups = []string{}
	}

	if cfg.ID == 0 {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO oauth_configurations (
				tenant_context_id, enabled, show_label, display_label,
				tenant_id, client_id, client_secret_encrypted,
				redirect_uri_primary, redirect_uri_administrative,
				auto_create_account, default_groups, storage_location,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id`,
			cfg.TenantContextID, cfg.Enabled, cfg.ShowLabel, cfg.DisplayLabel,
			cfg.TenantID, cfg.ClientID, blob,
			cfg.RedirectURIPrimary, cfg.RedirectURIAdministrative,
			cfg.AutoCreateAccount, pq.Array(groups), cfg.StorageLocation,
			cfg.CreatedAt, cfg.UpdatedAt,
		).Scan(&cfg.ID)
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("insert oauth configuration: %w", err)
		}
		return nil
	}

	// $7 = '' leaves the stored secret alone
	result, err := s.db.ExecContext(ctx, `
		UPDATE oauth_configurations SET
			tenant_context_id = $1,
			enabled = $2,
			show_label = $3,
			display_label = $4,
			tenant_id = $5,
			client_id = $6,
			client_secret_encrypted = CASE WHEN $7::text = '' THEN client_secret_encrypted ELSE $7::text END,
			redirect_uri_primary = $8,
			redirect_uri_administrative = $9,
			auto_create_account = $10,
			default_groups = $11,
			storage_location = $12,
			updated_at = $13
		WHERE id = $14`,
		cfg.TenantContextID, cfg.Enabled, cfg.ShowLabel, cfg.DisplayLabel,
		cfg.TenantID, cfg.ClientID, blob,
		cfg.RedirectURIPrimary, cfg.RedirectURIAdministrative,
		cfg.AutoCreateAccount, pq.Array(groups), cfg.StorageLocation,
		cfg.UpdatedAt, cfg.ID,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("update oauth configuration: %w", err)
	}
	return requireRow(result)
}

// Delete removes a configuration.
func (s *ConfigStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM oauth_configurations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete oauth configuration: %w", err)
	}
	return requireRow(result)
}

// CloneSecret copies the encrypted secret of sourceID onto targetID.
func (s *ConfigStore) CloneSecret(ctx context.Context, sourceID, targetID int64) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var blob string
		err := tx.QueryRowContext(ctx,
			`SELECT client_secret_encrypted FROM oauth_configurations WHERE id = $1`,
			sourceID,
		).Scan(&blob)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read source secret: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE oauth_configurations SET client_secret_encrypted = $1, updated_at = $2 WHERE id = $3`,
			blob, time.Now(), targetID,
		)
		if err != nil {
			return fmt.Errorf("write target secret: %w", err)
		}
		return requireRow(result)
	})
}

// requireRow maps "no row affected" to domain.ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
