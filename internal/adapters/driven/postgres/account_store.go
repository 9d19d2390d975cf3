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

// Verify interface compliance
var _ driven.AccountStore = (*AccountStore)(nil)

// AccountStore implements driven.AccountStore using PostgreSQL
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a new AccountStore
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `
	id, surface, email, username, name, given_name, family_name,
	password_hash, role, groups, storage_location, disabled,
	created_at, updated_at, last_login_at`

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var groups []string
	var lastLoginAt sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.Surface,
		&account.Email,
		&account.Username,
		&account.Name,
		&account.GivenName,
		&account.FamilyName,
		&account.PasswordHash,
		&account.Role,
		pq.Array(&groups),
		&account.StorageLocation,
		&account.Disabled,
		&account.CreatedAt,
		&account.UpdatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	if len(groups) > 0 {
		account.Groups = groups
	}
	account.LastLoginAt = TimePtr(lastLoginAt)
	return &account, nil
}

// Save creates or updates an account. A second account with the same
// email on the same surface yields domain.ErrAlreadyExists.
func (s *AccountStore) Save(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			name = EXCLUDED.name,
			given_name = EXCLUDED.given_name,
			family_name = EXCLUDED.family_name,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			groups = EXCLUDED.groups,
			storage_location = EXCLUDED.storage_location,
			disabled = EXCLUDED.disabled,
			updated_at = EXCLUDED.updated_at,
			last_login_at = EXCLUDED.last_login_at
	`

	groups := account.Groups
	if groups == nil {
		groups = []string{}
	}
	role := account.Role
	if role == "" {
		role = domain.RoleMember
	}

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		string(account.Surface),
		account.Email,
		account.Username,
		account.Name,
		account.GivenName,
		account.FamilyName,
		account.PasswordHash,
		string(role),
		pq.Array(groups),
		account.StorageLocation,
		account.Disabled,
		account.CreatedAt,
		account.UpdatedAt,
		NullTime(account.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// Get retrieves an account by ID
func (s *AccountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email within a surface. Matching
// ignores case, as directory addresses do.
func (s *AccountStore) GetByEmail(ctx context.Context, surface domain.Surface, email string) (*domain.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE surface = $1 AND lower(email) = lower($2)
		ORDER BY created_at
		LIMIT 1`

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, string(surface), email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return account, nil
}

// List retrieves all accounts of a surface, newest first
func (s *AccountStore) List(ctx context.Context, surface domain.Surface) ([]*domain.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE surface = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, string(surface))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Delete deletes an account; its sessions go with it
func (s *AccountStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(result)
}

// UpdateLastLogin updates the last login timestamp
func (s *AccountStore) UpdateLastLogin(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = $1, updated_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return requireRow(result)
}
