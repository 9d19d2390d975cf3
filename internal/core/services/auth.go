package services

import (
	"context"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface
type authService struct {
	accountStore driven.AccountStore
	sessionStore driven.SessionStore
	authAdapter  driven.AuthAdapter
}

// NewAuthService creates a new AuthService
func NewAuthService(
	accountStore driven.AccountStore,
	sessionStore driven.SessionStore,
	authAdapter driven.AuthAdapter,
) driving.AuthService {
	return &authService{
		accountStore: accountStore,
		sessionStore: sessionStore,
		authAdapter:  authAdapter,
	}
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	// Parse and validate JWT
	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	// Check expiration
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	// Verify session exists
	session, err := s.sessionStore.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
		Surface:   claims.Surface,
		SessionID: claims.SessionID,
	}, nil
}

// Me returns the account behind an auth context
func (s *authService) Me(ctx context.Context, auth *domain.AuthContext) (*domain.AccountSummary, error) {
	if auth == nil {
		return nil, domain.ErrUnauthorized
	}
	account, err := s.accountStore.Get(ctx, auth.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account.ToSummary(), nil
}
