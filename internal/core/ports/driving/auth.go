package driving

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// AuthService validates sessions issued after an Entra ID sign-in
type AuthService interface {
	// ValidateToken validates a session token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// Me returns the account behind an auth context
	Me(ctx context.Context, auth *domain.AuthContext) (*domain.AccountSummary, error)
}
