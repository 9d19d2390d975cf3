package driven

import (
	"context"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// AuthBridge turns a verified external identity into a local session.
// The callback flow depends only on this capability, not on a concrete
// account store.
type AuthBridge interface {
	// FindAccountByEmail returns the account that may sign in on surface,
	// or nil when there is none (missing, disabled, or lacking rights).
	FindAccountByEmail(ctx context.Context, surface domain.Surface, email string) (*domain.Account, error)

	// EstablishSession opens a session for account and returns the
	// response headers the browser must receive.
	EstablishSession(ctx context.Context, account *domain.Account, meta domain.SessionMeta) (*domain.SessionArtifacts, error)
}
