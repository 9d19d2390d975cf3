package driven

import "github.com/custodia-labs/entra-login/internal/core/domain"

// StateCodec signs and verifies the OAuth state parameter.
type StateCodec interface {
	// Create fills Nonce and ExpiresAt on state and returns the signed token.
	// Returns domain.ErrNotConfigured when no signing key is set.
	Create(state domain.SignedState) (string, *domain.SignedState, error)

	// Verify returns the payload of a valid, unexpired token, or nil for
	// anything else. It never returns an error.
	Verify(token string) *domain.SignedState
}
