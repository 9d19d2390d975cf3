package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the account lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the session token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the session token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotConfigured indicates tenant, client id, client secret or the
	// surface redirect URI is missing, or the server secret is unset
	ErrNotConfigured = errors.New("sign-in not configured")

	// ErrExchangeFailed indicates the identity provider token or profile
	// exchange did not produce an identity
	ErrExchangeFailed = errors.New("exchange failed")

	// ErrLocalAuthFailed indicates the external identity has no usable local account
	ErrLocalAuthFailed = errors.New("local authentication failed")
)

// ExchangeError wraps a provider failure (network, non-2xx, malformed body).
// It always matches ErrExchangeFailed with errors.Is.
type ExchangeError struct {
	Step string
	Err  error
}

func (e *ExchangeError) Error() string {
	if e.Err == nil {
		return "exchange failed: " + e.Step
	}
	return "exchange failed: " + e.Step + ": " + e.Err.Error()
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Is reports ErrExchangeFailed as a match.
func (e *ExchangeError) Is(target error) bool {
	return target == ErrExchangeFailed
}
