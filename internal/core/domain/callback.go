package domain

import "net/http"

// Query parameters appended to the return URL after a callback.
const (
	ParamLoginSuccess = "azure_login_success"
	ParamLoginError   = "azure_login_error"
)

// CallbackOutcome is the terminal state of one callback request.
type CallbackOutcome string

const (
	// OutcomeNotApplicable: no code/state pair, not an OAuth callback.
	OutcomeNotApplicable CallbackOutcome = "not_applicable"
	// OutcomeStateInvalid: state failed verification, treated as unrelated request.
	OutcomeStateInvalid CallbackOutcome = "state_invalid"
	OutcomeSucceeded    CallbackOutcome = "succeeded"
	OutcomeFailed       CallbackOutcome = "failed"
)

// PassThrough reports whether the request must continue down the handler chain.
func (o CallbackOutcome) PassThrough() bool {
	return o == OutcomeNotApplicable || o == OutcomeStateInvalid
}

// LoginErrorCode is the machine-readable value of ParamLoginError.
type LoginErrorCode string

const (
	LoginErrorExchangeFailed LoginErrorCode = "exchange_failed"
	LoginErrorAuthFailed     LoginErrorCode = "auth_failed"
	LoginErrorAccountPending LoginErrorCode = "account_pending"
)

// CallbackResult tells the HTTP layer what to do with a callback request.
type CallbackResult struct {
	Outcome     CallbackOutcome
	Surface     Surface
	RedirectURL string
	ErrorCode   LoginErrorCode
	// Header carries session-establishing response headers (Set-Cookie).
	Header http.Header
}
