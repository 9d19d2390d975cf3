package domain

import (
	"net/http"
	"time"
)

// Session represents an authenticated account session
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Surface   Surface   `json:"surface"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionMeta describes the client a session is being opened for
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// SessionArtifacts is what a successful local authentication produces:
// the stored session plus response headers (cookies) that must reach the browser.
type SessionArtifacts struct {
	Session *Session
	Header  http.Header
}

// AuthContext contains authenticated account info for request context
type AuthContext struct {
	AccountID string  `json:"account_id"`
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	Surface   Surface `json:"surface"`
	SessionID string  `json:"session_id"`
}

// IsAdmin checks if the authenticated account is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin && a.Surface == SurfaceAdministrative
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	AccountID string  `json:"account_id"`
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	Surface   Surface `json:"surface"`
	SessionID string  `json:"session_id"`
	IssuedAt  int64   `json:"iat"`
	ExpiresAt int64   `json:"exp"`
}

// Session cookie names, one per surface so both sessions can coexist.
const (
	SessionCookiePrimary        = "entra_session"
	SessionCookieAdministrative = "entra_admin_session"
)

// SessionCookieName returns the cookie carrying the session token for surface.
func SessionCookieName(surface Surface) string {
	if surface == SurfaceAdministrative {
		return SessionCookieAdministrative
	}
	return SessionCookiePrimary
}
