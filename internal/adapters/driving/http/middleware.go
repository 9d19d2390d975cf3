package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
)

// Context keys
type contextKey string

const (
	authContextKey contextKey = "auth_context"
	authTokenKey   contextKey = "auth_token"
)

// AuthMiddleware handles authentication and authorization
type AuthMiddleware struct {
	authService driving.AuthService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authService driving.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate accepts a bearer token or either surface's session cookie,
// primary first.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return m.authenticate(next, domain.SurfacePrimary, domain.SurfaceAdministrative)
}

// AuthenticateAdmin accepts a bearer token or the administrative session cookie.
func (m *AuthMiddleware) AuthenticateAdmin(next http.Handler) http.Handler {
	return m.authenticate(next, domain.SurfaceAdministrative)
}

func (m *AuthMiddleware) authenticate(next http.Handler, cookieSurfaces ...domain.Surface) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens := tokenCandidates(r, cookieSurfaces...)
		if len(tokens) == 0 {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		var lastErr error
		for _, token := range tokens {
			authCtx, err := m.authService.ValidateToken(r.Context(), token)
			if err != nil {
				lastErr = err
				continue
			}
			ctx := context.WithValue(r.Context(), authContextKey, authCtx)
			ctx = context.WithValue(ctx, authTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		switch {
		case errors.Is(lastErr, domain.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token expired")
		case errors.Is(lastErr, domain.ErrSessionNotFound):
			writeError(w, http.StatusUnauthorized, "session not found")
		default:
			writeError(w, http.StatusUnauthorized, "invalid token")
		}
	})
}

// RequireAdmin ensures the authenticated account is an administrator
// signed in on the administrative surface
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r.Context())
		if authCtx == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !authCtx.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetAuthContext retrieves the auth context from request context
func GetAuthContext(ctx context.Context) *domain.AuthContext {
	if ctx == nil {
		return nil
	}
	authCtx, ok := ctx.Value(authContextKey).(*domain.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// getAuthToken returns the token the request was authenticated with
func getAuthToken(ctx context.Context) string {
	token, _ := ctx.Value(authTokenKey).(string)
	return token
}

// tokenCandidates lists the bearer token followed by the session cookies
// of the given surfaces, skipping empty values.
func tokenCandidates(r *http.Request, surfaces ...domain.Surface) []string {
	var tokens []string
	if token := extractBearerToken(r); token != "" {
		tokens = append(tokens, token)
	}
	for _, surface := range surfaces {
		if c, err := r.Cookie(domain.SessionCookieName(surface)); err == nil && c.Value != "" {
			tokens = append(tokens, c.Value)
		}
	}
	return tokens
}

// extractBearerToken extracts the Bearer token from Authorization header
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// clientIP prefers the first X-Forwarded-For hop over the socket address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Logging middleware

// LoggingMiddleware logs HTTP requests
type LoggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware
func NewLoggingMiddleware(logger *slog.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMiddleware{logger: logger}
}

// Handler wraps an http.Handler with request logging. Query strings are
// left out since callbacks carry codes and state tokens.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Recovery middleware

// RecoveryMiddleware recovers from panics
type RecoveryMiddleware struct {
	logger *slog.Logger
}

// NewRecoveryMiddleware creates a new RecoveryMiddleware
func NewRecoveryMiddleware(logger *slog.Logger) *RecoveryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryMiddleware{logger: logger}
}

// Handler wraps an http.Handler with panic recovery
func (m *RecoveryMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
