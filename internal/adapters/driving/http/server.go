package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
	"github.com/custodia-labs/entra-login/internal/metrics"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// TenantHeader carries the tenant context id when a fronting proxy knows it.
const TenantHeader = "X-Tenant-Context-Id"

// Services are the driving ports the server exposes.
type Services struct {
	Auth     driving.AuthService
	Login    driving.LoginService
	Callback driving.CallbackService
	Config   driving.ConfigService
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// Registered redirect paths, one per surface.
	CallbackPathPrimary        string
	CallbackPathAdministrative string

	// Fallback receives callback requests that are not sign-in callbacks.
	// Defaults to a 404.
	Fallback http.Handler

	// TenantFromRequest extracts the tenant context of an inbound request.
	// Defaults to reading TenantHeader.
	TenantFromRequest func(*http.Request) int64

	CookieSecure bool

	DB    Pinger // optional
	Redis Pinger // optional

	Metrics  *metrics.Metrics    // optional
	Gatherer prometheus.Gatherer // serves /metrics when set
	Logger   *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:                       "0.0.0.0",
		Port:                       8080,
		Version:                    "dev",
		CallbackPathPrimary:        "/auth/entra/callback",
		CallbackPathAdministrative: "/admin/auth/entra/callback",
	}
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	authService     driving.AuthService
	loginService    driving.LoginService
	callbackService driving.CallbackService
	configService   driving.ConfigService

	cfg Config
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services) *Server {
	defaults := DefaultConfig()
	if cfg.CallbackPathPrimary == "" {
		cfg.CallbackPathPrimary = defaults.CallbackPathPrimary
	}
	if cfg.CallbackPathAdministrative == "" {
		cfg.CallbackPathAdministrative = defaults.CallbackPathAdministrative
	}
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Fallback == nil {
		cfg.Fallback = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not a sign-in callback")
		})
	}
	if cfg.TenantFromRequest == nil {
		cfg.TenantFromRequest = TenantFromHeader
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          cfg.Logger,
		authService:     svc.Auth,
		loginService:    svc.Login,
		callbackService: svc.Callback,
		configService:   svc.Config,
		cfg:             cfg,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in recovery and request logging.
func (s *Server) Handler() http.Handler {
	return NewRecoveryMiddleware(s.logger).Handler(
		NewLoggingMiddleware(s.logger).Handler(s.router))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	callback := NewCallbackHandler(s.callbackService, s.cfg.TenantFromRequest, s.cfg.Metrics, s.logger)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.cfg.Gatherer != nil {
		s.router.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Provider redirects back here
	s.router.Handle("GET "+s.cfg.CallbackPathPrimary, callback.Wrap(s.cfg.Fallback))
	if s.cfg.CallbackPathAdministrative != s.cfg.CallbackPathPrimary {
		s.router.Handle("GET "+s.cfg.CallbackPathAdministrative, callback.Wrap(s.cfg.Fallback))
	}

	// Login entry points (public)
	s.router.HandleFunc("GET /login", s.handleLoginRedirect)
	s.router.HandleFunc("GET /api/v1/login/authorize", s.handleAuthorize)
	s.router.HandleFunc("GET /api/v1/login/status", s.handleLoginStatus)
	s.router.HandleFunc("GET /api/v1/login/options", s.handleLoginOptions)

	// Session endpoints (authenticated)
	s.router.Handle("POST /api/v1/auth/logout",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLogout)))
	s.router.Handle("GET /api/v1/me",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetMe)))

	// Configuration administration (administrative session required)
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.AuthenticateAdmin(authMiddleware.RequireAdmin(h))
	}
	s.router.Handle("GET /api/v1/admin/configs", admin(s.handleListConfigs))
	s.router.Handle("POST /api/v1/admin/configs", admin(s.handleCreateConfig))
	s.router.Handle("GET /api/v1/admin/configs/{id}", admin(s.handleGetConfig))
	s.router.Handle("PUT /api/v1/admin/configs/{id}", admin(s.handleUpdateConfig))
	s.router.Handle("DELETE /api/v1/admin/configs/{id}", admin(s.handleDeleteConfig))
	s.router.Handle("POST /api/v1/admin/configs/{id}/clone-secret", admin(s.handleCloneSecret))
	s.router.Handle("PUT /api/v1/admin/tenants/{tenant}/config", admin(s.handleSavePrimaryConfig))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// TenantFromHeader reads TenantHeader, returning 0 when absent or invalid.
func TenantFromHeader(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get(TenantHeader), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
