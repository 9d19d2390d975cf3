package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"not_configured"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// LoginStatusResponse tells a login page whether to offer the sign-in button
type LoginStatusResponse struct {
	Configured bool `json:"configured"`
}

// CloneSecretRequest names the configuration whose secret is copied
type CloneSecretRequest struct {
	SourceID int64 `json:"source_id"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database and Redis when configured
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DB != nil {
		if err := s.cfg.DB.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness: database unreachable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.cfg.Redis != nil {
		if err := s.cfg.Redis.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness: redis unreachable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Login endpoints

// authorizeRequestFromQuery reads surface, return_url, tenant and config.
// The tenant falls back to the request's own tenant context.
func (s *Server) authorizeRequestFromQuery(r *http.Request) (driving.AuthorizeRequest, error) {
	q := r.URL.Query()
	surface, ok := domain.ParseSurface(q.Get("surface"))
	if !ok {
		return driving.AuthorizeRequest{}, errors.New("invalid surface")
	}
	tenant, err := optionalInt64(q.Get("tenant"))
	if err != nil {
		return driving.AuthorizeRequest{}, errors.New("invalid tenant")
	}
	if tenant == 0 {
		tenant = s.cfg.TenantFromRequest(r)
	}
	configID, err := optionalInt64(q.Get("config"))
	if err != nil {
		return driving.AuthorizeRequest{}, errors.New("invalid config")
	}
	return driving.AuthorizeRequest{
		Surface:         surface,
		ReturnURL:       q.Get("return_url"),
		TenantContextID: tenant,
		ConfigID:        configID,
	}, nil
}

// handleAuthorize godoc
// @Summary      Build an Entra ID authorize URL
// @Tags         Login
// @Produce      json
// @Param        surface     query  string  false  "primary or administrative"
// @Param        return_url  query  string  false  "Where to land after sign-in"
// @Param        tenant      query  int     false  "Tenant context id"
// @Param        config      query  int     false  "Administrative configuration id"
// @Success      200  {object}  driving.AuthorizeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse  "not_configured"
// @Router       /login/authorize [get]
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	req, err := s.authorizeRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.loginService.AuthorizeURL(r.Context(), req)
	if err != nil {
		s.writeLoginError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLoginRedirect sends the browser straight to Entra ID.
func (s *Server) handleLoginRedirect(w http.ResponseWriter, r *http.Request) {
	req, err := s.authorizeRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.loginService.AuthorizeURL(r.Context(), req)
	if err != nil {
		s.writeLoginError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, resp.AuthorizationURL, http.StatusFound)
}

// handleLoginStatus godoc
// @Summary      Check whether sign-in is configured
// @Tags         Login
// @Produce      json
// @Success      200  {object}  LoginStatusResponse
// @Router       /login/status [get]
func (s *Server) handleLoginStatus(w http.ResponseWriter, r *http.Request) {
	req, err := s.authorizeRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	configured := s.loginService.IsConfigured(r.Context(), req.Surface, req.TenantContextID, req.ConfigID)
	writeJSON(w, http.StatusOK, LoginStatusResponse{Configured: configured})
}

// handleLoginOptions godoc
// @Summary      List administrative sign-in options
// @Tags         Login
// @Produce      json
// @Param        return_url  query  string  false  "Where to land after sign-in"
// @Success      200  {array}   driving.LoginOption
// @Router       /login/options [get]
func (s *Server) handleLoginOptions(w http.ResponseWriter, r *http.Request) {
	options, err := s.loginService.AdministrativeLogins(r.Context(), r.URL.Query().Get("return_url"))
	if err != nil {
		s.writeLoginError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

func (s *Server) writeLoginError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "not_configured")
		return
	}
	s.logger.Error("login request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// Session endpoints

// handleLogout godoc
// @Summary      Logout
// @Description  Deletes the session, clears its cookie and returns where to go next
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.LogoutRequest  false  "Logout options"
// @Success      200      {object}  driving.LogoutResponse
// @Router       /auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req driving.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Token = getAuthToken(r.Context())
	if req.TenantContextID == 0 {
		req.TenantContextID = s.cfg.TenantFromRequest(r)
	}

	resp, err := s.loginService.Logout(r.Context(), req)
	if err != nil {
		s.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	if authCtx := GetAuthContext(r.Context()); authCtx != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     domain.SessionCookieName(authCtx.Surface),
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetMe godoc
// @Summary      Get current account
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AccountSummary
// @Failure      404  {object}  ErrorResponse
// @Router       /me [get]
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	summary, err := s.authService.Me(r.Context(), GetAuthContext(r.Context()))
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Configuration administration

// handleListConfigs godoc
// @Summary      List administrative configurations
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        page       query  int  false  "Page, from 1"
// @Param        page_size  query  int  false  "Items per page"
// @Success      200  {object}  driving.ConfigPage
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/configs [get]
func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	page, err := optionalInt(r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	pageSize, err := optionalInt(r.URL.Query().Get("page_size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page_size")
		return
	}

	result, err := s.configService.ListAdministrative(r.Context(), page, pageSize)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCreateConfig godoc
// @Summary      Create an administrative configuration
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.SaveConfigRequest  true  "Configuration"
// @Success      201      {object}  domain.OAuthConfigurationSummary
// @Failure      400      {object}  ErrorResponse
// @Router       /admin/configs [post]
func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req driving.SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.configService.SaveAdministrative(r.Context(), 0, req)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// handleGetConfig godoc
// @Summary      Get a configuration
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Configuration ID"
// @Success      200  {object}  domain.OAuthConfigurationSummary
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/configs/{id} [get]
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	summary, err := s.configService.Get(r.Context(), id)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleUpdateConfig godoc
// @Summary      Update an administrative configuration
// @Description  An empty client_secret keeps the stored secret
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Configuration ID"
// @Param        request  body      driving.SaveConfigRequest  true  "Configuration"
// @Success      200      {object}  domain.OAuthConfigurationSummary
// @Router       /admin/configs/{id} [put]
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req driving.SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.configService.SaveAdministrative(r.Context(), id, req)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleDeleteConfig godoc
// @Summary      Delete a configuration
// @Tags         Admin
// @Security     BearerAuth
// @Param        id   path  int  true  "Configuration ID"
// @Success      204
// @Router       /admin/configs/{id} [delete]
func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.configService.Delete(r.Context(), id); err != nil {
		s.writeConfigError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCloneSecret godoc
// @Summary      Copy a stored client secret onto this configuration
// @Tags         Admin
// @Accept       json
// @Security     BearerAuth
// @Param        id       path  int                 true  "Target configuration ID"
// @Param        request  body  CloneSecretRequest  true  "Source configuration"
// @Success      204
// @Router       /admin/configs/{id}/clone-secret [post]
func (s *Server) handleCloneSecret(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CloneSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.configService.CloneSecret(r.Context(), req.SourceID, id); err != nil {
		s.writeConfigError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSavePrimaryConfig godoc
// @Summary      Create or update the configuration of a tenant context
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tenant   path      int                        true  "Tenant context ID"
// @Param        request  body      driving.SaveConfigRequest  true  "Configuration"
// @Success      200      {object}  domain.OAuthConfigurationSummary
// @Router       /admin/tenants/{tenant}/config [put]
func (s *Server) handleSavePrimaryConfig(w http.ResponseWriter, r *http.Request) {
	tenant, ok := pathID(w, r, "tenant")
	if !ok {
		return
	}
	var req driving.SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.configService.SavePrimary(r.Context(), tenant, req)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) writeConfigError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Helper functions

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func optionalInt64(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, errors.New("invalid integer")
	}
	return v, nil
}

// optionalInt parses a non-negative paging parameter. Empty means 0.
func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid integer")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
