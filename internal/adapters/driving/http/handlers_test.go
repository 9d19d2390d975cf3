package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
	"github.com/custodia-labs/entra-login/internal/metrics"
)

// Mock services for testing

type mockAuthService struct {
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
	meFn            func(ctx context.Context, auth *domain.AuthContext) (*domain.AccountSummary, error)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Me(ctx context.Context, auth *domain.AuthContext) (*domain.AccountSummary, error) {
	if m.meFn != nil {
		return m.meFn(ctx, auth)
	}
	return nil, errors.New("not implemented")
}

type mockLoginService struct {
	isConfiguredFn func(ctx context.Context, surface domain.Surface, tenantContextID, configID int64) bool
	authorizeFn    func(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error)
	optionsFn      func(ctx context.Context, returnURL string) ([]*driving.LoginOption, error)
	logoutFn       func(ctx context.Context, req driving.LogoutRequest) (*driving.LogoutResponse, error)
}

func (m *mockLoginService) IsConfigured(ctx context.Context, surface domain.Surface, tenantContextID, configID int64) bool {
	if m.isConfiguredFn != nil {
		return m.isConfiguredFn(ctx, surface, tenantContextID, configID)
	}
	return false
}

func (m *mockLoginService) AuthorizeURL(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
	if m.authorizeFn != nil {
		return m.authorizeFn(ctx, req)
	}
	return nil, domain.ErrNotConfigured
}

func (m *mockLoginService) AdministrativeLogins(ctx context.Context, returnURL string) ([]*driving.LoginOption, error) {
	if m.optionsFn != nil {
		return m.optionsFn(ctx, returnURL)
	}
	return nil, nil
}

func (m *mockLoginService) Logout(ctx context.Context, req driving.LogoutRequest) (*driving.LogoutResponse, error) {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, req)
	}
	return &driving.LogoutResponse{RedirectURL: "/"}, nil
}

type mockCallbackService struct {
	handleFn func(ctx context.Context, req driving.CallbackRequest) *domain.CallbackResult
}

func (m *mockCallbackService) HandleCallback(ctx context.Context, req driving.CallbackRequest) *domain.CallbackResult {
	if m.handleFn != nil {
		return m.handleFn(ctx, req)
	}
	return &domain.CallbackResult{Outcome: domain.OutcomeNotApplicable}
}

type mockConfigService struct {
	listFn      func(ctx context.Context, page, pageSize int) (*driving.ConfigPage, error)
	getFn       func(ctx context.Context, id int64) (*domain.OAuthConfigurationSummary, error)
	savePrimFn  func(ctx context.Context, tenantContextID int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error)
	saveAdminFn func(ctx context.Context, id int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error)
	deleteFn    func(ctx context.Context, id int64) error
	cloneFn     func(ctx context.Context, sourceID, targetID int64) error
}

func (m *mockConfigService) ListAdministrative(ctx context.Context, page, pageSize int) (*driving.ConfigPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page, pageSize)
	}
	return &driving.ConfigPage{}, nil
}

func (m *mockConfigService) Get(ctx context.Context, id int64) (*domain.OAuthConfigurationSummary, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockConfigService) SavePrimary(ctx context.Context, tenantContextID int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error) {
	if m.savePrimFn != nil {
		return m.savePrimFn(ctx, tenantContextID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConfigService) SaveAdministrative(ctx context.Context, id int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error) {
	if m.saveAdminFn != nil {
		return m.saveAdminFn(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConfigService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockConfigService) CloneSecret(ctx context.Context, sourceID, targetID int64) error {
	if m.cloneFn != nil {
		return m.cloneFn(ctx, sourceID, targetID)
	}
	return nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Test helpers

const adminToken = "admin-token"

func newTestServer(cfg Config, svc Services) *Server {
	if svc.Auth == nil {
		admin := &domain.AuthContext{AccountID: "admin-1", Role: domain.RoleAdmin, Surface: domain.SurfaceAdministrative}
		member := &domain.AuthContext{AccountID: "member-1", Role: domain.RoleMember, Surface: domain.SurfacePrimary}
		svc.Auth = tokenValidator(map[string]*domain.AuthContext{
			adminToken:     admin,
			"member-token": member,
		})
	}
	if svc.Login == nil {
		svc.Login = &mockLoginService{}
	}
	if svc.Callback == nil {
		svc.Callback = &mockCallbackService{}
	}
	if svc.Config == nil {
		svc.Config = &mockConfigService{}
	}
	return NewServer(cfg, svc)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

// Health

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(Config{Version: "1.2.3"}, Services{})

	rr := serve(s, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	rr = serve(s, httptest.NewRequest("GET", "/version", nil))
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["version"] != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", body["version"])
	}
}

func TestReady(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		db         Pinger
		redis      Pinger
		wantStatus int
	}{
		{"no dependencies", nil, nil, http.StatusOK},
		{"all healthy", ok, ok, http.StatusOK},
		{"database down", down, ok, http.StatusServiceUnavailable},
		{"redis down", ok, down, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(Config{DB: tt.db, Redis: tt.redis}, Services{})
			rr := serve(s, httptest.NewRequest("GET", "/ready", nil))
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	callback := &mockCallbackService{
		handleFn: func(ctx context.Context, req driving.CallbackRequest) *domain.CallbackResult {
			return &domain.CallbackResult{
				Outcome:     domain.OutcomeFailed,
				Surface:     domain.SurfacePrimary,
				RedirectURL: "/?azure_login_error=exchange_failed",
				ErrorCode:   domain.LoginErrorExchangeFailed,
			}
		},
	}
	s := newTestServer(Config{Metrics: m, Gatherer: reg}, Services{Callback: callback})

	serve(s, httptest.NewRequest("GET", "/auth/entra/callback?code=c&state=s", nil))

	rr := serve(s, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `entra_login_callback_total{error="exchange_failed",outcome="failed",surface="primary"} 1`) {
		t.Errorf("callback counter missing from exposition:\n%s", rr.Body.String())
	}
}

// Callback

func TestCallback_PassThroughReachesFallback(t *testing.T) {
	var fallbackHit bool
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHit = true
		w.WriteHeader(http.StatusOK)
	})

	for _, outcome := range []domain.CallbackOutcome{domain.OutcomeNotApplicable, domain.OutcomeStateInvalid} {
		t.Run(string(outcome), func(t *testing.T) {
			fallbackHit = false
			callback := &mockCallbackService{
				handleFn: func(ctx context.Context, req driving.CallbackRequest) *domain.CallbackResult {
					return &domain.CallbackResult{Outcome: outcome}
				},
			}
			s := newTestServer(Config{Fallback: fallback}, Services{Callback: callback})

			rr := serve(s, httptest.NewRequest("GET", "/auth/entra/callback?code=c&state=bad", nil))

			if !fallbackHit {
				t.Error("expected fallback handler to be called")
			}
			if rr.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rr.Code)
			}
		})
	}
}

func TestCallback_DefaultFallbackIsNotFound(t *testing.T) {
	s := newTestServer(Config{}, Services{})
	rr := serve(s, httptest.NewRequest("GET", "/admin/auth/entra/callback", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestCallback_SuccessRedirectsWithCookie(t *testing.T) {
	var got driving.CallbackRequest
	callback := &mockCallbackService{
		handleFn: func(ctx context.Context, req driving.CallbackRequest) *domain.CallbackResult {
			got = req
			header := http.Header{}
			header.Add("Set-Cookie", "entra_session=tok; Path=/; HttpOnly")
			return &domain.CallbackResult{
				Outcome:     domain.OutcomeSucceeded,
				Surface:     domain.SurfacePrimary,
				RedirectURL: "/news?azure_login_success=1",
				Header:      header,
			}
		},
	}
	s := newTestServer(Config{}, Services{Callback: callback})

	req := httptest.NewRequest("GET", "/auth/entra/callback?code=the-code&state=the-state", nil)
	req.Header.Set(TenantHeader, "42")
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "192.0.2.10:4000"
	rr := serve(s, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/news?azure_login_success=1" {
		t.Errorf("unexpected Location %q", loc)
	}
	if cookie := rr.Header().Get("Set-Cookie"); !strings.HasPrefix(cookie, "entra_session=tok") {
		t.Errorf("expected session cookie, got %q", cookie)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected Cache-Control no-store")
	}

	want := driving.CallbackRequest{
		Code:            "the-code",
		State:           "the-state",
		TenantContextID: 42,
		UserAgent:       "test-agent",
		IPAddress:       "192.0.2.10",
	}
	if got != want {
		t.Errorf("expected request %+v, got %+v", want, got)
	}
}

func TestCallback_CustomTenantResolver(t *testing.T) {
	var tenant int64
	callback := &mockCallbackService{
		handleFn: func(ctx context.Context, req driving.CallbackRequest) *domain.CallbackResult {
			tenant = req.TenantContextID
			return &domain.CallbackResult{Outcome: domain.OutcomeNotApplicable}
		},
	}
	cfg := Config{
		TenantFromRequest: func(r *http.Request) int64 {
			if r.Host == "site7.example.com" {
				return 7
			}
			return 0
		},
	}
	s := newTestServer(cfg, Services{Callback: callback})

	req := httptest.NewRequest("GET", "http://site7.example.com/auth/entra/callback", nil)
	serve(s, req)

	if tenant != 7 {
		t.Errorf("expected tenant 7, got %d", tenant)
	}
}

// Login

func TestAuthorize(t *testing.T) {
	var got driving.AuthorizeRequest
	login := &mockLoginService{
		authorizeFn: func(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
			got = req
			return &driving.AuthorizeResponse{AuthorizationURL: "https://login.example.com/authorize?state=x"}, nil
		},
	}
	s := newTestServer(Config{}, Services{Login: login})

	req := httptest.NewRequest("GET", "/api/v1/login/authorize?surface=backend&config=3&return_url="+url.QueryEscape("/typo3"), nil)
	req.Header.Set(TenantHeader, "9")
	rr := serve(s, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	want := driving.AuthorizeRequest{
		Surface:         domain.SurfaceAdministrative,
		ReturnURL:       "/typo3",
		TenantContextID: 9,
		ConfigID:        3,
	}
	if got != want {
		t.Errorf("expected request %+v, got %+v", want, got)
	}

	var resp driving.AuthorizeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AuthorizationURL == "" {
		t.Error("expected authorization url")
	}
}

func TestAuthorize_QueryTenantWinsOverHeader(t *testing.T) {
	var tenant int64
	login := &mockLoginService{
		authorizeFn: func(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
			tenant = req.TenantContextID
			return &driving.AuthorizeResponse{AuthorizationURL: "https://x"}, nil
		},
	}
	s := newTestServer(Config{}, Services{Login: login})

	req := httptest.NewRequest("GET", "/api/v1/login/authorize?tenant=5", nil)
	req.Header.Set(TenantHeader, "9")
	serve(s, req)

	if tenant != 5 {
		t.Errorf("expected tenant 5, got %d", tenant)
	}
}

func TestAuthorize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		loginErr   error
		wantStatus int
		wantError  string
	}{
		{"bad surface", "surface=kiosk", nil, http.StatusBadRequest, "invalid surface"},
		{"bad tenant", "tenant=abc", nil, http.StatusBadRequest, "invalid tenant"},
		{"bad config", "config=-1", nil, http.StatusBadRequest, "invalid config"},
		{"not configured", "", domain.ErrNotConfigured, http.StatusServiceUnavailable, "not_configured"},
		{"wrapped not configured", "", fmt.Errorf("resolve: %w", domain.ErrNotConfigured), http.StatusServiceUnavailable, "not_configured"},
		{"internal", "", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			login := &mockLoginService{
				authorizeFn: func(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
					return nil, tt.loginErr
				},
			}
			s := newTestServer(Config{}, Services{Login: login})

			rr := serve(s, httptest.NewRequest("GET", "/api/v1/login/authorize?"+tt.query, nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if msg := decodeError(t, rr); msg != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, msg)
			}
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	login := &mockLoginService{
		authorizeFn: func(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
			return &driving.AuthorizeResponse{AuthorizationURL: "https://login.example.com/authorize?state=x"}, nil
		},
	}
	s := newTestServer(Config{}, Services{Login: login})

	rr := serve(s, httptest.NewRequest("GET", "/login", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "https://login.example.com/authorize?state=x" {
		t.Errorf("unexpected Location %q", loc)
	}
}

func TestLoginStatus(t *testing.T) {
	login := &mockLoginService{
		isConfiguredFn: func(ctx context.Context, surface domain.Surface, tenantContextID, configID int64) bool {
			return surface == domain.SurfacePrimary && tenantContextID == 3
		},
	}
	s := newTestServer(Config{}, Services{Login: login})

	for query, want := range map[string]bool{
		"tenant=3":               true,
		"tenant=4":               false,
		"tenant=3&surface=admin": false,
	} {
		rr := serve(s, httptest.NewRequest("GET", "/api/v1/login/status?"+query, nil))
		var resp LoginStatusResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Configured != want {
			t.Errorf("%s: expected configured=%v, got %v", query, want, resp.Configured)
		}
	}
}

func TestLoginOptions(t *testing.T) {
	login := &mockLoginService{
		optionsFn: func(ctx context.Context, returnURL string) ([]*driving.LoginOption, error) {
			return []*driving.LoginOption{
				{ConfigID: 1, Label: "Contoso", ShowLabel: true, AuthorizationURL: "https://a?r=" + returnURL},
				{ConfigID: 2, Label: "Fabrikam", AuthorizationURL: "https://b"},
			}, nil
		},
	}
	s := newTestServer(Config{}, Services{Login: login})

	rr := serve(s, httptest.NewRequest("GET", "/api/v1/login/options?return_url=/typo3", nil))

	var options []*driving.LoginOption
	if err := json.NewDecoder(rr.Body).Decode(&options); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	if options[0].AuthorizationURL != "https://a?r=/typo3" {
		t.Errorf("unexpected url %q", options[0].AuthorizationURL)
	}
}

// Session

func TestLogout(t *testing.T) {
	var got driving.LogoutRequest
	login := &mockLoginService{
		logoutFn: func(ctx context.Context, req driving.LogoutRequest) (*driving.LogoutResponse, error) {
			got = req
			return &driving.LogoutResponse{RedirectURL: "https://login.example.com/logout"}, nil
		},
	}
	s := newTestServer(Config{CookieSecure: true}, Services{Login: login})

	body := bytes.NewBufferString(`{"provider_sign_out":true,"post_logout_redirect":"/bye"}`)
	req := httptest.NewRequest("POST", "/api/v1/auth/logout", body)
	req.AddCookie(&http.Cookie{Name: domain.SessionCookiePrimary, Value: "member-token"})
	req.Header.Set(TenantHeader, "4")
	rr := serve(s, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	want := driving.LogoutRequest{
		Token:              "member-token",
		TenantContextID:    4,
		PostLogoutRedirect: "/bye",
		ProviderSignOut:    true,
	}
	if got != want {
		t.Errorf("expected request %+v, got %+v", want, got)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cleared cookie, got %d", len(cookies))
	}
	if cookies[0].Name != domain.SessionCookiePrimary || cookies[0].MaxAge >= 0 || !cookies[0].Secure {
		t.Errorf("unexpected cookie %+v", cookies[0])
	}

	var resp driving.LogoutResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RedirectURL != "https://login.example.com/logout" {
		t.Errorf("unexpected redirect %q", resp.RedirectURL)
	}
}

func TestLogout_EmptyBody(t *testing.T) {
	s := newTestServer(Config{}, Services{})

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := serve(s, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != domain.SessionCookieAdministrative {
		t.Errorf("expected administrative cookie to be cleared, got %+v", cookies)
	}
}

func TestLogout_RequiresSession(t *testing.T) {
	s := newTestServer(Config{}, Services{})
	rr := serve(s, httptest.NewRequest("POST", "/api/v1/auth/logout", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestGetMe(t *testing.T) {
	auth := tokenValidator(map[string]*domain.AuthContext{
		"member-token": {AccountID: "member-1", Email: "jane@example.com", Surface: domain.SurfacePrimary},
	})
	auth.meFn = func(ctx context.Context, a *domain.AuthContext) (*domain.AccountSummary, error) {
		return &domain.AccountSummary{ID: a.AccountID, Email: a.Email, Surface: a.Surface}, nil
	}
	s := newTestServer(Config{}, Services{Auth: auth})

	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer member-token")
	rr := serve(s, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var summary domain.AccountSummary
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.ID != "member-1" || summary.Email != "jane@example.com" {
		t.Errorf("unexpected summary %+v", summary)
	}
}

// Configuration administration

func adminRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)
	return req
}

func TestAdminRoutes_RequireAdministrator(t *testing.T) {
	s := newTestServer(Config{}, Services{})

	rr := serve(s, httptest.NewRequest("GET", "/api/v1/admin/configs", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/admin/configs", nil)
	req.Header.Set("Authorization", "Bearer member-token")
	rr = serve(s, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for member, got %d", rr.Code)
	}

	rr = serve(s, adminRequest("GET", "/api/v1/admin/configs", ""))
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200 for admin, got %d", rr.Code)
	}
}

func TestListConfigs_PassesPaging(t *testing.T) {
	var page, size int
	config := &mockConfigService{
		listFn: func(ctx context.Context, p, ps int) (*driving.ConfigPage, error) {
			page, size = p, ps
			return &driving.ConfigPage{
				Items: []*domain.OAuthConfigurationSummary{{ID: 1}},
				Total: 1, Page: p, PageSize: ps,
			}, nil
		},
	}
	s := newTestServer(Config{}, Services{Config: config})

	rr := serve(s, adminRequest("GET", "/api/v1/admin/configs?page=2&page_size=5", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if page != 2 || size != 5 {
		t.Errorf("expected page 2 size 5, got %d %d", page, size)
	}
}

func TestListConfigs_RejectsMalformedPaging(t *testing.T) {
	called := false
	config := &mockConfigService{
		listFn: func(ctx context.Context, p, ps int) (*driving.ConfigPage, error) {
			called = true
			return &driving.ConfigPage{}, nil
		},
	}
	s := newTestServer(Config{}, Services{Config: config})

	tests := []struct {
		query   string
		message string
	}{
		{"page=abc", "invalid page"},
		{"page=-1", "invalid page"},
		{"page=2&page_size=ten", "invalid page_size"},
		{"page_size=-5", "invalid page_size"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := serve(s, adminRequest("GET", "/api/v1/admin/configs?"+tt.query, ""))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
			if got := decodeError(t, rr); got != tt.message {
				t.Errorf("expected error %q, got %q", tt.message, got)
			}
		})
	}
	if called {
		t.Error("service must not be called for malformed paging")
	}
}

func TestCreateAndUpdateConfig(t *testing.T) {
	var ids []int64
	config := &mockConfigService{
		saveAdminFn: func(ctx context.Context, id int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error) {
			ids = append(ids, id)
			if req.TenantID == "" {
				return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalidInput)
			}
			return &domain.OAuthConfigurationSummary{ID: 11, TenantID: req.TenantID, HasSecret: req.ClientSecret != ""}, nil
		},
	}
	s := newTestServer(Config{}, Services{Config: config})

	rr := serve(s, adminRequest("POST", "/api/v1/admin/configs", `{"tenant_id":"t","client_id":"c","client_secret":"s"}`))
	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}

	rr = serve(s, adminRequest("PUT", "/api/v1/admin/configs/11", `{"tenant_id":"t"}`))
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	rr = serve(s, adminRequest("PUT", "/api/v1/admin/configs/11", `{}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "tenant_id is required") {
		t.Errorf("expected validation message, got %q", msg)
	}

	rr = serve(s, adminRequest("POST", "/api/v1/admin/configs", `not json`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad body, got %d", rr.Code)
	}

	if len(ids) != 3 || ids[0] != 0 || ids[1] != 11 {
		t.Errorf("unexpected save ids %v", ids)
	}
}

func TestConfigErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"already exists", domain.ErrAlreadyExists, http.StatusConflict},
		{"invalid", fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest},
		{"other", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &mockConfigService{
				getFn: func(ctx context.Context, id int64) (*domain.OAuthConfigurationSummary, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(Config{}, Services{Config: config})
			rr := serve(s, adminRequest("GET", "/api/v1/admin/configs/3", ""))
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestConfigPathIDValidation(t *testing.T) {
	s := newTestServer(Config{}, Services{})
	for _, target := range []string{"/api/v1/admin/configs/abc", "/api/v1/admin/configs/0"} {
		rr := serve(s, adminRequest("GET", target, ""))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rr.Code)
		}
	}
}

func TestDeleteConfig(t *testing.T) {
	var deleted int64
	config := &mockConfigService{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	s := newTestServer(Config{}, Services{Config: config})

	rr := serve(s, adminRequest("DELETE", "/api/v1/admin/configs/8", ""))

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
	if deleted != 8 {
		t.Errorf("expected id 8, got %d", deleted)
	}
}

func TestCloneSecret(t *testing.T) {
	var source, target int64
	config := &mockConfigService{
		cloneFn: func(ctx context.Context, sourceID, targetID int64) error {
			source, target = sourceID, targetID
			return nil
		},
	}
	s := newTestServer(Config{}, Services{Config: config})

	rr := serve(s, adminRequest("POST", "/api/v1/admin/configs/2/clone-secret", `{"source_id":1}`))
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
	if source != 1 || target != 2 {
		t.Errorf("expected clone 1 -> 2, got %d -> %d", source, target)
	}

	rr = serve(s, adminRequest("POST", "/api/v1/admin/configs/2/clone-secret", `{}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without source, got %d", rr.Code)
	}
}

func TestSavePrimaryConfig(t *testing.T) {
	var tenant int64
	config := &mockConfigService{
		savePrimFn: func(ctx context.Context, tenantContextID int64, req driving.SaveConfigRequest) (*domain.OAuthConfigurationSummary, error) {
			tenant = tenantContextID
			return &domain.OAuthConfigurationSummary{ID: 5, TenantContextID: tenantContextID}, nil
		},
	}
	s := newTestServer(Config{}, Services{Config: config})

	rr := serve(s, adminRequest("PUT", "/api/v1/admin/tenants/42/config", `{"tenant_id":"t","client_id":"c"}`))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if tenant != 42 {
		t.Errorf("expected tenant 42, got %d", tenant)
	}
}
