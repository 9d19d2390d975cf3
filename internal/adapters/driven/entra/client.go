// Package entra talks to Microsoft Entra ID: the v2.0 authorize and token
// endpoints, and the Graph /me profile.
package entra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
	"github.com/custodia-labs/entra-login/internal/metrics"
)

// Ensure Client implements the interface.
var _ driven.IdentityProvider = (*Client)(nil)

const (
	DefaultAuthorityHost = "https://login.microsoftonline.com"
	DefaultGraphBaseURL  = "https://graph.microsoft.com/v1.0"
	DefaultHTTPTimeout   = 10 * time.Second

	// maxErrorBody caps how much of a failed response ends up in logs.
	maxErrorBody = 512
)

// Scopes requested on both the authorize and the token request.
var Scopes = []string{"openid", "profile", "User.Read"}

// Exchange steps reported in domain.ExchangeError.
const (
	StepToken   = "token"
	StepProfile = "profile"
)

// ClientConfig configures the Entra ID client.
type ClientConfig struct {
	// AuthorityHost is the login host, without a trailing slash.
	AuthorityHost string
	// GraphBaseURL is the Graph API root used for /me.
	GraphBaseURL string
	// HTTPTimeout bounds each outbound call. There is no retry.
	HTTPTimeout time.Duration
	// Metrics is optional.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Client implements driven.IdentityProvider against Entra ID.
type Client struct {
	authorityHost string
	graphBaseURL  string
	httpClient    *http.Client
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewClient creates a new Entra ID client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.AuthorityHost == "" {
		cfg.AuthorityHost = DefaultAuthorityHost
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = DefaultGraphBaseURL
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		authorityHost: strings.TrimRight(cfg.AuthorityHost, "/"),
		graphBaseURL:  strings.TrimRight(cfg.GraphBaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.HTTPTimeout},
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// oauthConfig builds the x/oauth2 view of a stored configuration.
func (c *Client) oauthConfig(cfg *domain.OAuthConfiguration, redirectURI string) *oauth2.Config {
	base := c.authorityHost + "/" + url.PathEscape(cfg.TenantID) + "/oauth2/v2.0"
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/authorize",
			TokenURL:  base + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizeURL builds the authorize URL for the surface's redirect URI.
func (c *Client) AuthorizeURL(cfg *domain.OAuthConfiguration, surface domain.Surface, state string) string {
	return c.oauthConfig(cfg, cfg.RedirectURI(surface)).AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_mode", "query"),
	)
}

// LogoutURL builds the Entra ID sign-out URL.
func (c *Client) LogoutURL(cfg *domain.OAuthConfiguration, postLogoutRedirect string) string {
	u := c.authorityHost + "/" + url.PathEscape(cfg.TenantID) + "/oauth2/v2.0/logout"
	if postLogoutRedirect == "" {
		return u
	}
	return u + "?" + url.Values{"post_logout_redirect_uri": {postLogoutRedirect}}.Encode()
}

// ExchangeCode redeems the code at the token endpoint and reads the
// signed-in user's Graph profile.
func (c *Client) ExchangeCode(ctx context.Context, cfg *domain.OAuthConfiguration, code, redirectURI string) (identity *domain.ExternalIdentity, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveExchange(time.Since(start).Seconds(), err == nil)
	}()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauthConfig(cfg, redirectURI).Exchange(ctx, code,
		oauth2.SetAuthURLParam("scope", strings.Join(Scopes, " ")),
	)
	if err != nil {
		c.logger.Warn("token exchange failed",
			"tenant_id", cfg.TenantID,
			"error", describeTokenError(err))
		return nil, &domain.ExchangeError{Step: StepToken, Err: err}
	}

	profile, err := c.fetchProfile(ctx, token)
	if err != nil {
		c.logger.Warn("profile fetch failed", "tenant_id", cfg.TenantID, "error", err)
		return nil, &domain.ExchangeError{Step: StepProfile, Err: err}
	}

	email := profile.Mail
	if email == "" {
		email = profile.UserPrincipalName
	}
	if email == "" {
		return nil, &domain.ExchangeError{Step: StepProfile, Err: fmt.Errorf("profile has no mail or userPrincipalName")}
	}

	return &domain.ExternalIdentity{
		Email:       email,
		DisplayName: profile.DisplayName,
		GivenName:   profile.GivenName,
		Surname:     profile.Surname,
	}, nil
}

// graphProfile is the subset of the Graph user resource we read.
type graphProfile struct {
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
	GivenName         string `json:"givenName"`
	Surname           string `json:"surname"`
}

func (c *Client) fetchProfile(ctx context.Context, token *oauth2.Token) (*graphProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.graphBaseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("profile request returned %d: %s", resp.StatusCode, string(body))
	}

	var profile graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// describeTokenError keeps the provider's status and error code but never
// the raw request.
func describeTokenError(err error) string {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return err.Error()
	}
	if re.ErrorCode != "" {
		return fmt.Sprintf("status %d %s: %s", re.Response.StatusCode, re.ErrorCode, re.ErrorDescription)
	}
	return fmt.Sprintf("status %d", re.Response.StatusCode)
}
