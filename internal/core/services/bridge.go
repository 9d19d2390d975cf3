package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

// Ensure Bridge implements AuthBridge
var _ driven.AuthBridge = (*Bridge)(nil)

// BridgeConfig holds configuration for the account/session bridge.
type BridgeConfig struct {
	Accounts     driven.AccountStore
	Sessions     driven.SessionStore
	Auth         driven.AuthAdapter
	SessionTTL   time.Duration // default: 24h
	CookieSecure bool
	Logger       *slog.Logger
}

// Bridge links external identities to local accounts and opens JWT
// sessions delivered as cookies.
type Bridge struct {
	accounts     driven.AccountStore
	sessions     driven.SessionStore
	auth         driven.AuthAdapter
	sessionTTL   time.Duration
	cookieSecure bool
	logger       *slog.Logger
	now          func() time.Time
}

// NewBridge creates a new Bridge.
func NewBridge(cfg BridgeConfig) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Bridge{
		accounts:     cfg.Accounts,
		sessions:     cfg.Sessions,
		auth:         cfg.Auth,
		sessionTTL:   ttl,
		cookieSecure: cfg.CookieSecure,
		logger:       logger,
		now:          time.Now,
	}
}

// FindAccountByEmail returns the account for email in the surface realm.
// Disabled accounts and, on the administrative surface, non-admins are
// reported as not found.
func (b *Bridge) FindAccountByEmail(ctx context.Context, surface domain.Surface, email string) (*domain.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	account, err := b.accounts.GetByEmail(ctx, surface, email)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil || !account.CanSignIn(surface) {
		return nil, nil
	}
	return account, nil
}

// EstablishSession signs a session token, stores the session and returns
// the Set-Cookie header for it.
func (b *Bridge) EstablishSession(ctx context.Context, account *domain.Account, meta domain.SessionMeta) (*domain.SessionArtifacts, error) {
	now := b.now()
	expiresAt := now.Add(b.sessionTTL)
	sessionID := uuid.NewString()

	claims := &domain.TokenClaims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Surface:   account.Surface,
		SessionID: sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}

	token, err := b.auth.GenerateToken(claims)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	session := &domain.Session{
		ID:        sessionID,
		AccountID: account.ID,
		Surface:   account.Surface,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := b.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if err := b.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		b.logger.Warn("failed to update last login", "account_id", account.ID, "error", err)
	}

	cookie := &http.Cookie{
		Name:     domain.SessionCookieName(account.Surface),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(b.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   b.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	header := make(http.Header)
	header.Add("Set-Cookie", cookie.String())

	return &domain.SessionArtifacts{Session: session, Header: header}, nil
}
