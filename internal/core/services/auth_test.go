package services

import (
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven/mocks"
)

func newTestAuthService() (*mocks.MockAccountStore, *mocks.MockSessionStore, *mocks.MockAuthAdapter, *authService) {
	accountStore := mocks.NewMockAccountStore()
	sessionStore := mocks.NewMockSessionStore()
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(accountStore, sessionStore, authAdapter).(*authService)
	return accountStore, sessionStore, authAdapter, svc
}

func issueToken(t *testing.T, adapter *mocks.MockAuthAdapter, sessions *mocks.MockSessionStore, expiresAt time.Time, store bool) string {
	t.Helper()
	token, err := adapter.GenerateToken(&domain.TokenClaims{
		AccountID: "acc-1",
		Email:     "jane@example.com",
		Role:      domain.RoleAdmin,
		Surface:   domain.SurfaceAdministrative,
		SessionID: "sess-1",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if store {
		_ = sessions.Save(context.Background(), &domain.Session{ID: "sess-1", AccountID: "acc-1", Token: token, ExpiresAt: expiresAt})
	}
	return token
}

func TestAuthService_ValidateToken(t *testing.T) {
	_, sessions, adapter, svc := newTestAuthService()

	token := issueToken(t, adapter, sessions, time.Now().Add(time.Hour), true)

	ctx, err := svc.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.AccountID != "acc-1" || ctx.SessionID != "sess-1" {
		t.Errorf("unexpected auth context: %+v", ctx)
	}
	if !ctx.IsAdmin() {
		t.Error("expected admin auth context")
	}
}

func TestAuthService_ValidateTokenErrors(t *testing.T) {
	tests := []struct {
		name    string
		token   func(adapter *mocks.MockAuthAdapter, sessions *mocks.MockSessionStore) string
		wantErr error
	}{
		{
			name:    "empty token",
			token:   func(*mocks.MockAuthAdapter, *mocks.MockSessionStore) string { return "" },
			wantErr: domain.ErrTokenInvalid,
		},
		{
			name:    "garbage token",
			token:   func(*mocks.MockAuthAdapter, *mocks.MockSessionStore) string { return "!!not-a-token" },
			wantErr: domain.ErrTokenInvalid,
		},
		{
			name: "expired token",
			token: func(a *mocks.MockAuthAdapter, s *mocks.MockSessionStore) string {
				return issueToken(t, a, s, time.Now().Add(-time.Hour), true)
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name: "session deleted",
			token: func(a *mocks.MockAuthAdapter, s *mocks.MockSessionStore) string {
				return issueToken(t, a, s, time.Now().Add(time.Hour), false)
			},
			wantErr: domain.ErrSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sessions, adapter, svc := newTestAuthService()
			_, err := svc.ValidateToken(context.Background(), tt.token(adapter, sessions))
			if err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthService_Me(t *testing.T) {
	accounts, _, _, svc := newTestAuthService()
	_ = accounts.Save(context.Background(), &domain.Account{ID: "acc-1", Email: "jane@example.com", PasswordHash: "h"})

	summary, err := svc.Me(context.Background(), &domain.AuthContext{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Email != "jane@example.com" {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if _, err := svc.Me(context.Background(), &domain.AuthContext{AccountID: "missing"}); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Me(context.Background(), nil); err != domain.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
