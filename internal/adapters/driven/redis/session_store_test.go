package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

func setupTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	client, mr := setupTestRedis(t)
	return NewSessionStore(client), mr
}

func testSession(id, accountID string) *domain.Session {
	return &domain.Session{
		ID:        id,
		AccountID: accountID,
		Surface:   domain.SurfacePrimary,
		Token:     "token-" + id,
		ExpiresAt: time.Now().Add(24 * time.Hour).Truncate(time.Second),
		CreatedAt: time.Now().Truncate(time.Second),
		UserAgent: "Mozilla/5.0",
		IPAddress: "192.0.2.10",
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	ctx := context.Background()
	session := testSession("s1", "acc-1")

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error saving session: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccountID != "acc-1" || got.Surface != domain.SurfacePrimary || got.Token != "token-s1" {
		t.Errorf("unexpected session: %+v", got)
	}
	if !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("expected ExpiresAt %v, got %v", session.ExpiresAt, got.ExpiresAt)
	}

	byToken, err := store.GetByToken(ctx, "token-s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byToken.ID != "s1" {
		t.Errorf("expected session s1 by token, got %s", byToken.ID)
	}

	if ttl := mr.TTL(sessionPrefix + "s1"); ttl <= 0 || ttl > 24*time.Hour {
		t.Errorf("unexpected session TTL %v", ttl)
	}
	if ok, _ := mr.SIsMember(sessionAccountPrefix+"acc-1", "s1"); !ok {
		t.Error("expected session in account index")
	}
}

func TestSessionStore_SaveExpiredIsSkipped(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	session := testSession("s1", "acc-1")
	session.ExpiresAt = time.Now().Add(-time.Minute)

	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(sessionPrefix + "s1") {
		t.Error("expected expired session not to be stored")
	}
}

func TestSessionStore_NotFound(t *testing.T) {
	store, _ := setupTestSessionStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.GetByToken(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("expected nil deleting missing session, got %v", err)
	}
	if err := store.DeleteByToken(ctx, "missing"); err != nil {
		t.Errorf("expected nil deleting missing token, got %v", err)
	}
}

func TestSessionStore_GetInvalidJSON(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	_ = mr.Set(sessionPrefix+"bad", "{not json")

	if _, err := store.Get(context.Background(), "bad"); err == nil || errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestSessionStore_DeleteRemovesIndexes(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	ctx := context.Background()
	_ = store.Save(ctx, testSession("s1", "acc-1"))

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{sessionPrefix + "s1", sessionTokenPrefix + "token-s1"} {
		if mr.Exists(key) {
			t.Errorf("expected %s removed", key)
		}
	}
	if ok, _ := mr.SIsMember(sessionAccountPrefix+"acc-1", "s1"); ok {
		t.Error("expected session removed from account index")
	}
}

func TestSessionStore_DeleteByToken(t *testing.T) {
	store, _ := setupTestSessionStore(t)
	ctx := context.Background()
	_ = store.Save(ctx, testSession("s1", "acc-1"))

	if err := store.DeleteByToken(ctx, "token-s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected session deleted, got %v", err)
	}
}

func TestSessionStore_DeleteByTokenStaleIndex(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	_ = mr.Set(sessionTokenPrefix+"orphan", "gone")

	if err := store.DeleteByToken(context.Background(), "orphan"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(sessionTokenPrefix + "orphan") {
		t.Error("expected orphan token index removed")
	}
}

func TestSessionStore_DeleteByAccount(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	ctx := context.Background()
	_ = store.Save(ctx, testSession("s1", "acc-1"))
	_ = store.Save(ctx, testSession("s2", "acc-1"))
	_ = store.Save(ctx, testSession("s3", "acc-2"))

	if err := store.DeleteByAccount(ctx, "acc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []string{"s1", "s2"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected %s deleted, got %v", id, err)
		}
	}
	if _, err := store.Get(ctx, "s3"); err != nil {
		t.Errorf("expected other account's session kept, got %v", err)
	}
	if mr.Exists(sessionAccountPrefix + "acc-1") {
		t.Error("expected account index removed")
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	ctx := context.Background()
	session := testSession("s1", "acc-1")
	session.ExpiresAt = time.Now().Add(time.Minute)
	_ = store.Save(ctx, session)

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected session expired, got %v", err)
	}
	if _, err := store.GetByToken(ctx, "token-s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected token index expired, got %v", err)
	}
}

func TestSessionStore_RedisUnavailable(t *testing.T) {
	store, mr := setupTestSessionStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "s1")
	if err == nil || errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected transport error, got %v", err)
	}
}
