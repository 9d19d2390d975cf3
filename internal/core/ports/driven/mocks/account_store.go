package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

var _ driven.AccountStore = (*MockAccountStore)(nil)

// MockAccountStore is an in-memory AccountStore for testing
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	// SaveErr, when set, is returned by Save
	SaveErr error
}

// NewMockAccountStore creates a new MockAccountStore
func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountStore) Save(ctx context.Context, account *domain.Account) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[id], nil
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, surface domain.Surface, email string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.Surface == surface && strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *MockAccountStore) List(ctx context.Context, surface domain.Surface) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Account
	for _, a := range m.accounts {
		if a.Surface == surface {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAccountStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *MockAccountStore) UpdateLastLogin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	a.LastLoginAt = &now
	return nil
}

// Count returns the number of stored accounts
func (m *MockAccountStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
