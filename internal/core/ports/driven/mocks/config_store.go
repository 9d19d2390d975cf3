package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

var _ driven.OAuthConfigStore = (*MockConfigStore)(nil)

// MockConfigStore is an in-memory OAuthConfigStore for testing.
// Secrets are held in plaintext.
type MockConfigStore struct {
	mu      sync.RWMutex
	configs map[int64]*domain.OAuthConfiguration
	nextID  int64

	// GetErr, when set, is returned by Get and GetByTenantContext
	GetErr error
}

// NewMockConfigStore creates a new MockConfigStore
func NewMockConfigStore() *MockConfigStore {
	return &MockConfigStore{
		configs: make(map[int64]*domain.OAuthConfiguration),
		nextID:  1,
	}
}

func (m *MockConfigStore) Get(ctx context.Context, id int64) (*domain.OAuthConfiguration, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyConfig(m.configs[id]), nil
}

func (m *MockConfigStore) GetByTenantContext(ctx context.Context, tenantContextID int64) (*domain.OAuthConfiguration, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.sortedIDs() {
		if c := m.configs[id]; c.TenantContextID == tenantContextID {
			return copyConfig(c), nil
		}
	}
	return nil, nil
}

func (m *MockConfigStore) ListAdministrative(ctx context.Context, offset, limit int) ([]*domain.OAuthConfiguration, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.OAuthConfiguration
	for _, id := range m.sortedIDs() {
		if c := m.configs[id]; c.TenantContextID == 0 {
			all = append(all, copyConfig(c))
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MockConfigStore) ListEnabledAdministrative(ctx context.Context) ([]*domain.OAuthConfiguration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OAuthConfiguration
	for _, id := range m.sortedIDs() {
		if c := m.configs[id]; c.TenantContextID == 0 && c.Enabled {
			out = append(out, copyConfig(c))
		}
	}
	return out, nil
}

func (m *MockConfigStore) Save(ctx context.Context, cfg *domain.OAuthConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if cfg.ID == 0 {
		cfg.ID = m.nextID
		m.nextID++
		cfg.CreatedAt = now
	} else if cfg.ID >= m.nextID {
		m.nextID = cfg.ID + 1
	}
	cfg.UpdatedAt = now
	stored := copyConfig(cfg)
	if stored.ClientSecret == "" {
		if prev, ok := m.configs[cfg.ID]; ok {
			stored.ClientSecret = prev.ClientSecret
		}
	}
	m.configs[cfg.ID] = stored
	return nil
}

func (m *MockConfigStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.configs, id)
	return nil
}

func (m *MockConfigStore) CloneSecret(ctx context.Context, sourceID, targetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.configs[sourceID]
	if !ok {
		return domain.ErrNotFound
	}
	dst, ok := m.configs[targetID]
	if !ok {
		return domain.ErrNotFound
	}
	dst.ClientSecret = src.ClientSecret
	return nil
}

// Put stores cfg as-is, keeping its ID (for test setup).
func (m *MockConfigStore) Put(cfg *domain.OAuthConfiguration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = copyConfig(cfg)
	if cfg.ID >= m.nextID {
		m.nextID = cfg.ID + 1
	}
}

func (m *MockConfigStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.configs))
	for id := range m.configs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyConfig(c *domain.OAuthConfiguration) *domain.OAuthConfiguration {
	if c == nil {
		return nil
	}
	out := *c
	out.DefaultGroups = append([]string(nil), c.DefaultGroups...)
	return &out
}
