package mocks

import (
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

var _ driven.StateCodec = (*MockStateCodec)(nil)

// MockStateCodec hands out sequential opaque tokens and remembers their payloads.
type MockStateCodec struct {
	mu     sync.Mutex
	states map[string]domain.SignedState
	seq    int

	TTL time.Duration
	// CreateErr, when set, is returned by Create
	CreateErr error
}

// NewMockStateCodec creates a codec with a 10 minute TTL
func NewMockStateCodec() *MockStateCodec {
	return &MockStateCodec{
		states: make(map[string]domain.SignedState),
		TTL:    10 * time.Minute,
	}
}

func (m *MockStateCodec) Create(state domain.SignedState) (string, *domain.SignedState, error) {
	if m.CreateErr != nil {
		return "", nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	state.Nonce = fmt.Sprintf("nonce-%d", m.seq)
	if state.ExpiresAt.IsZero() {
		state.ExpiresAt = time.Now().Add(m.TTL)
	}
	token := fmt.Sprintf("state-%d", m.seq)
	m.states[token] = state
	return token, &state, nil
}

func (m *MockStateCodec) Verify(token string) *domain.SignedState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[token]
	if !ok || state.IsExpired(time.Now()) {
		return nil
	}
	return &state
}
