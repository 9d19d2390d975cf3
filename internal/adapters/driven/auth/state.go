package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

// Ensure StateCodec implements driven.StateCodec
var _ driven.StateCodec = (*StateCodec)(nil)

// DefaultStateTTL bounds how long a sign-in may sit at the provider.
const DefaultStateTTL = 10 * time.Minute

// StateCodec signs the OAuth state parameter with HMAC-SHA256.
//
// Token layout: base64(hex(hmac(json)) + "|" + json). Tokens issued by
// earlier deployments sharing the same key verify unchanged.
type StateCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// StateOption configures a StateCodec.
type StateOption func(*StateCodec)

// WithStateTTL overrides DefaultStateTTL.
func WithStateTTL(ttl time.Duration) StateOption {
	return func(c *StateCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) StateOption {
	return func(c *StateCodec) { c.now = now }
}

// NewStateCodec creates a codec keyed by the server secret. An empty key
// is allowed: Create then reports ErrNotConfigured and Verify rejects all.
func NewStateCodec(serverSecret string, opts ...StateOption) *StateCodec {
	c := &StateCodec{
		key: []byte(serverSecret),
		ttl: DefaultStateTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create fills in a fresh nonce and the expiry and returns the signed token.
func (c *StateCodec) Create(state domain.SignedState) (string, *domain.SignedState, error) {
	if len(c.key) == 0 {
		return "", nil, domain.ErrNotConfigured
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, fmt.Errorf("generate nonce: %w", err)
	}
	state.Nonce = hex.EncodeToString(nonce)
	state.ExpiresAt = time.Unix(c.now().Add(c.ttl).Unix(), 0)

	payload, err := json.Marshal(state)
	if err != nil {
		return "", nil, fmt.Errorf("marshal state: %w", err)
	}

	signed := make([]byte, 0, sha256.Size*2+1+len(payload))
	signed = append(signed, c.sign(payload)...)
	signed = append(signed, '|')
	signed = append(signed, payload...)

	return base64.StdEncoding.EncodeToString(signed), &state, nil
}

// Verify returns the payload of an authentic, unexpired token and nil for
// anything else.
func (c *StateCodec) Verify(token string) *domain.SignedState {
	if len(c.key) == 0 || token == "" {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil
	}
	signature, payload, found := bytes.Cut(decoded, []byte{'|'})
	if !found {
		return nil
	}
	if !hmac.Equal(signature, c.sign(payload)) {
		return nil
	}

	var state domain.SignedState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil
	}
	if state.IsExpired(c.now()) {
		return nil
	}
	return &state
}

// sign returns the lowercase hex HMAC-SHA256 of payload.
func (c *StateCodec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	sum := mac.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
