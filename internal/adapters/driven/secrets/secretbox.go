// Package secrets encrypts client secrets at rest.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
)

// Ensure Box implements driven.SecretCipher
var _ driven.SecretCipher = (*Box)(nil)

const (
	nonceSize = 24
	keySize   = 32
)

// Box encrypts secrets with XSalsa20-Poly1305 (NaCl secretbox).
//
// The key is the unkeyed BLAKE2b-256 digest of the server secret and the
// blob format is base64(nonce(24) || box), matching libsodium's
// crypto_secretbox/crypto_generichash so existing rows decrypt unchanged.
type Box struct {
	key        [keySize]byte
	configured bool
}

// NewBox derives the encryption key from serverSecret. An empty secret
// yields a Box whose Encrypt fails and whose Decrypt always returns "".
func NewBox(serverSecret string) *Box {
	if serverSecret == "" {
		return &Box{}
	}
	return &Box{
		key:        blake2b.Sum256([]byte(serverSecret)),
		configured: true,
	}
}

// Encrypt seals plaintext under a fresh random nonce. Encrypt("") is "".
func (b *Box) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if !b.configured {
		return "", domain.ErrNotConfigured
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Empty input, bad base64, a
// short payload or a failed authentication check all yield "".
func (b *Box) Decrypt(blob string) string {
	if blob == "" || !b.configured {
		return ""
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil || len(data) <= nonceSize {
		return ""
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])

	plaintext, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &b.key)
	if !ok {
		return ""
	}
	return string(plaintext)
}
