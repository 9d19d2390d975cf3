package driven

// SecretCipher encrypts client secrets at rest.
type SecretCipher interface {
	// Encrypt returns an opaque blob for plaintext. Encrypt("") returns "".
	Encrypt(plaintext string) (string, error)

	// Decrypt reverses Encrypt. Any failure yields "", which callers treat
	// as "no secret".
	Decrypt(blob string) string
}
