// Package auth verifies the shared API secret presented by HTTP callers.
package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// KeyVerifier checks a caller-supplied API key against the configured
// secret. A bcrypt hash takes precedence over a plaintext key so the
// plaintext secret never has to live in the environment.
type KeyVerifier struct {
	key     string
	keyHash string
}

func NewKeyVerifier(key, keyHash string) *KeyVerifier {
	return &KeyVerifier{key: key, keyHash: keyHash}
}

// Verify reports whether the candidate matches the configured secret.
// An empty candidate never matches.
func (v *KeyVerifier) Verify(candidate string) bool {
	if candidate == "" {
		return false
	}
	if v.keyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(v.keyHash), []byte(candidate)) == nil
	}
	if v.key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v.key), []byte(candidate)) == 1
}

// HashKey produces a bcrypt hash suitable for API_KEY_HASH.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
