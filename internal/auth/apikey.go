package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// APIKeyLength is the length of generated API keys in bytes.
	APIKeyLength = 32

	// BcryptCost is the cost factor used to hash generated API keys.
	BcryptCost = 12
)

// GenerateAPIKey returns a cryptographically random, hex-encoded API key
// suitable for handing to an operator once and never storing in plaintext.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, APIKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate API key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashAPIKey bcrypt-hashes key for storage; the plaintext value is never
// kept once this returns.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash API key: %w", err)
	}
	return string(hash), nil
}

// CompareAPIKey reports whether key matches the bcrypt hash produced by
// HashAPIKey.
func CompareAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// APIKeyMetadata pairs a freshly generated plaintext key with its hash, for
// the one-time moment a caller needs both: the plaintext to hand to the
// operator and the hash to keep.
type APIKeyMetadata struct {
	PlaintextKey string
	Hash         string
	CreatedAt    time.Time
}

// GenerateAPIKeyWithMetadata generates a new API key and its bcrypt hash
// together.
func GenerateAPIKeyWithMetadata() (APIKeyMetadata, error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return APIKeyMetadata{}, err
	}
	hash, err := HashAPIKey(key)
	if err != nil {
		return APIKeyMetadata{}, err
	}
	return APIKeyMetadata{PlaintextKey: key, Hash: hash, CreatedAt: time.Now().UTC()}, nil
}
