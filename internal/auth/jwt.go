// Package auth provides the bearer-token authentication used to gate
// alert-creation requests on the read API (internal/api).
//
// This is a deliberately trimmed translation of the original session-backed
// JWT manager: no refresh tokens, no session store, no per-session
// invalidation. The monitoring host has no login flow of its own — tokens
// are issued out of band (an operator's secrets manager, a CI job) and
// simply need to be verified on the way in.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret is returned by NewJWTManager when no signing secret is
// configured; a host without MONITOR_AI_JWT_SECRET set must refuse to start
// rather than silently accept unsigned requests.
var ErrMissingSecret = errors.New("auth: signing secret must not be empty")

// Claims is the token payload used to authorize alert-creation requests.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager issues and validates HMAC-SHA256 signed bearer tokens.
type JWTManager struct {
	mu       sync.RWMutex
	secret   []byte
	issuer   string
	duration time.Duration
}

// NewJWTManager constructs a JWTManager. duration defaults to 24h when <= 0,
// matching the original's default token lifetime.
func NewJWTManager(secret, issuer string, duration time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, duration: duration}, nil
}

// GenerateToken issues a signed token for subject (typically an operator or
// service-account name).
func (m *JWTManager) GenerateToken(subject string) (string, error) {
	m.mu.RLock()
	secret, issuer, duration := m.secret, m.issuer, m.duration
	m.mu.RUnlock()

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies tokenString, rejecting anything not
// signed with HMAC (algorithm-substitution defense) or expired/not-yet-valid.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	m.mu.RLock()
	secret, issuer := m.secret, m.issuer
	m.mu.RUnlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("validate token: token is not valid")
	}
	return claims, nil
}

// RotateSecret replaces the signing secret used for future GenerateToken and
// ValidateToken calls. Tokens signed under the previous secret stop
// validating immediately — callers must reissue tokens to dependents after
// rotating.
func (m *JWTManager) RotateSecret(newSecret string) error {
	if newSecret == "" {
		return ErrMissingSecret
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = []byte(newSecret)
	return nil
}
