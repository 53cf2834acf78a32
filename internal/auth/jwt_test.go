package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewJWTManagerRejectsEmptySecret(t *testing.T) {
	_, err := NewJWTManager("", "issuer", time.Hour)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestGenerateAndValidateTokenRoundTrips(t *testing.T) {
	manager, err := NewJWTManager("a-sufficiently-long-secret", "monitor-ai-bot", time.Hour)
	require.NoError(t, err)

	token, err := manager.GenerateToken("ops-team")
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "ops-team", claims.Subject)
}

func TestRotateSecretInvalidatesTokensSignedUnderThePreviousSecret(t *testing.T) {
	manager, err := NewJWTManager("original-secret", "monitor-ai-bot", time.Hour)
	require.NoError(t, err)

	token, err := manager.GenerateToken("ops-team")
	require.NoError(t, err)

	require.NoError(t, manager.RotateSecret("replacement-secret"))

	_, err = manager.ValidateToken(token)
	require.Error(t, err)

	newToken, err := manager.GenerateToken("ops-team")
	require.NoError(t, err)
	_, err = manager.ValidateToken(newToken)
	require.NoError(t, err)
}

func TestRotateSecretRejectsEmptyValue(t *testing.T) {
	manager, err := NewJWTManager("original-secret", "monitor-ai-bot", time.Hour)
	require.NoError(t, err)

	require.ErrorIs(t, manager.RotateSecret(""), ErrMissingSecret)
}
