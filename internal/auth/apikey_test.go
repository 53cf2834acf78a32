package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKeyReturnsSixtyFourHexChars(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	require.Len(t, key, APIKeyLength*2)
}

func TestHashAPIKeyRoundTripsThroughCompareAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)

	hash, err := HashAPIKey(key)
	require.NoError(t, err)
	require.NotEqual(t, key, hash)

	require.True(t, CompareAPIKey(key, hash))
	require.False(t, CompareAPIKey("wrong-key", hash))
}

func TestGenerateAPIKeyWithMetadataProducesMatchingPair(t *testing.T) {
	meta, err := GenerateAPIKeyWithMetadata()
	require.NoError(t, err)
	require.True(t, CompareAPIKey(meta.PlaintextKey, meta.Hash))
	require.False(t, meta.CreatedAt.IsZero())
}
