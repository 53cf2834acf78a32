package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pcfengzi/monitor-ai-bot/internal/auth"
)

func TestGatewayRejectsRequestsWithoutAPIKeyWhenConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newMemoryStore(t)
	g := New(store, zerolog.Nop())
	g.SetAPIKeyHashes([]string{"$2a$12$not-a-real-hash"})

	router := gin.New()
	g.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/plugin-api/anything/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGatewayAcceptsMatchingAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	meta, err := auth.GenerateAPIKeyWithMetadata()
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	store := newMemoryStore(t)
	require.NoError(t, store.UpsertPluginAPI(context.Background(), "api-monitor", upstream.URL))

	g := New(store, zerolog.Nop())
	g.SetAPIKeyHashes([]string{meta.Hash})

	router := gin.New()
	g.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/plugin-api/api-monitor/status", nil)
	req.Header.Set(APIKeyHeader, meta.PlaintextKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
