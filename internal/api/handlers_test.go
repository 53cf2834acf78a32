package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pcfengzi/monitor-ai-bot/internal/auth"
	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
)

func newTestStore(t *testing.T) telemetry.Store {
	t.Helper()
	store, err := telemetry.Open(telemetry.Config{Driver: telemetry.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestRouter(t *testing.T, store telemetry.Store) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager, err := auth.NewJWTManager("test-secret-at-least-this-long", "monitor-ai-bot", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	NewHandler(store, zerolog.Nop(), nil).RegisterRoutes(router, RequireBearerToken(manager), nil)
	return router, manager
}

func TestCreateAlertRequiresBearerToken(t *testing.T) {
	store := newTestStore(t)
	router, _ := newTestRouter(t, store)

	body, _ := json.Marshal(map[string]string{"plugin": "cpu-monitor", "title": "high load"})
	req := httptest.NewRequest(http.MethodPost, "/alerts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAlertWithUnknownSeverityDefaultsToInfo(t *testing.T) {
	store := newTestStore(t)
	router, manager := newTestRouter(t, store)

	token, err := manager.GenerateToken("ops-team")
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{
		"plugin":   "cpu-monitor",
		"title":    "high load",
		"severity": "not-a-real-severity",
	})
	req := httptest.NewRequest(http.MethodPost, "/alerts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	alerts, err := store.LatestAlerts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, telemetry.SeverityInfo, alerts[0].Severity)
}

func TestGetLogsReturnsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	router, _ := newTestRouter(t, store)

	base := time.Now().UTC()
	require.NoError(t, store.InsertLog(context.Background(), telemetry.LogEvent{Time: base, Level: telemetry.LogInfo, Message: "first"}))
	require.NoError(t, store.InsertLog(context.Background(), telemetry.LogEvent{Time: base.Add(time.Second), Level: telemetry.LogWarn, Message: "second"}))

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []telemetry.LogEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.Equal(t, "second", resp[0].Message)
}
