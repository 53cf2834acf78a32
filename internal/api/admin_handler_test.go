package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pcfengzi/monitor-ai-bot/internal/auth"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func newAdminTestRouter(t *testing.T, totpSecret string) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager, err := auth.NewJWTManager("original-secret-at-least-this-long", "monitor-ai-bot", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	NewAdminHandler(manager, totpSecret, zerolog.Nop()).RegisterRoutes(router)
	return router, manager
}

func postRotateKey(t *testing.T, router *gin.Engine, code string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"code": code})
	req := httptest.NewRequest(http.MethodPost, "/admin/rotate-key", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRotateKeyIsDisabledWithoutConfiguredSecret(t *testing.T) {
	router, _ := newAdminTestRouter(t, "")
	rec := postRotateKey(t, router, "000000")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRotateKeyRejectsInvalidCode(t *testing.T) {
	router, _ := newAdminTestRouter(t, testTOTPSecret)
	rec := postRotateKey(t, router, "000000")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRotateKeyWithValidCodeReplacesSigningSecretAndInvalidatesOldTokens(t *testing.T) {
	router, manager := newAdminTestRouter(t, testTOTPSecret)

	oldToken, err := manager.GenerateToken("ops-team")
	require.NoError(t, err)

	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	require.NoError(t, err)

	rec := postRotateKey(t, router, code)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rotateKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Secret)

	_, err = manager.ValidateToken(oldToken)
	require.Error(t, err)
}
