package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/auth"
)

// AdminHandler exposes operator-only maintenance endpoints gated by a
// time-based one-time password rather than a bearer token, matching the
// platform's existing TOTP-based second factor for sensitive actions.
type AdminHandler struct {
	manager    *auth.JWTManager
	totpSecret string
	log        zerolog.Logger
}

// NewAdminHandler constructs an AdminHandler. totpSecret is the base32
// secret an operator's authenticator app was provisioned with; an empty
// secret disables the rotate-key route entirely rather than accepting any
// code.
func NewAdminHandler(manager *auth.JWTManager, totpSecret string, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{manager: manager, totpSecret: totpSecret, log: log}
}

// RegisterRoutes wires the admin routes onto router. Call only once a
// TOTP secret has been configured; RotateKey itself still double-checks and
// refuses to run without one.
func (h *AdminHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/admin/rotate-key", h.RotateKey)
}

type rotateKeyRequest struct {
	Code string `json:"code" binding:"required"`
}

type rotateKeyResponse struct {
	Secret  string `json:"secret"`
	Message string `json:"message"`
}

// RotateKey replaces the JWT signing secret with a freshly generated random
// value, after verifying the caller presented a valid TOTP code for the
// configured admin secret. The new secret is returned exactly once in the
// response body — it is never persisted or logged, so the caller is
// responsible for distributing it to dependents before their existing
// tokens expire.
//
// Endpoint: POST /admin/rotate-key
func (h *AdminHandler) RotateKey(c *gin.Context) {
	if h.totpSecret == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin rotate-key is not configured"})
		return
	}

	var req rotateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !totp.Validate(req.Code, h.totpSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid verification code"})
		return
	}

	newSecret, err := generateSecret()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate rotated signing secret")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate new secret"})
		return
	}

	if err := h.manager.RotateSecret(newSecret); err != nil {
		h.log.Error().Err(err).Msg("failed to rotate signing secret")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate key"})
		return
	}

	h.log.Warn().Msg("JWT signing secret rotated via admin endpoint; existing tokens are now invalid")
	c.JSON(http.StatusOK, rotateKeyResponse{
		Secret:  newSecret,
		Message: "signing secret rotated; reissue tokens to dependents",
	})
}

// generateSecret returns a fresh 32-byte hex-encoded random secret.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
