package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/ingest"
	ws "github.com/pcfengzi/monitor-ai-bot/internal/websocket"
)

var streamUpgrader = websocket.Upgrader{
	// The dashboard is expected to be served from an arbitrary origin
	// (local dev server, embedded iframe); the gateway already applies a
	// permissive CORS policy to the HTTP surface, so the upgrade handshake
	// mirrors that rather than introducing a stricter, inconsistent check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler upgrades GET /ws/telemetry connections and registers them
// with the broadcast hub.
type StreamHandler struct {
	hub *ws.Hub
	log zerolog.Logger
}

// NewStreamHandler constructs a StreamHandler backed by hub.
func NewStreamHandler(hub *ws.Hub, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, log: log}
}

// RegisterRoutes wires GET /ws/telemetry onto router.
func (h *StreamHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws/telemetry", h.HandleUpgrade)
}

// HandleUpgrade upgrades the HTTP connection and hands it to the hub.
func (h *StreamHandler) HandleUpgrade(c *gin.Context) {
	conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade telemetry stream connection")
		return
	}
	h.hub.Serve(conn, uuid.NewString())
}

// streamEnvelope is the wire shape pushed to every connected dashboard
// client for each ingested message.
type streamEnvelope struct {
	Type   string      `json:"type"`
	Record interface{} `json:"record"`
}

// BridgeIngestToHub forwards every message the ingest consumer sees to the
// broadcast hub as JSON, so connected dashboards receive telemetry the
// instant it is persisted rather than only on the next poll.
func BridgeIngestToHub(hub *ws.Hub, log zerolog.Logger) func(ingest.Message) {
	return func(m ingest.Message) {
		var envelope streamEnvelope
		switch {
		case m.Log != nil:
			envelope = streamEnvelope{Type: "log", Record: m.Log}
		case m.Metric != nil:
			envelope = streamEnvelope{Type: "metric", Record: m.Metric}
		default:
			return
		}

		payload, err := json.Marshal(envelope)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal telemetry stream envelope")
			return
		}
		hub.Broadcast(payload)
	}
}
