// Package api implements the read-only HTTP surface over ingested
// telemetry: GET /logs, /metrics, /alerts and POST /alerts.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/cache"
	"github.com/pcfengzi/monitor-ai-bot/internal/events"
	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
)

const (
	// defaultLogsLimit is the GET /logs row count when no limit is given;
	// defaultSeriesLimit is the same for GET /metrics and GET /alerts.
	defaultLogsLimit   = 100
	defaultSeriesLimit = 200
	maxLimit           = 1000

	// readCacheTTL bounds how stale a cached /logs, /metrics, or /alerts
	// response may be. Short enough that a monitoring dashboard still feels
	// live, long enough to absorb a burst of polling clients.
	readCacheTTL = 5 * time.Second
)

// Handler serves the telemetry read/write API.
type Handler struct {
	store     telemetry.Store
	log       zerolog.Logger
	publisher *events.Publisher
}

// NewHandler constructs a Handler backed by store. publisher may be nil, in
// which case newly created alerts are persisted but not fanned out to NATS.
func NewHandler(store telemetry.Store, log zerolog.Logger, publisher *events.Publisher) *Handler {
	return &Handler{store: store, log: log, publisher: publisher}
}

// RegisterRoutes wires the read-API routes onto router. requireAuth gates
// POST /alerts only — the GET endpoints are intentionally open, matching
// the original's read-only dashboard surface. When readCache is non-nil and
// enabled, GET responses are cached for readCacheTTL to absorb dashboard
// polling load; a disabled or nil cache degrades to direct store reads.
func (h *Handler) RegisterRoutes(router gin.IRouter, requireAuth gin.HandlerFunc, readCache *cache.Cache) {
	if readCache != nil {
		router.Use(cache.CacheMiddleware(readCache, readCacheTTL))
	}

	router.GET("/logs", h.GetLogs)
	router.GET("/metrics", h.GetMetrics)
	router.GET("/alerts", h.GetAlerts)
	router.POST("/alerts", requireAuth, h.CreateAlert)
}

func parseLimit(c *gin.Context, defaultLimit int) int {
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// GetLogs returns the most recently ingested log events, newest first, as a
// JSON array. A store read failure is logged and answered with an empty array.
//
// Endpoint: GET /logs?limit=100
func (h *Handler) GetLogs(c *gin.Context) {
	logs, err := h.store.LatestLogs(c.Request.Context(), parseLimit(c, defaultLogsLimit))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read logs")
	}
	if logs == nil {
		logs = []telemetry.LogEvent{}
	}
	c.JSON(http.StatusOK, logs)
}

// GetMetrics returns the most recently ingested metric samples, newest first,
// as a JSON array. A store read failure is logged and answered with an empty
// array.
//
// Endpoint: GET /metrics?limit=200
func (h *Handler) GetMetrics(c *gin.Context) {
	metrics, err := h.store.LatestMetrics(c.Request.Context(), parseLimit(c, defaultSeriesLimit))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read metrics")
	}
	if metrics == nil {
		metrics = []telemetry.Metric{}
	}
	c.JSON(http.StatusOK, metrics)
}

// GetAlerts returns the most recently raised alerts, newest first, as a JSON
// array. A store read failure is logged and answered with an empty array.
//
// Endpoint: GET /alerts?limit=200
func (h *Handler) GetAlerts(c *gin.Context) {
	alerts, err := h.store.LatestAlerts(c.Request.Context(), parseLimit(c, defaultSeriesLimit))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read alerts")
	}
	if alerts == nil {
		alerts = []telemetry.AlertEvent{}
	}
	c.JSON(http.StatusOK, alerts)
}

// createAlertRequest is the POST /alerts request body.
type createAlertRequest struct {
	Plugin     string `json:"plugin" binding:"required"`
	MetricName string `json:"metric_name"`
	Severity   string `json:"severity"`
	Title      string `json:"title" binding:"required"`
	Message    string `json:"message"`
}

// CreateAlert records an operator- or external-system-raised alert.
// Unrecognized severity strings default to "Info" rather than rejecting the
// request, matching telemetry.ParseAlertSeverity's lenient-default behavior.
//
// Endpoint: POST /alerts (requires a bearer token)
func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := telemetry.AlertEvent{
		Time:       time.Now().UTC(),
		Plugin:     req.Plugin,
		MetricName: req.MetricName,
		Severity:   telemetry.ParseAlertSeverity(req.Severity),
		Title:      req.Title,
		Message:    req.Message,
		Tags:       map[string]string{},
	}

	if err := h.store.InsertAlert(c.Request.Context(), event); err != nil {
		h.log.Error().Err(err).Msg("failed to persist alert")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist alert"})
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishAlertRaised(events.AlertRaisedEvent{
			Plugin:     event.Plugin,
			MetricName: event.MetricName,
			Severity:   string(event.Severity),
			Title:      event.Title,
			Message:    event.Message,
		}); err != nil {
			h.log.Warn().Err(err).Msg("failed to publish alert event")
		}
	}

	c.JSON(http.StatusOK, event)
}
