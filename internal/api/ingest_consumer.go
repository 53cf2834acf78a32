package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/ingest"
	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
)

// insertTimeout bounds how long a single store write may take before the
// ingest consumer moves on to the next queued message; a stuck backend
// should not stall the whole telemetry pipeline.
const insertTimeout = 2 * time.Second

// NewIngestConsumer returns the ingest.Channel.Run handler that persists
// every accepted message to store before handing it to next (typically
// BridgeIngestToHub). Persisting first means a disconnected or slow
// WebSocket client never affects what gets written to the telemetry store.
func NewIngestConsumer(store telemetry.Store, log zerolog.Logger, next func(ingest.Message)) func(ingest.Message) {
	return func(m ingest.Message) {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		defer cancel()

		switch {
		case m.Log != nil:
			if err := store.InsertLog(ctx, *m.Log); err != nil {
				log.Error().Err(err).Msg("failed to persist log event")
			}
		case m.Metric != nil:
			if err := store.InsertMetric(ctx, *m.Metric); err != nil {
				log.Error().Err(err).Msg("failed to persist metric")
			}
		}

		if next != nil {
			next(m)
		}
	}
}
