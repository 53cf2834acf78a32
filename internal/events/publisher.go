package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Config configures a Publisher's NATS connection.
type Config struct {
	URL      string
	User     string
	Password string
}

// Publisher fans raised alerts out to NATS. When cfg.URL is empty it
// degrades to a disabled no-op publisher rather than failing construction —
// alert fan-out is an optional enrichment of the read API, not a
// precondition for it.
type Publisher struct {
	conn    *nats.Conn
	log     zerolog.Logger
	enabled bool
}

// NewPublisher connects to NATS per cfg, or returns a disabled Publisher
// when cfg.URL is empty.
func NewPublisher(cfg Config, log zerolog.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		log.Info().Msg("events: NATS URL not configured, alert fan-out disabled")
		return &Publisher{enabled: false, log: log}, nil
	}

	opts := []nats.Option{
		nats.Name("monitor-ai-host"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("events: NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("events: NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("events: NATS error")
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}

	return &Publisher{conn: conn, log: log, enabled: true}, nil
}

// Close drains and closes the underlying NATS connection.
func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	return p.conn.Drain()
}

// PublishAlertRaised fans event out to SubjectAlertRaised. A disabled
// publisher silently no-ops, matching the original's "agents work fine
// without the message broker" posture.
func (p *Publisher) PublishAlertRaised(event AlertRaisedEvent) error {
	if !p.enabled {
		return nil
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}

	if err := p.conn.Publish(SubjectAlertRaised, data); err != nil {
		return fmt.Errorf("publish to %s: %w", SubjectAlertRaised, err)
	}
	return nil
}
