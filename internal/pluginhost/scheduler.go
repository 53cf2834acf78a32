package pluginhost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/abi"
	"github.com/pcfengzi/monitor-ai-bot/internal/ingest"
	"github.com/pcfengzi/monitor-ai-bot/internal/pluginbridge"
	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
)

// DefaultTickInterval matches §4.5's default 5 second cadence.
const DefaultTickInterval = 5 * time.Second

// HostVersion is embedded into every PluginContext for future compatibility
// gating (§3 PluginContext.HostVersion).
const HostVersion = 1

// Scheduler drives the fixed-interval tick loop described in §4.5: on each
// tick it discovers dynamic plugin artifacts, merges them with the built-in
// registry, and invokes every plugin exactly once, serially, on the tick
// goroutine.
type Scheduler struct {
	discovery *Discovery
	builtins  map[string]PluginHandler
	store     telemetry.Store
	ingest    *ingest.Channel
	log       zerolog.Logger
	interval  time.Duration

	registeredMu sync.Mutex
	registered   map[string]struct{} // per-process dedup set for plugin_apis upserts (§3, §8 idempotence)
}

// NewScheduler constructs a Scheduler. builtins is typically
// pluginhost.GlobalRegistry().All(), called once at startup so every tick
// reuses the same instances (matching the teacher's runtime holding one
// long-lived handler per plugin rather than reconstructing per tick).
func NewScheduler(discovery *Discovery, builtins map[string]PluginHandler, store telemetry.Store, ch *ingest.Channel, log zerolog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		discovery:  discovery,
		builtins:   builtins,
		store:      store,
		ingest:     ch,
		log:        log,
		interval:   interval,
		registered: make(map[string]struct{}),
	}
}

// Run blocks ticking on Scheduler.interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs exactly one scheduler pass: built-in plugins first (stable
// map iteration order is not guaranteed by Go, but built-ins have no
// filesystem tie-break to honor), then dynamically discovered artifacts in
// directory-listing order.
func (s *Scheduler) Tick(ctx context.Context) {
	for name, handler := range s.builtins {
		s.invoke(ctx, name, handler)
	}

	for _, path := range s.discovery.Discover() {
		handler, err := s.discovery.Load(path)
		if err != nil {
			s.log.Warn().Str("path", path).Err(err).Msg("failed to load plugin artifact, skipping this tick")
			continue
		}
		meta := handler.Meta()
		if !meta.Valid() {
			s.log.Warn().Str("path", path).Msg("plugin metadata missing non-empty name, skipping")
			continue
		}
		s.invoke(ctx, meta.Name, handler)
	}
}

func (s *Scheduler) invoke(ctx context.Context, name string, handler PluginHandler) {
	meta := handler.Meta()
	if !meta.Valid() {
		s.log.Warn().Str("plugin", name).Msg("plugin metadata missing non-empty name, skipping")
		return
	}

	if info, ok := handler.APIInfo(); ok {
		s.registerAPI(ctx, meta.Name, info)
	}

	pluginbridge.SetCurrentPluginTag(meta.Name)
	defer pluginbridge.ClearCurrentPluginTag()

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Str("plugin", meta.Name).Interface("panic", r).
					Msg("plugin panicked during invocation; host continuing to next plugin")
			}
		}()

		pctx := pluginbridge.NewContext(HostVersion, s.ingest, s.log)
		handler.RunWithCtx(pctx)
	}()
}

func (s *Scheduler) registerAPI(ctx context.Context, name string, info abi.PluginAPIInfo) {
	s.registeredMu.Lock()
	_, already := s.registered[name]
	if !already {
		s.registered[name] = struct{}{}
	}
	s.registeredMu.Unlock()

	if already {
		return
	}

	baseURL := fmt.Sprintf("http://127.0.0.1:%d%s", info.Port, info.Prefix)
	if err := s.store.UpsertPluginAPI(ctx, name, baseURL); err != nil {
		s.log.Error().Str("plugin", name).Err(err).Msg("failed to persist plugin API registration")
	}
}
