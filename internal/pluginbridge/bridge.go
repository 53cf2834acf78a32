// Package pluginbridge wires the host-exported log/metric bridges (C4) into
// a fresh PluginContext for each tick-loop invocation, and owns
// CurrentPluginTag, the package-level attribution variable described in
// SPEC_FULL.md §3/§9. Go has no native thread-local storage; because plugin
// invocation within one tick is serial and single-goroutine (§5), a single
// package-level string reproduces the original's thread-local semantics for
// the invoking goroutine and degrades to a stale/absent value for goroutines
// a plugin spawns that outlive the call, which is exactly the tolerance
// §4.4 requires.
package pluginbridge

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/abi"
	"github.com/pcfengzi/monitor-ai-bot/internal/ingest"
	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
)

var tagMu sync.RWMutex
var currentPluginTag string

// SetCurrentPluginTag is called by the tick loop immediately before invoking
// a plugin's entry point.
func SetCurrentPluginTag(name string) {
	tagMu.Lock()
	currentPluginTag = name
	tagMu.Unlock()
}

// ClearCurrentPluginTag is called by the tick loop immediately after a
// plugin's entry point returns.
func ClearCurrentPluginTag() {
	tagMu.Lock()
	currentPluginTag = ""
	tagMu.Unlock()
}

// CurrentPluginTag returns the plugin name set by the tick loop, or "" if
// none is set (no invocation in progress, or the reader is a goroutine the
// plugin spawned after RunWithCtx already returned).
func CurrentPluginTag() string {
	tagMu.RLock()
	defer tagMu.RUnlock()
	return currentPluginTag
}

// Bridges constructs the log/metric bridge pair for one PluginContext. log
// additionally receives a zerolog sub-logger so plugin log lines land in the
// same structured stream as host logs, per SPEC_FULL.md's AMBIENT STACK.
func Bridges(ch *ingest.Channel, log zerolog.Logger) (abi.LogFunc, abi.EmitMetricFunc) {
	logFn := func(level abi.LogLevel, message string) {
		if message == "" {
			return
		}
		tag := CurrentPluginTag()

		var pluginPtr *string
		if tag != "" {
			p := tag
			pluginPtr = &p
		}

		ch.SendLog(telemetry.LogEvent{
			Time:    time.Now().UTC(),
			Level:   telemetry.ParseLogLevel(level.String()),
			Plugin:  pluginPtr,
			Message: message,
			Fields:  map[string]string{},
		})

		ev := log.Info()
		switch level {
		case abi.LevelDebug:
			ev = log.Debug()
		case abi.LevelWarn:
			ev = log.Warn()
		case abi.LevelError:
			ev = log.Error()
		}
		name := tag
		if name == "" {
			name = "unknown"
		}
		ev.Str("plugin", name).Msg(message)
	}

	metricFn := func(sample abi.MetricSample) {
		name := sample.Name
		if name == "" {
			name = "<unnamed>"
		}
		plugin := CurrentPluginTag()
		if plugin == "" {
			plugin = "unknown"
		}
		ch.SendMetric(telemetry.Metric{
			Time:   abi.MetricTime(sample.TimestampMs),
			Plugin: plugin,
			Name:   name,
			Value:  sample.Value,
			Labels: map[string]string{},
		})
	}

	return logFn, metricFn
}

// NewContext builds a fresh PluginContext for a single invocation.
func NewContext(hostVersion uint32, ch *ingest.Channel, log zerolog.Logger) *abi.PluginContext {
	logFn, metricFn := Bridges(ch, log)
	return &abi.PluginContext{
		HostVersion:  hostVersion,
		LogFn:        logFn,
		EmitMetricFn: metricFn,
	}
}
