package pluginbridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pcfengzi/monitor-ai-bot/internal/abi"
	"github.com/pcfengzi/monitor-ai-bot/internal/ingest"
)

func TestAttributionDuringInvocation(t *testing.T) {
	ch := ingest.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var gotPlugin *string
	var gotLevel string

	go ch.Run(ctx, func(m ingest.Message) {
		if m.Log != nil {
			mu.Lock()
			gotPlugin = m.Log.Plugin
			gotLevel = string(m.Log.Level)
			mu.Unlock()
		}
	})

	logFn, _ := Bridges(ch, zerolog.Nop())

	SetCurrentPluginTag("cpu-monitor")
	logFn(abi.LevelWarn, "threshold exceeded")
	ClearCurrentPluginTag()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotPlugin != nil
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "cpu-monitor", *gotPlugin)
	require.Equal(t, "Warn", gotLevel)
}

func TestMetricAttributionDefaultsToUnknownAfterClear(t *testing.T) {
	ch := ingest.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var gotPlugin string

	go ch.Run(ctx, func(m ingest.Message) {
		if m.Metric != nil {
			mu.Lock()
			gotPlugin = m.Metric.Plugin
			mu.Unlock()
		}
	})

	_, metricFn := Bridges(ch, zerolog.Nop())

	// Simulates a goroutine a plugin spawned calling back in after
	// RunWithCtx already returned and cleared the tag.
	metricFn(abi.MetricSample{Name: "cpu_usage", Value: 1})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotPlugin != ""
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "unknown", gotPlugin)
}

func TestEmptyLogMessageDropped(t *testing.T) {
	ch := ingest.New()
	logFn, _ := Bridges(ch, zerolog.Nop())
	logFn(abi.LevelInfo, "")
	// drain is unexported but Send is reachable only via SendLog; assert no
	// panic and nothing queued by checking via a short Run cycle.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	called := false
	go ch.Run(ctx, func(m ingest.Message) { called = true })
	time.Sleep(20 * time.Millisecond)
	require.False(t, called)
}
