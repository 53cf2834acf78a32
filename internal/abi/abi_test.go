package abi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluginMetaValid(t *testing.T) {
	assert.True(t, PluginMeta{Name: "cpu-monitor"}.Valid())
	assert.False(t, PluginMeta{Name: ""}.Valid())
}

func TestLogLevelString(t *testing.T) {
	cases := map[LogLevel]string{
		LevelDebug: "Debug",
		LevelInfo:  "Info",
		LevelWarn:  "Warn",
		LevelError: "Error",
		LogLevel(99): "Info",
	}
	for level, want := range cases {
		assert.Equal(t, want, level.String())
	}
}

func TestMetricTimeFallsBackOnImplausibleValues(t *testing.T) {
	now := time.Now().UTC()

	got := MetricTime(-999999999999)
	assert.WithinDuration(t, now, got, 5*time.Second)

	future := int64(9999999999999999)
	got = MetricTime(future)
	assert.WithinDuration(t, now, got, 5*time.Second)
}

func TestMetricTimeNormalValue(t *testing.T) {
	ms := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()
	got := MetricTime(ms)
	assert.Equal(t, 2026, got.Year())
}
