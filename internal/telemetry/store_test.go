package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	plugin := "cpu-monitor"

	require.NoError(t, store.InsertLog(ctx, LogEvent{
		Time: time.Now(), Level: LogInfo, Plugin: &plugin, Message: "booted",
	}))
	require.NoError(t, store.InsertMetric(ctx, Metric{
		Time: time.Now(), Plugin: plugin, Name: "cpu_usage", Value: 12.5,
	}))
	require.NoError(t, store.InsertAlert(ctx, AlertEvent{
		Time: time.Now(), Plugin: plugin, MetricName: "cpu_usage",
		Severity: SeverityWarning, Title: "high cpu", Message: "cpu above threshold",
	}))
	require.NoError(t, store.UpsertPluginAPI(ctx, plugin, "http://127.0.0.1:5501/"))

	logs, err := store.LatestLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "booted", logs[0].Message)
	require.NotNil(t, logs[0].Plugin)
	require.Equal(t, plugin, *logs[0].Plugin)

	metrics, err := store.LatestMetrics(ctx, 10)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	require.Equal(t, 12.5, metrics[0].Value)

	alerts, err := store.LatestAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, SeverityWarning, alerts[0].Severity)

	apis, err := store.GetAllPluginAPIs(ctx)
	require.NoError(t, err)
	require.Len(t, apis, 1)
	require.Equal(t, "http://127.0.0.1:5501/", apis[0].BaseURL)
}

func TestSQLiteStoreNewestFirst(t *testing.T) {
	store, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertMetric(ctx, Metric{
			Time: time.Now(), Plugin: "p", Name: "seq", Value: float64(i),
		}))
	}

	metrics, err := store.LatestMetrics(ctx, 10)
	require.NoError(t, err)
	require.Len(t, metrics, 3)
	require.Equal(t, float64(2), metrics[0].Value, "newest insert must come first")
}

func TestParseAlertSeverityDefaultsToInfo(t *testing.T) {
	require.Equal(t, SeverityInfo, ParseAlertSeverity("NUCLEAR"))
	require.Equal(t, SeverityWarning, ParseAlertSeverity("Warning"))
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := Open(Config{Driver: DriverPostgres, DSN: ""})
	require.Error(t, err)
}
