// This file defines the cache key naming conventions used by the telemetry
// read path.
//
// Key Naming Convention:
//   - Format: {prefix}:{resource}:{identifier}
//   - Example: logs:plugin:cpu-monitor
//   - Example: metrics:series:cpu_usage
package cache

import "fmt"

// Key prefixes for different resource types.
const (
	PrefixLogs      = "logs"
	PrefixMetrics   = "metrics"
	PrefixAlerts    = "alerts"
	PrefixPluginAPI = "plugin_api"
)

// LogsByPluginKey caches the most recent log page for a given plugin.
func LogsByPluginKey(plugin string) string {
	return fmt.Sprintf("%s:plugin:%s", PrefixLogs, plugin)
}

// RecentLogsKey caches the unfiltered most-recent log page.
func RecentLogsKey() string {
	return fmt.Sprintf("%s:recent", PrefixLogs)
}

// MetricSeriesKey caches the most recent samples for one metric name.
func MetricSeriesKey(metricName string) string {
	return fmt.Sprintf("%s:series:%s", PrefixMetrics, metricName)
}

// RecentMetricsKey caches the unfiltered most-recent metric page.
func RecentMetricsKey() string {
	return fmt.Sprintf("%s:recent", PrefixMetrics)
}

// RecentAlertsKey caches the most-recent alert page.
func RecentAlertsKey() string {
	return fmt.Sprintf("%s:recent", PrefixAlerts)
}

// PluginAPIKey caches a single plugin's registered base URL.
func PluginAPIKey(plugin string) string {
	return fmt.Sprintf("%s:%s", PrefixPluginAPI, plugin)
}

// AllPluginAPIsKey caches the full plugin-API registry snapshot.
func AllPluginAPIsKey() string {
	return fmt.Sprintf("%s:all", PrefixPluginAPI)
}

// LogsPattern matches every cached log-page key, for bulk invalidation when
// new ingest activity arrives.
func LogsPattern() string {
	return fmt.Sprintf("%s:*", PrefixLogs)
}

// MetricsPattern matches every cached metric-page key.
func MetricsPattern() string {
	return fmt.Sprintf("%s:*", PrefixMetrics)
}

// AlertsPattern matches every cached alert-page key.
func AlertsPattern() string {
	return fmt.Sprintf("%s:*", PrefixAlerts)
}
