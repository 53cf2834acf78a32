package telemetry

import "context"

// Store is the persistence contract for C2. All operations may fail with a
// storage error; per §7 callers on the insert path log and drop the error
// rather than propagate it back across the ingest channel, and callers on
// the read path (the HTTP handlers in internal/api) fall back to an empty
// slice rather than surface a 500.
type Store interface {
	InsertLog(ctx context.Context, e LogEvent) error
	InsertMetric(ctx context.Context, m Metric) error
	InsertAlert(ctx context.Context, a AlertEvent) error

	LatestLogs(ctx context.Context, limit int) ([]LogEvent, error)
	LatestMetrics(ctx context.Context, limit int) ([]Metric, error)
	LatestAlerts(ctx context.Context, limit int) ([]AlertEvent, error)

	UpsertPluginAPI(ctx context.Context, plugin, baseURL string) error
	GetAllPluginAPIs(ctx context.Context) ([]PluginAPIEntry, error)

	Close() error
}

// Driver selects which Store implementation Open constructs.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config is the minimal connection configuration needed to open a Store.
// DSN is driver-specific: a filesystem path (or ":memory:") for SQLite, a
// libpq connection string for Postgres.
type Config struct {
	Driver Driver
	DSN    string
}

// Open constructs and migrates a Store for the requested driver. An
// unrecognized driver defaults to SQLite, matching §6's documented default.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(cfg.DSN)
	default:
		return openSQLite(cfg.DSN)
	}
}
