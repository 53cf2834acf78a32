package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// postgresStore is the optional production backend named in SPEC_FULL.md's
// DOMAIN STACK section. It exists so operators who already run the rest of
// the teacher's stack on Postgres (internal/db is built entirely around
// lib/pq) are not forced onto a second database engine just for telemetry.
// Table shapes mirror sqliteStore exactly; only the placeholder syntax and
// serial-id columns differ.
type postgresStore struct {
	db *sql.DB
}

func openPostgres(connStr string) (Store, error) {
	if connStr == "" {
		return nil, fmt.Errorf("postgres store: MONITOR_AI_DB_URL is required when MONITOR_AI_DB_DRIVER=postgres")
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres store: %w", err)
	}

	s := &postgresStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres store: %w", err)
	}
	return s, nil
}

func (s *postgresStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS logs (
			id SERIAL PRIMARY KEY,
			time TEXT NOT NULL,
			level TEXT NOT NULL,
			plugin TEXT,
			message TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			id SERIAL PRIMARY KEY,
			time TEXT NOT NULL,
			plugin TEXT NOT NULL,
			name TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id SERIAL PRIMARY KEY,
			time TEXT NOT NULL,
			plugin TEXT NOT NULL,
			metric_name TEXT NOT NULL,
			severity TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS plugin_apis (
			plugin TEXT PRIMARY KEY,
			base_url TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *postgresStore) InsertLog(ctx context.Context, e LogEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (time, level, plugin, message) VALUES ($1, $2, $3, $4)`,
		e.Time.UTC().Format(time.RFC3339), string(e.Level), e.Plugin, sanitizeText(e.Message))
	return err
}

func (s *postgresStore) InsertMetric(ctx context.Context, m Metric) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics (time, plugin, name, value) VALUES ($1, $2, $3, $4)`,
		m.Time.UTC().Format(time.RFC3339), m.Plugin, m.Name, m.Value)
	return err
}

func (s *postgresStore) InsertAlert(ctx context.Context, a AlertEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (time, plugin, metric_name, severity, title, message) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.Time.UTC().Format(time.RFC3339), a.Plugin, a.MetricName, string(a.Severity),
		sanitizeText(a.Title), sanitizeText(a.Message))
	return err
}

func (s *postgresStore) LatestLogs(ctx context.Context, limit int) ([]LogEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, level, plugin, message FROM logs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogEvent
	for rows.Next() {
		var timeStr, level, message string
		var plugin sql.NullString
		if err := rows.Scan(&timeStr, &level, &plugin, &message); err != nil {
			return nil, err
		}
		e := LogEvent{Time: parseTimeOrNow(timeStr), Level: ParseLogLevel(level), Message: message, Fields: map[string]string{}}
		if plugin.Valid {
			p := plugin.String
			e.Plugin = &p
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *postgresStore) LatestMetrics(ctx context.Context, limit int) ([]Metric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, plugin, name, value FROM metrics ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var timeStr, plugin, name string
		var value float64
		if err := rows.Scan(&timeStr, &plugin, &name, &value); err != nil {
			return nil, err
		}
		out = append(out, Metric{Time: parseTimeOrNow(timeStr), Plugin: plugin, Name: name, Value: value, Labels: map[string]string{}})
	}
	return out, rows.Err()
}

func (s *postgresStore) LatestAlerts(ctx context.Context, limit int) ([]AlertEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, plugin, metric_name, severity, title, message FROM alerts ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertEvent
	for rows.Next() {
		var timeStr, plugin, metricName, severity, title, message string
		if err := rows.Scan(&timeStr, &plugin, &metricName, &severity, &title, &message); err != nil {
			return nil, err
		}
		out = append(out, AlertEvent{
			Time: parseTimeOrNow(timeStr), Plugin: plugin, MetricName: metricName,
			Severity: ParseAlertSeverity(severity), Title: title, Message: message, Tags: map[string]string{},
		})
	}
	return out, rows.Err()
}

func (s *postgresStore) UpsertPluginAPI(ctx context.Context, plugin, baseURL string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plugin_apis (plugin, base_url, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (plugin) DO UPDATE SET base_url = excluded.base_url, updated_at = excluded.updated_at`,
		plugin, baseURL, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *postgresStore) GetAllPluginAPIs(ctx context.Context) ([]PluginAPIEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT plugin, base_url, updated_at FROM plugin_apis`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PluginAPIEntry
	for rows.Next() {
		var plugin, baseURL, updatedAt string
		if err := rows.Scan(&plugin, &baseURL, &updatedAt); err != nil {
			return nil, err
		}
		out = append(out, PluginAPIEntry{Plugin: plugin, BaseURL: baseURL, UpdatedAt: parseTimeOrNow(updatedAt)})
	}
	return out, rows.Err()
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
