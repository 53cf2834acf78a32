// Package config loads the monitoring host's configuration from an
// optional YAML file overlaid with environment variables, the same
// layered precedence (file defaults, env overrides) that the platform's
// other standalone agents use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full set of settings the host needs at startup.
//
// Configuration can be provided via:
//   - A YAML file (MONITOR_AI_CONFIG_FILE, optional)
//   - Environment variables (always checked, override file values)
type Config struct {
	// ListenAddr is the read API bind address.
	// Default: ":3001"
	ListenAddr string `yaml:"listenAddr"`

	// GatewayAddr is loaded from the file and environment, but
	// cmd/monitor-ai-host serves the plugin reverse proxy on ListenAddr
	// alongside the read API; nothing binds this address.
	// Default: ":8081"
	GatewayAddr string `yaml:"gatewayAddr"`

	// DBDriver selects the telemetry store backend ("sqlite" or "postgres").
	// Default: "sqlite"
	DBDriver string `yaml:"dbDriver"`

	// DBURL is the telemetry store connection string: a sqlite file path
	// for the sqlite driver (an optional "sqlite://" prefix is stripped),
	// a libpq connection string for postgres.
	// Default: "sqlite://database/monitor_ai.db"
	DBURL string `yaml:"dbUrl"`

	// PluginMode selects which plugin directory is scanned for
	// dynamically-loaded .so artifacts: "dev" -> plugins/dev,
	// "prod" -> plugins/prod. PluginDir overrides this when set directly.
	// Default: "dev"
	PluginMode string `yaml:"pluginMode"`

	// PluginDir, when non-empty, overrides the directory PluginMode would
	// otherwise select.
	PluginDir string `yaml:"pluginDir"`

	// TickInterval is how often the scheduler runs every registered plugin.
	// Default: 5s
	TickInterval time.Duration `yaml:"tickInterval"`

	// JWTSecret signs and verifies bearer tokens for the read API.
	JWTSecret string `yaml:"jwtSecret"`

	// JWTIssuer is the issuer claim stamped into generated tokens.
	// Default: "monitor-ai-bot"
	JWTIssuer string `yaml:"jwtIssuer"`

	// JWTTokenTTL is how long an issued bearer token remains valid.
	// Default: 1h
	JWTTokenTTL time.Duration `yaml:"jwtTokenTtl"`

	// CacheURL enables the read-through Redis cache layer when set.
	CacheURL string `yaml:"cacheUrl"`

	// NATSURL enables alert fan-out publishing when set.
	NATSURL string `yaml:"natsUrl"`

	// AdminTOTPSecret gates /admin/rotate-key when set; empty disables the route.
	AdminTOTPSecret string `yaml:"adminTotpSecret"`

	// GatewayAPIKeyHashes is a comma-separated list of bcrypt hashes; when
	// non-empty, the plugin API gateway requires a matching
	// X-Gateway-API-Key header on every proxied request.
	GatewayAPIKeyHashes []string `yaml:"gatewayApiKeyHashes"`
}

// pluginDirForMode maps a plugin mode to its scanned directory.
func pluginDirForMode(mode string) string {
	if mode == "prod" {
		return "plugins/prod"
	}
	return "plugins/dev"
}

// ResolvedPluginDir returns PluginDir when set, else the directory implied
// by PluginMode.
func (c *Config) ResolvedPluginDir() string {
	if c.PluginDir != "" {
		return c.PluginDir
	}
	return pluginDirForMode(c.PluginMode)
}

// defaults returns a Config populated with the host's baseline settings.
func defaults() Config {
	return Config{
		ListenAddr:   ":3001",
		GatewayAddr:  ":8081",
		DBDriver:     "sqlite",
		DBURL:        "sqlite://database/monitor_ai.db",
		PluginMode:   "dev",
		TickInterval: 5 * time.Second,
		JWTIssuer:    "monitor-ai-bot",
		JWTTokenTTL:  time.Hour,
	}
}

// Load builds a Config starting from defaults, applying an optional YAML
// file named by the MONITOR_AI_CONFIG_FILE environment variable, then
// applying any of the MONITOR_AI_* environment variables that are set. It
// never returns an error for a missing config file — only for one that
// exists but fails to parse.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("MONITOR_AI_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *Config) {
	stringVar(&cfg.ListenAddr, "MONITOR_AI_LISTEN_ADDR")
	stringVar(&cfg.GatewayAddr, "MONITOR_AI_GATEWAY_ADDR")
	stringVar(&cfg.DBDriver, "MONITOR_AI_DB_DRIVER")
	stringVar(&cfg.DBURL, "MONITOR_AI_DB_URL")
	stringVar(&cfg.PluginMode, "MONITOR_AI_PLUGIN_MODE")
	stringVar(&cfg.PluginDir, "MONITOR_AI_PLUGIN_DIR")
	stringVar(&cfg.JWTSecret, "MONITOR_AI_JWT_SECRET")
	stringVar(&cfg.JWTIssuer, "MONITOR_AI_JWT_ISSUER")
	stringVar(&cfg.CacheURL, "MONITOR_AI_CACHE_URL")
	stringVar(&cfg.NATSURL, "MONITOR_AI_NATS_URL")
	stringVar(&cfg.AdminTOTPSecret, "MONITOR_AI_ADMIN_TOTP_SECRET")
	durationVar(&cfg.TickInterval, "MONITOR_AI_TICK_INTERVAL")
	durationVar(&cfg.JWTTokenTTL, "MONITOR_AI_JWT_TOKEN_TTL")

	if v := os.Getenv("MONITOR_AI_GATEWAY_API_KEY_HASHES"); v != "" {
		cfg.GatewayAPIKeyHashes = strings.Split(v, ",")
	}
}

func stringVar(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func durationVar(dst *time.Duration, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
	}
}

// Validate checks that the settings required for the host to start are
// present, filling in any defaults that Load's zero value left blank.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("MONITOR_AI_JWT_SECRET (or jwtSecret in the config file) is required")
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.JWTTokenTTL <= 0 {
		c.JWTTokenTTL = time.Hour
	}
	return nil
}
