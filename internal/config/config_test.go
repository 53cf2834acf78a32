package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearMonitorEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"MONITOR_AI_CONFIG_FILE", "MONITOR_AI_LISTEN_ADDR", "MONITOR_AI_GATEWAY_ADDR",
		"MONITOR_AI_DB_DRIVER", "MONITOR_AI_DB_URL", "MONITOR_AI_PLUGIN_MODE", "MONITOR_AI_PLUGIN_DIR",
		"MONITOR_AI_JWT_SECRET", "MONITOR_AI_JWT_ISSUER", "MONITOR_AI_CACHE_URL",
		"MONITOR_AI_NATS_URL", "MONITOR_AI_ADMIN_TOTP_SECRET", "MONITOR_AI_TICK_INTERVAL",
		"MONITOR_AI_JWT_TOKEN_TTL", "MONITOR_AI_GATEWAY_API_KEY_HASHES",
	}
	for _, k := range keys {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadFailsWithoutJWTSecret(t *testing.T) {
	clearMonitorEnv(t)
	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaultsWhenOnlySecretIsSet(t *testing.T) {
	clearMonitorEnv(t)
	t.Setenv("MONITOR_AI_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3001", cfg.ListenAddr)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, 5*time.Second, cfg.TickInterval)
	require.Equal(t, time.Hour, cfg.JWTTokenTTL)
	require.Equal(t, "plugins/dev", cfg.ResolvedPluginDir())
}

func TestLoadEnvOverridesFileDefaults(t *testing.T) {
	clearMonitorEnv(t)
	t.Setenv("MONITOR_AI_JWT_SECRET", "test-secret")
	t.Setenv("MONITOR_AI_LISTEN_ADDR", ":9090")
	t.Setenv("MONITOR_AI_TICK_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, 30*time.Second, cfg.TickInterval)
}

func TestLoadPluginModeSelectsDirectory(t *testing.T) {
	clearMonitorEnv(t)
	t.Setenv("MONITOR_AI_JWT_SECRET", "test-secret")
	t.Setenv("MONITOR_AI_PLUGIN_MODE", "prod")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "plugins/prod", cfg.ResolvedPluginDir())
}

func TestLoadPluginDirOverridesPluginMode(t *testing.T) {
	clearMonitorEnv(t)
	t.Setenv("MONITOR_AI_JWT_SECRET", "test-secret")
	t.Setenv("MONITOR_AI_PLUGIN_MODE", "prod")
	t.Setenv("MONITOR_AI_PLUGIN_DIR", "/custom/plugins")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/custom/plugins", cfg.ResolvedPluginDir())
}

func TestLoadReadsYAMLFile(t *testing.T) {
	clearMonitorEnv(t)
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("jwtSecret: from-file\ndbDriver: postgres\ndbUrl: postgres://x\n"), 0o644))
	t.Setenv("MONITOR_AI_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.JWTSecret)
	require.Equal(t, "postgres", cfg.DBDriver)
}

func TestLoadRejectsUnsupportedDBDriver(t *testing.T) {
	clearMonitorEnv(t)
	t.Setenv("MONITOR_AI_JWT_SECRET", "test-secret")
	t.Setenv("MONITOR_AI_DB_DRIVER", "mongodb")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadToleratesMissingConfigFile(t *testing.T) {
	clearMonitorEnv(t)
	t.Setenv("MONITOR_AI_JWT_SECRET", "test-secret")
	t.Setenv("MONITOR_AI_CONFIG_FILE", "/nonexistent/path/config.yaml")

	_, err := Load()
	require.NoError(t, err)
}
