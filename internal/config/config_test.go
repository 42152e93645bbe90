package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expressflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 10*time.Second, cfg.TaskTimeout)
	require.Equal(t, SinkMemory, cfg.EventSink)
	require.Equal(t, "Number not greater than 50", cfg.InvalidInputCause)
	require.Equal(t, cfg.InvalidInputCause, cfg.BelowThresholdCause)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
addr: ":9090"
log_format: text
task_timeout: 2s
threshold: 60
event_sink: redis
redis_addr: "redis:6379"
redis_ttl: 1h
below_threshold_cause: "too small"
`)
	t.Setenv("EXPRESSFLOW_ADDR", ":7070")
	t.Setenv("EXPRESSFLOW_REDIS_TTL", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Addr, "env wins over file")
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, 2*time.Second, cfg.TaskTimeout)
	require.Equal(t, 60.0, cfg.Threshold)
	require.Equal(t, SinkRedis, cfg.EventSink)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
	require.Equal(t, 30*time.Minute, cfg.RedisTTL)
	require.Equal(t, "too small", cfg.BelowThresholdCause)
	require.Equal(t, defaultFailCause, cfg.InvalidInputCause, "unset keys keep defaults")
}

func TestLoad_EnvNumbers(t *testing.T) {
	t.Setenv("EXPRESSFLOW_THRESHOLD", "42.5")
	t.Setenv("EXPRESSFLOW_MAX_BODY_BYTES", "2048")
	t.Setenv("EXPRESSFLOW_MEMORY_EXECUTIONS", "10")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 42.5, cfg.Threshold)
	require.Equal(t, int64(2048), cfg.MaxBodyBytes)
	require.Equal(t, 10, cfg.MemoryExecutions)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "addr: [unclosed"))
	require.Error(t, err)

	for key, value := range map[string]string{
		"EXPRESSFLOW_TASK_TIMEOUT":   "ten",
		"EXPRESSFLOW_THRESHOLD":      "fifty",
		"EXPRESSFLOW_MAX_BODY_BYTES": "1MB",
		"EXPRESSFLOW_EVENT_SINK":     "kafka",
		"EXPRESSFLOW_LOG_LEVEL":      "trace",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	mutate := map[string]func(*Config){
		"empty addr":       func(c *Config) { c.Addr = "" },
		"relative route":   func(c *Config) { c.RoutePath = "run" },
		"bad format":       func(c *Config) { c.LogFormat = "xml" },
		"zero timeout":     func(c *Config) { c.TaskTimeout = 0 },
		"zero shutdown":    func(c *Config) { c.ShutdownTimeout = 0 },
		"zero body":        func(c *Config) { c.MaxBodyBytes = 0 },
		"sqlite no dsn":    func(c *Config) { c.EventSink, c.SQLiteDSN = SinkSQLite, "" },
		"redis no addr":    func(c *Config) { c.EventSink, c.RedisAddr = SinkRedis, "" },
		"negative ttl":     func(c *Config) { c.EventSink, c.RedisTTL = SinkRedis, -time.Second },
		"empty fail cause": func(c *Config) { c.BelowThresholdCause = "" },
	}
	for name, fn := range mutate {
		cfg := Default()
		fn(&cfg)
		require.Error(t, cfg.Validate(), name)
	}

	cfg := Default()
	cfg.EventSink = SinkNone
	require.NoError(t, cfg.Validate())
}
