// Package config loads the expressflow server configuration: built-in
// defaults, then an optional YAML file, then EXPRESSFLOW_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr             = ":8080"
	defaultRoutePath        = "/start-state-machine"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultTaskTimeout      = 10 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultMaxBodyBytes     = 1 << 20
	defaultThreshold        = 50
	defaultEventSink        = "memory"
	defaultMemoryExecutions = 1024
	defaultSQLiteDSN        = "file:expressflow.db?_pragma=busy_timeout(5000)"
	defaultRedisAddr        = "127.0.0.1:6379"
	defaultRedisPrefix      = "expressflow:"
	defaultRedisTTL         = 24 * time.Hour
	defaultFailCause        = "Number not greater than 50"
)

// Sink kinds.
const (
	SinkNone   = "none"
	SinkMemory = "memory"
	SinkSQLite = "sqlite"
	SinkRedis  = "redis"
)

type Config struct {
	Addr            string        `yaml:"addr"`
	RoutePath       string        `yaml:"route_path"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	TaskTimeout     time.Duration `yaml:"task_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	Threshold       float64       `yaml:"threshold"`

	EventSink        string        `yaml:"event_sink"`
	MemoryExecutions int           `yaml:"memory_executions"`
	SQLiteDSN        string        `yaml:"sqlite_dsn"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPrefix      string        `yaml:"redis_prefix"`
	RedisTTL         time.Duration `yaml:"redis_ttl"`

	// TraceOutput is "" (disabled), "stdout" or a file path.
	TraceOutput string `yaml:"trace_output"`

	InvalidInputCause   string `yaml:"invalid_input_cause"`
	BelowThresholdCause string `yaml:"below_threshold_cause"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:                defaultAddr,
		RoutePath:           defaultRoutePath,
		LogLevel:            defaultLogLevel,
		LogFormat:           defaultLogFormat,
		TaskTimeout:         defaultTaskTimeout,
		ShutdownTimeout:     defaultShutdownTimeout,
		MaxBodyBytes:        defaultMaxBodyBytes,
		Threshold:           defaultThreshold,
		EventSink:           defaultEventSink,
		MemoryExecutions:    defaultMemoryExecutions,
		SQLiteDSN:           defaultSQLiteDSN,
		RedisAddr:           defaultRedisAddr,
		RedisPrefix:         defaultRedisPrefix,
		RedisTTL:            defaultRedisTTL,
		InvalidInputCause:   defaultFailCause,
		BelowThresholdCause: defaultFailCause,
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "EXPRESSFLOW_ADDR")
	setString(&c.RoutePath, "EXPRESSFLOW_ROUTE_PATH")
	setString(&c.LogLevel, "EXPRESSFLOW_LOG_LEVEL")
	setString(&c.LogFormat, "EXPRESSFLOW_LOG_FORMAT")
	setString(&c.EventSink, "EXPRESSFLOW_EVENT_SINK")
	setString(&c.SQLiteDSN, "EXPRESSFLOW_SQLITE_DSN")
	setString(&c.RedisAddr, "EXPRESSFLOW_REDIS_ADDR")
	setString(&c.RedisPrefix, "EXPRESSFLOW_REDIS_PREFIX")
	setString(&c.TraceOutput, "EXPRESSFLOW_TRACE_OUTPUT")
	setString(&c.InvalidInputCause, "EXPRESSFLOW_INVALID_INPUT_CAUSE")
	setString(&c.BelowThresholdCause, "EXPRESSFLOW_BELOW_THRESHOLD_CAUSE")

	if err := setDuration(&c.TaskTimeout, "EXPRESSFLOW_TASK_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.ShutdownTimeout, "EXPRESSFLOW_SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.RedisTTL, "EXPRESSFLOW_REDIS_TTL"); err != nil {
		return err
	}
	if err := setInt64(&c.MaxBodyBytes, "EXPRESSFLOW_MAX_BODY_BYTES"); err != nil {
		return err
	}
	executions := int64(c.MemoryExecutions)
	if err := setInt64(&executions, "EXPRESSFLOW_MEMORY_EXECUTIONS"); err != nil {
		return err
	}
	c.MemoryExecutions = int(executions)

	if v := os.Getenv("EXPRESSFLOW_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EXPRESSFLOW_THRESHOLD must be a number: %w", err)
		}
		c.Threshold = f
	}
	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr cannot be empty")
	}
	if c.RoutePath == "" || c.RoutePath[0] != '/' {
		return fmt.Errorf("route path %q must start with /", c.RoutePath)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if c.TaskTimeout <= 0 {
		return errors.New("task timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max body bytes must be positive")
	}
	switch c.EventSink {
	case SinkNone:
	case SinkMemory:
		if c.MemoryExecutions < 0 {
			return errors.New("memory executions must be >= 0")
		}
	case SinkSQLite:
		if c.SQLiteDSN == "" {
			return errors.New("sqlite dsn cannot be empty when event sink is sqlite")
		}
	case SinkRedis:
		if c.RedisAddr == "" {
			return errors.New("redis addr cannot be empty when event sink is redis")
		}
		if c.RedisTTL < 0 {
			return errors.New("redis ttl must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported event sink %q", c.EventSink)
	}
	if c.InvalidInputCause == "" || c.BelowThresholdCause == "" {
		return errors.New("fail causes cannot be empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration such as 10s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}
