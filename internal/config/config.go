// Package config loads service settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Config groups every setting of the service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Presence PresenceConfig `yaml:"presence"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// URL is a DSN, a redis:// or mongodb:// URI, or a SQLite file path.
	URL         string `yaml:"url"`
	Database    string `yaml:"database"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// PresenceConfig tunes eviction.
type PresenceConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	StaleAfter    time.Duration `yaml:"stale_after"`
}

// EventsConfig configures live message fan-out.
type EventsConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	// StreamBuffer is the per-subscriber channel size for SSE and WebSocket feeds.
	StreamBuffer int `yaml:"stream_buffer"`
}

// KafkaEnabled reports whether messages are forwarded to Kafka.
func (c EventsConfig) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":5000"},
		Store: StoreConfig{
			Driver:      DriverMemory,
			Database:    "batepapo",
			RedisPrefix: "batepapo:",
		},
		Presence: PresenceConfig{
			SweepInterval: 15 * time.Second,
			StaleAfter:    10 * time.Second,
		},
		Events: EventsConfig{
			KafkaTopic:   "batepapo.messages",
			StreamBuffer: 32,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		addr, err := parseAddr(port)
		if err != nil {
			return err
		}
		c.Server.Addr = addr
	}

	c.Store.Driver = getEnvOrDefault("STORE_DRIVER", c.Store.Driver)
	c.Store.URL = getEnvOrDefault("DATABASE_URL", c.Store.URL)
	c.Store.Database = getEnvOrDefault("DATABASE_NAME", c.Store.Database)
	c.Store.RedisPrefix = getEnvOrDefault("REDIS_KEY_PREFIX", c.Store.RedisPrefix)

	interval, err := parseOptionalDurationEnv("SWEEP_INTERVAL")
	if err != nil {
		return err
	}
	if interval != nil {
		c.Presence.SweepInterval = *interval
	}

	staleAfter, err := parseOptionalDurationEnv("STALE_AFTER")
	if err != nil {
		return err
	}
	if staleAfter != nil {
		c.Presence.StaleAfter = *staleAfter
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		c.Events.KafkaBrokers = splitList(brokers)
	}
	c.Events.KafkaTopic = getEnvOrDefault("KAFKA_TOPIC", c.Events.KafkaTopic)

	buffer, err := parseOptionalIntEnv("STREAM_BUFFER")
	if err != nil {
		return err
	}
	if buffer != nil {
		c.Events.StreamBuffer = *buffer
	}

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnvOrDefault("LOG_FILE", c.Log.File)
	return nil
}

func (c *Config) applyDefaults() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == DriverSQLite && c.Store.URL == "" {
		c.Store.URL = "batepapo.db"
	}
	if c.Events.StreamBuffer == 0 {
		c.Events.StreamBuffer = Default().Events.StreamBuffer
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.Server.Addr == "" {
		errs = errs.Append("server.addr", errors.New("cannot be empty"))
	}

	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres, DriverRedis, DriverMongo:
		if c.Store.URL == "" {
			errs = errs.Append("store.url", fmt.Errorf("is required for driver %q", c.Store.Driver))
		}
	default:
		errs = errs.Append("store.driver", fmt.Errorf("unknown driver %q", c.Store.Driver))
	}

	if c.Presence.SweepInterval <= 0 {
		errs = errs.Append("presence.sweep_interval", errors.New("must be positive"))
	}
	if c.Presence.StaleAfter <= 0 {
		errs = errs.Append("presence.stale_after", errors.New("must be positive"))
	}

	if c.Events.KafkaEnabled() && c.Events.KafkaTopic == "" {
		errs = errs.Append("events.kafka_topic", errors.New("is required when kafka_brokers is set"))
	}
	if c.Events.StreamBuffer < 1 {
		errs = errs.Append("events.stream_buffer", errors.New("must be at least 1"))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = errs.Append("log.level", err)
	}

	return errs.ToError()
}

// parseAddr accepts "8080", ":8080" or "127.0.0.1:8080".
func parseAddr(port string) (string, error) {
	if strings.Contains(port, ":") {
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value %q: %w", port, err)
	}
	return ":" + port, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseOptionalDurationEnv accepts Go durations ("15s") or plain milliseconds.
func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		d := time.Duration(ms) * time.Millisecond
		return &d, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &d, nil
}
