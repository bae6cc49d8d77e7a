package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "STORE_DRIVER", "DATABASE_URL", "DATABASE_NAME", "REDIS_KEY_PREFIX",
	"SWEEP_INTERVAL", "STALE_AFTER", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"STREAM_BUFFER", "LOG_LEVEL", "LOG_FILE",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 15*time.Second, cfg.Presence.SweepInterval)
	assert.Equal(t, 10*time.Second, cfg.Presence.StaleAfter)
	assert.False(t, cfg.Events.KafkaEnabled())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7000"
store:
  driver: postgres
  url: postgres://file/chat
presence:
  sweep_interval: 30s
  stale_after: 20s
events:
  kafka_brokers: [kafka-1:9092]
log:
  level: debug
`), 0o644))

	t.Setenv("DATABASE_URL", "postgres://env/chat")
	t.Setenv("STALE_AFTER", "12000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://env/chat", cfg.Store.URL)
	assert.Equal(t, 30*time.Second, cfg.Presence.SweepInterval)
	assert.Equal(t, 12*time.Second, cfg.Presence.StaleAfter)
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "batepapo.messages", cfg.Events.KafkaTopic)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SWEEP_INTERVAL", "1m")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "batepapo.db", cfg.Store.URL)
	assert.Equal(t, time.Minute, cfg.Presence.SweepInterval)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Events.KafkaBrokers)
}

func TestLoadInvalidEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "80 80"},
		{"PORT", "http"},
		{"SWEEP_INTERVAL", "soon"},
		{"STREAM_BUFFER", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestValidateCollectsFieldErrors(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = DriverRedis
	cfg.Presence.StaleAfter = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	fields := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = fe.Field
	}
	assert.ElementsMatch(t, []string{"store.url", "presence.stale_after", "log.level"}, fields)
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "cassandra"

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, cfg.Validate(), &fieldErrs)
	assert.Equal(t, "store.driver", fieldErrs[0].Field)
}
