package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
mqtt:
  broker: tcp://localhost:1883
  client_id: alarm-test
`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	require.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	require.Equal(t, "alarm-test", cfg.MQTT.ClientID)
	require.Equal(t, "/forest_fire/", cfg.MQTT.TopicPrefix)
	require.Equal(t, 64, cfg.Engine.QueueSize)
	require.Equal(t, 5*time.Second, cfg.Dashboard.RefreshInterval)
	require.Equal(t, 10, cfg.Dashboard.HistorySize)
	require.Equal(t, "forest_section_A", cfg.Simulator.Location)
	require.Equal(t, 2500*time.Millisecond, cfg.Simulator.Intervals["wind"])
	require.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFullConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
mqtt:
  broker: tcp://broker:1883
  topic_prefix: /test/
  qos: 1
engine:
  queue_size: 8
transformers:
  heat:
    script_code: "function transform(p) { return JSON.parse(p); }"
storage:
  database:
    enabled: true
    type: postgresql
    dsn: postgres://u:p@localhost:5432/alarms?sslmode=disable
  redis:
    enabled: true
    max_len: 20
dashboard:
  refresh_interval: 1s
  history_size: 3
`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	require.Equal(t, byte(1), cfg.MQTT.QoS)
	require.Equal(t, "/test/", cfg.MQTT.TopicPrefix)
	require.Equal(t, 8, cfg.Engine.QueueSize)
	require.Contains(t, cfg.Transformers, "heat")
	require.True(t, cfg.Storage.Database.Enabled)
	require.Equal(t, "postgresql", cfg.Storage.Database.Type)
	require.Equal(t, int64(20), cfg.Storage.Redis.MaxLen)
	require.Equal(t, "forest_fire:alerts", cfg.Storage.Redis.Key)
	require.Equal(t, time.Second, cfg.Dashboard.RefreshInterval)
	require.Equal(t, 3, cfg.Dashboard.HistorySize)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.Error(t, err)

	_, err = NewLoader(writeConfig(t, "mqtt:\n  qos: 3\n")).Load()
	require.Error(t, err)

	_, err = NewLoader(writeConfig(t, "engine:\n  queue_size: 0\n")).Load()
	require.Error(t, err)

	_, err = NewLoader(writeConfig(t, "storage:\n  database:\n    enabled: true\n")).Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		MQTT:      MQTTConfig{Broker: "tcp://localhost:1883"},
		Engine:    EngineConfig{QueueSize: 1},
		Dashboard: DashboardConfig{HistorySize: 10},
	}
	require.NoError(t, Validate(cfg))

	cfg.MQTT.Broker = ""
	require.Error(t, Validate(cfg))
}
