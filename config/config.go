package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/validator"
)

// DefaultConfigPath is used when no --config flag is given
const DefaultConfigPath = "config.yaml"

// Config is the application configuration
type Config struct {
	MQTT         MQTTConfig             `mapstructure:"mqtt"`
	Engine       EngineConfig           `mapstructure:"engine"`
	Transformers map[string]Transformer `mapstructure:"transformers"`
	Storage      StorageConfig          `mapstructure:"storage"`
	Logger       LoggerConfig           `mapstructure:"logger"`
	Dashboard    DashboardConfig        `mapstructure:"dashboard"`
	Simulator    SimulatorConfig        `mapstructure:"simulator"`
}

// MQTTConfig holds the broker connection settings
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

// EngineConfig tunes the ingestion loop
type EngineConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// Transformer configures an optional payload script for one sensor kind
type Transformer struct {
	ScriptPath string `mapstructure:"script_path"`
	ScriptCode string `mapstructure:"script_code"`
}

// LoggerConfig holds logging settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Console    bool   `mapstructure:"console"`
}

// StorageConfig selects the alert archive backends used by the dashboard
type StorageConfig struct {
	File     FileStorageConfig     `mapstructure:"file"`
	Database DatabaseStorageConfig `mapstructure:"database"`
	Redis    RedisStorageConfig    `mapstructure:"redis"`
}

// FileStorageConfig writes one JSON file per alert
type FileStorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DatabaseStorageConfig archives alerts to MySQL or PostgreSQL
type DatabaseStorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"`
	DSN     string `mapstructure:"dsn"`
}

// RedisStorageConfig keeps a capped alert list in Redis
type RedisStorageConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// DashboardConfig tunes the terminal dashboard
type DashboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	HistorySize     int           `mapstructure:"history_size"`
}

// SimulatorConfig tunes the simulated sensor producers
type SimulatorConfig struct {
	Location  string                   `mapstructure:"location"`
	Seed      int64                    `mapstructure:"seed"`
	Intervals map[string]time.Duration `mapstructure:"intervals"`
}

// ConfigChangeCallback is invoked with the freshly parsed config after a file change
type ConfigChangeCallback func(cfg *Config) error

func setDefaults(v *viper.Viper) {
	v.SetDefault("mqtt.broker", "tcp://broker.hivemq.com:1883")
	v.SetDefault("mqtt.topic_prefix", "/forest_fire/")
	v.SetDefault("mqtt.qos", 0)

	v.SetDefault("engine.queue_size", 64)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.console", true)

	v.SetDefault("storage.file.path", "./data/alerts")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.key", "forest_fire:alerts")
	v.SetDefault("storage.redis.max_len", 100)

	v.SetDefault("dashboard.refresh_interval", "5s")
	v.SetDefault("dashboard.history_size", 10)

	v.SetDefault("simulator.location", "forest_section_A")
	v.SetDefault("simulator.intervals", map[string]string{
		"heat":  "2s",
		"smoke": "2s",
		"fire":  "3s",
		"wind":  "2500ms",
	})
}

// Loader reads the config file and keeps watching it
type Loader struct {
	v    *viper.Viper
	path string
	mu   sync.Mutex
}

// NewLoader creates a loader bound to configPath
func NewLoader(configPath string) *Loader {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	return &Loader{v: v, path: configPath}
}

// Load reads, decodes and validates the config file
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", l.path, err)
	}

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail at runtime
func Validate(cfg *Config) error {
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	if err := validator.ValidateAll(cfg.MQTT, &validator.RangeValidator{Field: "QoS", Min: 0, Max: 2}); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if err := validator.ValidateAll(cfg.Engine, &validator.RangeValidator{Field: "QueueSize", Min: 1, Max: 1 << 20}); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if err := validator.ValidateAll(cfg.Dashboard, &validator.RangeValidator{Field: "HistorySize", Min: 1, Max: 1000}); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	if cfg.Storage.Database.Enabled && cfg.Storage.Database.DSN == "" {
		return fmt.Errorf("storage.database.dsn is required when the database backend is enabled")
	}

	return nil
}

// WatchConfig re-reads the file on every write and passes the result to callback.
// Writes closer together than the debounce interval are collapsed.
func (l *Loader) WatchConfig(callback ConfigChangeCallback) error {
	absPath, err := filepath.Abs(l.path)
	if err != nil {
		return err
	}

	l.v.SetConfigFile(absPath)

	var lastChangeTime time.Time
	debounceInterval := 2 * time.Second

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) {
			return
		}

		now := time.Now()
		if now.Sub(lastChangeTime) < debounceInterval {
			return
		}
		lastChangeTime = now

		logger.Info("config file changed: %s", e.Name)

		l.mu.Lock()
		newConfig, err := l.decode()
		l.mu.Unlock()
		if err != nil {
			logger.Error("failed to reload config: %v", err)
			return
		}

		if err := callback(newConfig); err != nil {
			logger.Error("failed to apply new config: %v", err)
			return
		}

		logger.Info("config reloaded and applied")
	})
	l.v.WatchConfig()

	return nil
}
