package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Sync     SyncConfig     `yaml:"sync"`
	Reminder ReminderConfig `yaml:"reminder"`
	Store    StoreConfig    `yaml:"store"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// SyncConfig points at the auth + REST backend used for cloud backups.
type SyncConfig struct {
	URL     string        `yaml:"url"`
	AnonKey string        `yaml:"anon_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether both the endpoint and the public key are set.
func (c SyncConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.AnonKey) != ""
}

type ReminderConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type StoreConfig struct {
	// MirrorLegacyLogs keeps the date → minutes map under the old key current
	// for external tools that still read it.
	MirrorLegacyLogs bool `yaml:"mirror_legacy_logs"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	dir := defaultDir()
	return Config{
		DB: DBConfig{
			Path: filepath.Join(dir, "devpulse.db"),
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(dir, "devpulse.log"),
		},
		Sync: SyncConfig{
			Timeout: 15 * time.Second,
		},
		Reminder: ReminderConfig{
			PollInterval: 30 * time.Second,
		},
		Store: StoreConfig{
			MirrorLegacyLogs: true,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DEVPULSE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dbPath := os.Getenv("DEVPULSE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("DEVPULSE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("DEVPULSE_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if url := os.Getenv("DEVPULSE_SUPABASE_URL"); url != "" {
		cfg.Sync.URL = strings.TrimRight(url, "/")
	}
	if key := os.Getenv("DEVPULSE_SUPABASE_ANON_KEY"); key != "" {
		cfg.Sync.AnonKey = key
	}
	if v := os.Getenv("DEVPULSE_SYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEVPULSE_SYNC_TIMEOUT: %w", err)
		}
		cfg.Sync.Timeout = d
	}
	if v := os.Getenv("DEVPULSE_REMINDER_POLL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEVPULSE_REMINDER_POLL: %w", err)
		}
		cfg.Reminder.PollInterval = d
	}
	if v := os.Getenv("DEVPULSE_MIRROR_LEGACY_LOGS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEVPULSE_MIRROR_LEGACY_LOGS: %w", err)
		}
		cfg.Store.MirrorLegacyLogs = b
	}

	if cfg.Sync.Timeout <= 0 {
		cfg.Sync.Timeout = 15 * time.Second
	}
	if cfg.Reminder.PollInterval <= 0 {
		cfg.Reminder.PollInterval = 30 * time.Second
	}
	cfg.Sync.URL = strings.TrimRight(cfg.Sync.URL, "/")

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// defaultDir returns ~/.config/devpulse, or the working directory when the
// user config dir cannot be resolved.
func defaultDir() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(cfg, "devpulse")
}
