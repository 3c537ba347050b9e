package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config carries process-level settings: storage location, logging, and the
// engine's timing knobs. UI-facing settings (autostart, hold-to-dismiss
// time) live in the app preferences instead.
type Config struct {
	DatabasePath string `yaml:"database_path" env:"DAYBREAK_DB"`

	Log struct {
		Level  string `yaml:"level" env:"DAYBREAK_LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"DAYBREAK_LOG_FORMAT" env-default:"console"`
	} `yaml:"log"`

	Engine struct {
		// WakeScanInterval is how often armed wakes are checked against the
		// wall clock.
		WakeScanInterval time.Duration `yaml:"wake_scan_interval" env:"DAYBREAK_WAKE_SCAN_INTERVAL" env-default:"1s"`
		// GraceDelay is the pause before a repeating alarm that just rang is
		// re-armed.
		GraceDelay time.Duration `yaml:"grace_delay" env:"DAYBREAK_GRACE_DELAY" env-default:"3s"`
	} `yaml:"engine"`
}

// Load reads the optional YAML config file and applies environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			cfg.applyDefaults()
			return cfg, nil
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = defaultDatabasePath()
	}
	if c.Engine.WakeScanInterval <= 0 {
		c.Engine.WakeScanInterval = time.Second
	}
	if c.Engine.GraceDelay < 0 {
		c.Engine.GraceDelay = 0
	}
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "daybreak.db"
	}
	return filepath.Join(dir, "daybreak", "alarms.db")
}
