// Package config loads the server and tuning configuration from YAML.
// Every field has a sensible default; a missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greenfield-games/ecoquest/internal/engine"
)

// Config is the full server configuration.
type Config struct {
	Port     int    `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	AdminKey string `yaml:"admin_key"`

	// Durations in milliseconds.
	TickIntervalMS int `yaml:"tick_interval_ms"`
	SyncDebounceMS int `yaml:"sync_debounce_ms"`

	EnvWindowSize     int `yaml:"env_window_size"`
	NotificationLimit int `yaml:"notification_limit"`
	EventLogCapacity  int `yaml:"event_log_capacity"`
	BuildTicks        int `yaml:"build_ticks"`

	Outcome OutcomeConfig `yaml:"outcome"`
}

// OutcomeConfig holds the win/loss thresholds.
type OutcomeConfig struct {
	MinTicks   uint64  `yaml:"min_ticks"`
	LossEnergy float64 `yaml:"loss_energy"`
	LossEco    float64 `yaml:"loss_eco"`
	WinEco     float64 `yaml:"win_eco"`
}

// Default returns the reference configuration.
func Default() Config {
	t := engine.DefaultTuning()
	return Config{
		Port:              8080,
		DBPath:            "data/ecoquest.db",
		TickIntervalMS:    int(t.TickInterval / time.Millisecond),
		SyncDebounceMS:    1400,
		EnvWindowSize:     t.EnvWindowSize,
		NotificationLimit: t.NotificationLimit,
		EventLogCapacity:  30,
		BuildTicks:        t.BuildTicks,
		Outcome: OutcomeConfig{
			MinTicks:   t.MinTicksForOutcome,
			LossEnergy: t.LossEnergyThreshold,
			LossEco:    t.LossEcoThreshold,
			WinEco:     t.WinEcoThreshold,
		},
	}
}

// Load reads the YAML file at path, overlaying it on the defaults. A missing
// file yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if cfg.TickIntervalMS <= 0 || cfg.EnvWindowSize <= 0 || cfg.NotificationLimit <= 0 {
		return cfg, fmt.Errorf("config %s: intervals and bounds must be positive", path)
	}
	return cfg, nil
}

// Tuning converts the config into the engine's constant bundle.
func (c Config) Tuning() engine.Tuning {
	return engine.Tuning{
		TickInterval:        time.Duration(c.TickIntervalMS) * time.Millisecond,
		EnvWindowSize:       c.EnvWindowSize,
		NotificationLimit:   c.NotificationLimit,
		BuildTicks:          c.BuildTicks,
		MinTicksForOutcome:  c.Outcome.MinTicks,
		LossEnergyThreshold: c.Outcome.LossEnergy,
		LossEcoThreshold:    c.Outcome.LossEco,
		WinEcoThreshold:     c.Outcome.WinEco,
	}
}

// SyncDebounce returns the persistence debounce interval.
func (c Config) SyncDebounce() time.Duration {
	return time.Duration(c.SyncDebounceMS) * time.Millisecond
}
