// Package config loads the demo configuration from YAML with sane defaults.
package config

import (
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yaml.
type Config struct {
	TickHz          uint32 `yaml:"tick_hz"`           // 1000 (by default)
	TempPollMS      int    `yaml:"temp_poll_ms"`      // 500 (by default)
	GyroPollMS      int    `yaml:"gyro_poll_ms"`      // 100 (by default)
	DisplayQueueCap int    `yaml:"display_queue_cap"` // 8 (by default)
	MaxTasks        int    `yaml:"max_tasks"`         // 16 (by default)
	LogLevel        string `yaml:"log_level"`         // "info" (by default)
}

// If the config file is not found, we use default values.
func defaultConfig() Config {
	return Config{
		TickHz:          1000,
		TempPollMS:      500,
		GyroPollMS:      100,
		DisplayQueueCap: 8,
		MaxTasks:        16,
		LogLevel:        "info",
	}
}

// Load reads YAML and overrides defaults; empty or missing path = defaults only.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps
	if cfg.TickHz == 0 {
		cfg.TickHz = 1000
	}
	if cfg.TempPollMS <= 0 {
		cfg.TempPollMS = 500
	}
	if cfg.GyroPollMS <= 0 {
		cfg.GyroPollMS = 100
	}
	if cfg.DisplayQueueCap <= 0 {
		cfg.DisplayQueueCap = 8
	}
	if cfg.MaxTasks <= 0 || cfg.MaxTasks > 255 {
		cfg.MaxTasks = 16
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg
}
