package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", "does-not-exist.yaml"} {
		cfg := Load(path)
		if cfg != defaultConfig() {
			t.Errorf("Load(%q) = %+v, want defaults", path, cfg)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("tick_hz: 500\ntemp_poll_ms: 250\nlog_level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.TickHz != 500 || cfg.TempPollMS != 250 || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.GyroPollMS != 100 || cfg.DisplayQueueCap != 8 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("tick_hz: 0\ntemp_poll_ms: -5\nmax_tasks: 4000\ndisplay_queue_cap: 0\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.TickHz != 1000 || cfg.TempPollMS != 500 || cfg.MaxTasks != 16 || cfg.DisplayQueueCap != 8 {
		t.Fatalf("clamps not applied: %+v", cfg)
	}
}
