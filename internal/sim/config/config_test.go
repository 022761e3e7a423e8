package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }},
		{"negative chunk size", func(c *Config) { c.Chunks.ChunkSize = -1 }},
		{"zero resolution", func(c *Config) { c.Chunks.Resolution = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadMissingFileLeavesConfigUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	want := *cfg
	if err := Load(filepath.Join(t.TempDir(), "absent.json"), cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != want {
		t.Error("Load() of a missing file changed the config")
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"tick_rate": 30, "noise": {"seed": 7}, "streaming": {"load_radius": 9}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := Load(path, cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TickRate != 30 {
		t.Errorf("TickRate = %d, want 30", cfg.TickRate)
	}
	if cfg.Noise.Seed != 7 {
		t.Errorf("Noise.Seed = %d, want 7", cfg.Noise.Seed)
	}
	if cfg.Streaming.LoadRadius != 9 {
		t.Errorf("Streaming.LoadRadius = %d, want 9", cfg.Streaming.LoadRadius)
	}
	// Absent keys keep their defaults.
	if got, want := cfg.Chunks.ChunkSize, DefaultConfig().Chunks.ChunkSize; got != want {
		t.Errorf("Chunks.ChunkSize = %v, want default %v", got, want)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Load(path, DefaultConfig()); err == nil {
		t.Error("Load() = nil, want parse error")
	}
}

func TestMergeKeepsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Noise.Seed = 99
	cfg.TickRate = 120

	fromFile := DefaultConfig()
	fromFile.Noise.Seed = 1
	fromFile.TickRate = 30
	fromFile.Streaming.LoadRadius = 9

	Merge(cfg, fromFile, map[string]bool{"seed": true})

	if cfg.Noise.Seed != 99 {
		t.Errorf("Noise.Seed = %d, want explicit flag value 99", cfg.Noise.Seed)
	}
	if cfg.TickRate != 30 {
		t.Errorf("TickRate = %d, want file value 30", cfg.TickRate)
	}
	if cfg.Streaming.LoadRadius != 9 {
		t.Errorf("Streaming.LoadRadius = %d, want file value 9", cfg.Streaming.LoadRadius)
	}
}
