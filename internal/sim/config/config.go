package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fellwalk/fellwalk/internal/sim/control"
	"github.com/fellwalk/fellwalk/internal/sim/terrain"
	"github.com/fellwalk/fellwalk/internal/sim/terrain/noise"
	"github.com/fellwalk/fellwalk/internal/sim/terrain/stream"
)

// Config holds the full simulation configuration.
type Config struct {
	// TickRate is the fixed simulation rate in ticks per second.
	TickRate int `json:"tick_rate"`

	Noise     noise.Params   `json:"noise"`
	Chunks    terrain.Config `json:"chunks"`
	Streaming stream.Config  `json:"streaming"`
	Character control.Tuning `json:"character"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TickRate:  60,
		Noise:     noise.DefaultParams(),
		Chunks:    terrain.DefaultConfig(),
		Streaming: stream.DefaultConfig(),
		Character: control.DefaultTuning(),
	}
}

// Validate reports the first problem with cfg that cannot be corrected by
// clamping.
func (c *Config) Validate() error {
	if c.TickRate < 1 {
		return fmt.Errorf("tick rate %d: must be at least 1", c.TickRate)
	}
	if c.Chunks.ChunkSize <= 0 {
		return fmt.Errorf("chunk size %v: must be positive", c.Chunks.ChunkSize)
	}
	if c.Chunks.Resolution < 1 {
		return fmt.Errorf("chunk resolution %d: must be at least 1", c.Chunks.Resolution)
	}
	return nil
}

// Load reads a JSON config file into cfg. If the file does not exist, cfg
// is unchanged.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Noise.Seed = fromFile.Noise.Seed
	}
	if !explicitFlags["tick-rate"] {
		cfg.TickRate = fromFile.TickRate
	}
	if !explicitFlags["chunk-size"] {
		cfg.Chunks.ChunkSize = fromFile.Chunks.ChunkSize
	}
	if !explicitFlags["resolution"] {
		cfg.Chunks.Resolution = fromFile.Chunks.Resolution
	}
	if !explicitFlags["load-radius"] {
		cfg.Streaming.LoadRadius = fromFile.Streaming.LoadRadius
	}
	if !explicitFlags["workers"] {
		cfg.Streaming.Workers = fromFile.Streaming.Workers
	}

	// No flags exist for these; the file always decides.
	cfg.Streaming.Hysteresis = fromFile.Streaming.Hysteresis
	cfg.Streaming.MaxPerTick = fromFile.Streaming.MaxPerTick
	cfg.Noise.Octaves = fromFile.Noise.Octaves
	cfg.Noise.Lacunarity = fromFile.Noise.Lacunarity
	cfg.Noise.Persistence = fromFile.Noise.Persistence
	cfg.Noise.BaseFrequency = fromFile.Noise.BaseFrequency
	cfg.Noise.Amplitude = fromFile.Noise.Amplitude
	cfg.Character = fromFile.Character
}
