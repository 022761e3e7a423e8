package terrain

import (
	"fmt"

	"github.com/fellwalk/fellwalk/internal/sim/terrain/noise"
)

// Config sets the chunk grid geometry.
type Config struct {
	// ChunkSize is the world-unit extent of one chunk edge.
	ChunkSize float64 `json:"chunk_size"`
	// Resolution is the number of cells per chunk edge. The sample grid is
	// one larger in each direction so chunk edges share vertices.
	Resolution int `json:"resolution"`
}

// DefaultConfig returns chunk geometry suited to the default sampler.
func DefaultConfig() Config {
	return Config{ChunkSize: 32.0, Resolution: 32}
}

func (c Config) validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size %v: must be positive", c.ChunkSize)
	}
	if c.Resolution < 1 {
		return fmt.Errorf("chunk resolution %d: must be at least 1", c.Resolution)
	}
	return nil
}

// Generator converts chunk keys into immutable Chunks by sampling the
// height field over the chunk's grid. Generators are safe for concurrent
// use across distinct keys; they hold no mutable state.
type Generator struct {
	sampler *noise.Sampler
	cfg     Config
}

// NewGenerator creates a Generator over the given sampler.
func NewGenerator(sampler *noise.Sampler, cfg Config) *Generator {
	return &Generator{sampler: sampler, cfg: cfg}
}

// Config returns the generator's chunk geometry.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate samples, meshes, and builds the collider for one chunk. A
// malformed configuration fails this chunk only; the caller may retry
// with corrected parameters on a later tick.
func (g *Generator) Generate(key ChunkKey) (*Chunk, error) {
	if err := g.cfg.validate(); err != nil {
		return nil, fmt.Errorf("generate chunk (%d,%d): %w", key.X, key.Z, err)
	}

	cells := g.cfg.Resolution
	stride := cells + 1
	cellSize := g.cfg.ChunkSize / float64(cells)

	// Sample the full (N+1)×(N+1) grid. World coordinates derive from the
	// global grid index, never from origin+offset sums: when the cell size
	// is not exactly representable, both neighbors still compute the
	// shared-edge coordinate as the identical product, so the pure sampler
	// returns bit-identical elevations on both sides of the seam.
	gx0, gz0 := key.X*cells, key.Z*cells
	heights := make([]float64, stride*stride)
	for iz := 0; iz < stride; iz++ {
		for ix := 0; ix < stride; ix++ {
			wx := float64(gx0+ix) * cellSize
			wz := float64(gz0+iz) * cellSize
			heights[iz*stride+ix] = g.sampler.Sample(wx, wz)
		}
	}

	return &Chunk{
		Key:        key,
		Resolution: cells,
		Heights:    heights,
		Mesh:       buildMesh(gx0, gz0, cellSize, cells, heights, g.sampler.SampleGradient),
		Collider:   NewHeightfield(float64(gx0)*cellSize, float64(gz0)*cellSize, cellSize, cells, heights),
	}, nil
}
