package noise

// Fractal height field sampling on top of coherent simplex noise.
// Chunks are generated independently, so everything here must be a pure
// function of (params, x, z): identical inputs return bit-identical
// elevations no matter when or on which goroutine they are sampled.

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// gradientEpsilon is the fixed step used for the central-difference
// gradient. It must never vary between calls or chunk edges would
// disagree on their normals.
const gradientEpsilon = 1.0 / 1024.0

// Params configures a Sampler. Out-of-range values are clamped by
// NewSampler rather than rejected.
type Params struct {
	Seed          int64   `json:"seed"`
	Octaves       int     `json:"octaves"`
	Lacunarity    float64 `json:"lacunarity"`    // frequency multiplier per octave
	Persistence   float64 `json:"persistence"`   // amplitude falloff per octave
	BaseFrequency float64 `json:"base_frequency"`
	Amplitude     float64 `json:"amplitude"` // world-unit elevation scale
}

// DefaultParams returns sampler parameters for gently rolling terrain.
func DefaultParams() Params {
	return Params{
		Seed:          42,
		Octaves:       5,
		Lacunarity:    2.0,
		Persistence:   0.5,
		BaseFrequency: 1.0 / 96.0,
		Amplitude:     14.0,
	}
}

// Sampler is a deterministic elevation function h(x, z) built from an
// octave sum of simplex noise.
type Sampler struct {
	params Params
	source opensimplex.Noise
	// norm rescales the octave sum back into [-1, 1] before amplitude
	// is applied; precomputed because it only depends on the params.
	norm float64
}

// NewSampler creates a Sampler, clamping params into their valid ranges.
func NewSampler(params Params) *Sampler {
	params = clampParams(params)

	maxVal := 0.0
	amp := 1.0
	for i := 0; i < params.Octaves; i++ {
		maxVal += amp
		amp *= params.Persistence
	}

	return &Sampler{
		params: params,
		source: opensimplex.New(params.Seed),
		norm:   1.0 / maxVal,
	}
}

// Params returns the clamped parameters the sampler was built with.
func (s *Sampler) Params() Params {
	return s.params
}

// Sample returns the elevation at world coordinates (x, z).
func (s *Sampler) Sample(x, z float64) float64 {
	total := 0.0
	freq := s.params.BaseFrequency
	amp := 1.0

	for i := 0; i < s.params.Octaves; i++ {
		total += s.source.Eval2(x*freq, z*freq) * amp
		freq *= s.params.Lacunarity
		amp *= s.params.Persistence
	}
	return total * s.norm * s.params.Amplitude
}

// SampleGradient returns (dElev/dx, dElev/dz) at (x, z) via a fixed-step
// central difference over the height field. The step is constant, so the
// gradient is as reproducible as Sample itself.
func (s *Sampler) SampleGradient(x, z float64) (dx, dz float64) {
	const h = gradientEpsilon
	dx = (s.Sample(x+h, z) - s.Sample(x-h, z)) / (2 * h)
	dz = (s.Sample(x, z+h) - s.Sample(x, z-h)) / (2 * h)
	return dx, dz
}

// clampParams forces every field into its usable range. Sampling is pure
// math with no failure mode, so bad configuration degrades to the nearest
// sane value instead of erroring.
func clampParams(p Params) Params {
	if p.Octaves < 1 {
		p.Octaves = 1
	}
	if p.Octaves > 16 {
		p.Octaves = 16
	}
	if p.Lacunarity < 1.0 {
		p.Lacunarity = 1.0
	}
	if p.Persistence <= 0 {
		p.Persistence = 0.5
	}
	if p.Persistence > 1.0 {
		p.Persistence = 1.0
	}
	if p.BaseFrequency <= 0 {
		p.BaseFrequency = 1.0 / 96.0
	}
	if p.Amplitude < 0 {
		p.Amplitude = -p.Amplitude
	}
	return p
}
