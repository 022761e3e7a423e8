package stream

import (
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/fellwalk/fellwalk/internal/sim/phys"
	"github.com/fellwalk/fellwalk/internal/sim/terrain"
)

// Config tunes chunk streaming around the reference point.
type Config struct {
	// LoadRadius is the chunk-grid (Chebyshev) radius kept loaded around
	// the reference position.
	LoadRadius int `json:"load_radius"`
	// Hysteresis is how many chunks past LoadRadius a chunk may drift
	// before it unloads, preventing thrash at the boundary.
	Hysteresis int `json:"hysteresis"`
	// MaxPerTick bounds background generation dispatches per tick.
	MaxPerTick int `json:"max_per_tick"`
	// Workers is the size of the generation worker pool.
	Workers int `json:"workers"`
}

// DefaultConfig returns streaming limits suited to the default chunk size.
func DefaultConfig() Config {
	return Config{LoadRadius: 4, Hysteresis: 1, MaxPerTick: 4, Workers: 2}
}

func (c Config) sanitized() Config {
	if c.LoadRadius < 1 {
		c.LoadRadius = 1
	}
	if c.Hysteresis < 0 {
		c.Hysteresis = 0
	}
	if c.MaxPerTick < 1 {
		c.MaxPerTick = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return c
}

type loaded struct {
	chunk    *terrain.Chunk
	collider phys.ColliderHandle
}

type result struct {
	key   terrain.ChunkKey
	chunk *terrain.Chunk
	err   error
}

// Manager owns chunk lifecycle: it loads chunks entering the streaming
// radius, registers their colliders, and unloads chunks leaving the
// radius plus hysteresis. Chunks in the character's immediate vicinity
// are generated synchronously so collision geometry always exists before
// the physics solve that needs it; everything else is produced by a
// bounded worker pool and integrated at tick boundaries.
//
// Update and the accessors run on the simulation goroutine only; workers
// never touch the chunk map, they hand immutable chunks back over a
// channel.
type Manager struct {
	cfg Config
	log *slog.Logger
	gen *terrain.Generator
	reg phys.ColliderRegistrar

	chunks  map[terrain.ChunkKey]*loaded
	pending map[terrain.ChunkKey]struct{}
	results chan result
	pool    *errgroup.Group

	lastRef mgl64.Vec3
}

// NewManager creates a streaming manager over the given generator and
// collider registrar.
func NewManager(gen *terrain.Generator, reg phys.ColliderRegistrar, cfg Config, log *slog.Logger) *Manager {
	cfg = cfg.sanitized()

	pool := new(errgroup.Group)
	pool.SetLimit(cfg.Workers)

	// The channel holds every key that can possibly be in flight, so
	// workers never block on hand-off.
	span := 2*(cfg.LoadRadius+cfg.Hysteresis) + 3

	return &Manager{
		cfg:     cfg,
		log:     log,
		gen:     gen,
		reg:     reg,
		chunks:  make(map[terrain.ChunkKey]*loaded),
		pending: make(map[terrain.ChunkKey]struct{}),
		results: make(chan result, span*span),
		pool:    pool,
	}
}

// Update advances streaming for one tick. maxDisplacement is the largest
// distance the character can move before the next Update (body radius
// included); every chunk within it is loaded synchronously right now, so
// this tick's physics solve can never run over unregistered terrain.
func (m *Manager) Update(ref mgl64.Vec3, maxDisplacement float64) {
	m.lastRef = ref
	m.integrateResults()

	size := m.gen.Config().ChunkSize
	center := terrain.KeyAt(ref.X(), ref.Z(), size)

	// Never-deferred immediate vicinity.
	for _, key := range keysCoveringSquare(ref.X(), ref.Z(), maxDisplacement, size) {
		if _, ok := m.chunks[key]; !ok {
			m.loadNow(key)
		}
	}

	// Budgeted background generation, nearest chunks first.
	dispatched := 0
	for _, key := range keysByDistance(center, m.cfg.LoadRadius) {
		if dispatched >= m.cfg.MaxPerTick {
			break
		}
		if _, ok := m.chunks[key]; ok {
			continue
		}
		if _, ok := m.pending[key]; ok {
			continue
		}
		if m.dispatch(key) {
			dispatched++
		}
	}

	// Unload outside the hysteresis band.
	limit := m.cfg.LoadRadius + m.cfg.Hysteresis
	for key, lc := range m.chunks {
		if chebyshev(key, center) > limit {
			m.reg.Unregister(lc.collider)
			delete(m.chunks, key)
		}
	}
}

// Chunk returns the loaded chunk for key, if present.
func (m *Manager) Chunk(key terrain.ChunkKey) (*terrain.Chunk, bool) {
	lc, ok := m.chunks[key]
	if !ok {
		return nil, false
	}
	return lc.chunk, true
}

// LoadedCount returns the number of resident chunks.
func (m *Manager) LoadedCount() int {
	return len(m.chunks)
}

// PendingCount returns the number of in-flight generation tasks.
func (m *Manager) PendingCount() int {
	return len(m.pending)
}

// ForEachChunk calls fn for every resident chunk; the render layer uses
// this to pick up meshes.
func (m *Manager) ForEachChunk(fn func(*terrain.Chunk)) {
	for _, lc := range m.chunks {
		fn(lc.chunk)
	}
}

// Close waits for in-flight generation tasks and discards their output.
func (m *Manager) Close() {
	_ = m.pool.Wait()
}

// integrateResults folds finished worker output into the live world.
// This is the only place background chunks become visible, and it runs
// on the simulation goroutine at the tick boundary.
func (m *Manager) integrateResults() {
	size := m.gen.Config().ChunkSize
	center := terrain.KeyAt(m.lastRef.X(), m.lastRef.Z(), size)
	limit := m.cfg.LoadRadius + m.cfg.Hysteresis

	for {
		select {
		case r := <-m.results:
			delete(m.pending, r.key)

			if r.err != nil {
				m.log.Warn("chunk generation failed",
					"cx", r.key.X, "cz", r.key.Z, "error", r.err)
				continue
			}
			// A task whose key left the radius finishes and is thrown
			// away; simpler than mid-flight cancellation and bounded by
			// the per-tick budget.
			if chebyshev(r.key, center) > limit {
				continue
			}
			// Already resident, e.g. loaded synchronously while the
			// task was in flight.
			if _, ok := m.chunks[r.key]; ok {
				continue
			}
			m.install(r.key, r.chunk)
		default:
			return
		}
	}
}

func (m *Manager) install(key terrain.ChunkKey, chunk *terrain.Chunk) {
	handle, err := m.reg.RegisterCollider(chunk.Collider)
	if err != nil {
		// The chunk stays absent; a later tick regenerates it.
		m.log.Warn("collider registration rejected",
			"cx", key.X, "cz", key.Z, "error", err)
		return
	}
	m.chunks[key] = &loaded{chunk: chunk, collider: handle}
}

// loadNow generates and installs a chunk synchronously.
func (m *Manager) loadNow(key terrain.ChunkKey) {
	chunk, err := m.gen.Generate(key)
	if err != nil {
		m.log.Error("immediate chunk generation failed",
			"cx", key.X, "cz", key.Z, "error", err)
		return
	}
	m.install(key, chunk)
}

// dispatch hands a key to the worker pool. Returns false when every
// worker is busy; the key is retried on a later tick.
func (m *Manager) dispatch(key terrain.ChunkKey) bool {
	ok := m.pool.TryGo(func() error {
		chunk, err := m.gen.Generate(key)
		m.results <- result{key: key, chunk: chunk, err: err}
		return nil
	})
	if ok {
		m.pending[key] = struct{}{}
	}
	return ok
}

// keysByDistance lists every key within radius of center, closest ring
// first, in a deterministic order.
func keysByDistance(center terrain.ChunkKey, radius int) []terrain.ChunkKey {
	keys := make([]terrain.ChunkKey, 0, (2*radius+1)*(2*radius+1))
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			keys = append(keys, terrain.ChunkKey{X: center.X + dx, Z: center.Z + dz})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := chebyshev(keys[i], center), chebyshev(keys[j], center)
		if di != dj {
			return di < dj
		}
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Z < keys[j].Z
	})
	return keys
}

// keysCoveringSquare returns the keys of every chunk intersecting the
// axis-aligned square of half-width r around (x, z).
func keysCoveringSquare(x, z, r, chunkSize float64) []terrain.ChunkKey {
	min := terrain.KeyAt(x-r, z-r, chunkSize)
	max := terrain.KeyAt(x+r, z+r, chunkSize)

	keys := make([]terrain.ChunkKey, 0, (max.X-min.X+1)*(max.Z-min.Z+1))
	for cz := min.Z; cz <= max.Z; cz++ {
		for cx := min.X; cx <= max.X; cx++ {
			keys = append(keys, terrain.ChunkKey{X: cx, Z: cz})
		}
	}
	return keys
}

func chebyshev(a, b terrain.ChunkKey) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	if dz > dx {
		return dz
	}
	return dx
}
