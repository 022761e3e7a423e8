package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/fellwalk/fellwalk/internal/sim/config"
	"github.com/fellwalk/fellwalk/internal/sim/control"
	"github.com/fellwalk/fellwalk/internal/sim/phys"
	"github.com/fellwalk/fellwalk/internal/sim/terrain"
	"github.com/fellwalk/fellwalk/internal/sim/terrain/noise"
	"github.com/fellwalk/fellwalk/internal/sim/terrain/stream"
)

// Character capsule dimensions in world units.
const (
	bodyRadius = 0.4
	bodyHeight = 1.8
)

// spawnClearance is how far above the sampled surface the character
// spawns, so the first tick settles it onto the ground.
const spawnClearance = 2.0

// IntentSource produces one motion intent per simulation tick. Input
// devices, replays, and scripted test drivers all sit behind it.
type IntentSource interface {
	Next(tick uint64) control.MotionIntent
}

// Runner wires terrain streaming, the kinematic physics world, and the
// character controller into one fixed-timestep simulation.
type Runner struct {
	cfg        *config.Config
	log        *slog.Logger
	world      *phys.World
	chunks     *stream.Manager
	controller *control.Controller
	body       phys.BodyHandle

	dt   float64
	tick uint64
}

// New builds a Runner from cfg. The character spawns above the terrain
// at the world origin.
func New(cfg *config.Config, log *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	sampler := noise.NewSampler(cfg.Noise)
	gen := terrain.NewGenerator(sampler, cfg.Chunks)
	world := phys.NewWorld()
	chunks := stream.NewManager(gen, world, cfg.Streaming, log)

	spawn := mgl64.Vec3{0, sampler.Sample(0, 0) + spawnClearance, 0}
	body := world.AddBody(spawn, bodyRadius, bodyHeight)

	return &Runner{
		cfg:        cfg,
		log:        log,
		world:      world,
		chunks:     chunks,
		controller: control.NewController(world, body, cfg.Character),
		body:       body,
		dt:         1.0 / float64(cfg.TickRate),
	}, nil
}

// Tick advances the simulation one step: stream chunks around the
// character, run the controller, then solve physics. Streaming goes
// first with a displacement bound covering the whole step, so the solve
// never runs over missing terrain.
func (r *Runner) Tick(intent control.MotionIntent) {
	pos := r.world.BodyPosition(r.body)
	vel := r.world.BodyVelocity(r.body)

	// Worst-case travel this tick: current speed plus one tick of ground
	// acceleration, plus the body's own footprint.
	reach := (vel.Len()+r.cfg.Character.GroundAccel*r.dt)*r.dt + bodyRadius

	r.chunks.Update(pos, reach)
	r.controller.Tick(intent, r.dt)
	r.world.Step(r.dt)
	r.tick++
}

// Run drives Tick at the configured rate until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, intents IntentSource) error {
	interval := time.Duration(float64(time.Second) / float64(r.cfg.TickRate))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer r.chunks.Close()

	r.log.Info("simulation started",
		"tickRate", r.cfg.TickRate,
		"seed", r.cfg.Noise.Seed,
		"chunkSize", r.cfg.Chunks.ChunkSize,
		"loadRadius", r.cfg.Streaming.LoadRadius,
	)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("simulation shutting down", "ticks", r.tick)
			return nil
		case <-ticker.C:
			r.Tick(intents.Next(r.tick))
		}
	}
}

// TickCount returns the number of completed ticks.
func (r *Runner) TickCount() uint64 {
	return r.tick
}

// Position returns the character's current foot position.
func (r *Runner) Position() mgl64.Vec3 {
	return r.world.BodyPosition(r.body)
}

// Velocity returns the character's current velocity.
func (r *Runner) Velocity() mgl64.Vec3 {
	return r.world.BodyVelocity(r.body)
}

// Character returns the controller's current state.
func (r *Runner) Character() control.CharacterState {
	return r.controller.State()
}

// LoadedChunks returns the number of resident terrain chunks.
func (r *Runner) LoadedChunks() int {
	return r.chunks.LoadedCount()
}

// ForEachChunk visits every resident chunk, for mesh hand-off to a
// render layer.
func (r *Runner) ForEachChunk(fn func(*terrain.Chunk)) {
	r.chunks.ForEachChunk(fn)
}
