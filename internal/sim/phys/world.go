package phys

import (
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// defaultStepTolerance is how far the surface ahead may rise above a
// body's integrated foot height before the motion counts as a wall hit
// rather than a slope. Anything taller is blocked and surfaces as a wall
// contact for the controller's step-up handling. Tunable per world via
// SetStepTolerance.
const defaultStepTolerance = 0.08

// World is a kinematic physics world over static heightfield colliders.
// Bodies are velocity-driven capsules represented by their foot point;
// the world integrates them on a fixed step, resolves penetration against
// the terrain, and records wall hits. It implements Engine and stands in
// for a host physics engine in tests and the headless demo.
//
// All methods are called from the simulation goroutine; the lock only
// guards against misuse, not a concurrent design.
type World struct {
	mu sync.RWMutex

	stepTol      float64
	nextCollider ColliderHandle
	nextBody     BodyHandle
	colliders    map[ColliderHandle]Shape
	bodies       map[BodyHandle]*body
}

type body struct {
	pos    mgl64.Vec3 // foot point
	vel    mgl64.Vec3
	radius float64
	height float64

	wall    Contact
	hasWall bool
}

// NewWorld creates an empty physics world.
func NewWorld() *World {
	return &World{
		stepTol:   defaultStepTolerance,
		colliders: make(map[ColliderHandle]Shape),
		bodies:    make(map[BodyHandle]*body),
	}
}

// SetStepTolerance overrides the rise at which forward motion counts as
// a wall hit instead of a slope. Tune it together with the controller's
// step height.
func (w *World) SetStepTolerance(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stepTol = v
}

// RegisterCollider adds a static shape to the world. Zero-area shapes are
// rejected with ErrDegenerateShape.
func (w *World) RegisterCollider(shape Shape) (ColliderHandle, error) {
	minX, minZ, maxX, maxZ := shape.Bounds()
	if maxX <= minX || maxZ <= minZ {
		return 0, ErrDegenerateShape
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextCollider++
	w.colliders[w.nextCollider] = shape
	return w.nextCollider, nil
}

// Unregister removes a collider. Unknown handles are ignored.
func (w *World) Unregister(h ColliderHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.colliders, h)
}

// ColliderCount returns the number of registered colliders.
func (w *World) ColliderCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.colliders)
}

// AddBody creates a kinematic body at pos with the given capsule extents.
func (w *World) AddBody(pos mgl64.Vec3, radius, height float64) BodyHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextBody++
	w.bodies[w.nextBody] = &body{pos: pos, radius: radius, height: height}
	return w.nextBody
}

// RemoveBody deletes a body. Unknown handles are ignored.
func (w *World) RemoveBody(h BodyHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.bodies, h)
}

// BodyPosition returns the body's foot position.
func (w *World) BodyPosition(h BodyHandle) mgl64.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.bodies[h]; ok {
		return b.pos
	}
	return mgl64.Vec3{}
}

// BodyVelocity returns the body's current velocity, after any resolution
// applied by the last Step.
func (w *World) BodyVelocity(h BodyHandle) mgl64.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.bodies[h]; ok {
		return b.vel
	}
	return mgl64.Vec3{}
}

// SetBodyVelocity replaces the body's velocity for the next Step.
func (w *World) SetBodyVelocity(h BodyHandle, vel mgl64.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[h]; ok {
		b.vel = vel
	}
}

// NudgeBody translates the body directly. Only the controller's bounded
// step-up correction uses this.
func (w *World) NudgeBody(h BodyHandle, delta mgl64.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[h]; ok {
		b.pos = b.pos.Add(delta)
	}
}

// LastWallContact returns the horizontal obstruction recorded in the most
// recent Step, if any. Penetration holds the obstruction height above the
// body's foot.
func (w *World) LastWallContact(h BodyHandle) (Contact, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.bodies[h]; ok && b.hasWall {
		return b.wall, true
	}
	return Contact{}, false
}

// QueryContactsNear returns terrain contacts whose surface lies within
// radius of pos vertically, ordered by penetration depth (shallowest
// first) so ambiguous multi-contact queries resolve deterministically.
func (w *World) QueryContactsNear(pos mgl64.Vec3, radius float64) []Contact {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var contacts []Contact
	for _, shape := range w.colliders {
		surface, ok := shape.SampleHeight(pos.X(), pos.Z())
		if !ok {
			continue
		}
		pen := surface - pos.Y()
		if math.Abs(pen) > radius {
			continue
		}
		normal, ok := shape.SampleNormal(pos.X(), pos.Z())
		if !ok {
			continue
		}
		contacts = append(contacts, Contact{
			Point:       mgl64.Vec3{pos.X(), surface, pos.Z()},
			Normal:      normal,
			Penetration: pen,
		})
	}

	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].Penetration != contacts[j].Penetration {
			return contacts[i].Penetration < contacts[j].Penetration
		}
		// Full ordering for identical depths keeps the query
		// deterministic across map iteration order.
		ni, nj := contacts[i].Normal, contacts[j].Normal
		if ni.X() != nj.X() {
			return ni.X() < nj.X()
		}
		if ni.Y() != nj.Y() {
			return ni.Y() < nj.Y()
		}
		return ni.Z() < nj.Z()
	})
	return contacts
}

// Step advances every body by one fixed timestep: integrate velocity,
// block motion into rises taller than the step tolerance, and resolve
// ground penetration by sliding along the contact plane.
func (w *World) Step(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range w.bodies {
		w.stepBody(b, dt)
	}
}

func (w *World) stepBody(b *body, dt float64) {
	b.hasWall = false

	candidate := b.pos.Add(b.vel.Mul(dt))

	ground, groundNormal, covered := w.surfaceAt(candidate.X(), candidate.Z())

	// Wall check: the surface ahead sits above the integrated foot height
	// by more than a slope step could explain. Cancel the horizontal
	// motion and record the obstruction for step-up handling. A body with
	// no horizontal motion cannot hit a wall; that case is plain ground
	// penetration.
	horiz := mgl64.Vec3{b.vel.X(), 0, b.vel.Z()}
	if covered && horiz.Len() > 0 && ground-candidate.Y() > w.stepTol {
		normal := horiz.Mul(-1 / horiz.Len())
		b.wall = Contact{
			Point:       mgl64.Vec3{candidate.X(), ground, candidate.Z()},
			Normal:      normal,
			Penetration: ground - candidate.Y(),
		}
		b.hasWall = true

		candidate = mgl64.Vec3{b.pos.X(), candidate.Y(), b.pos.Z()}
		b.vel = mgl64.Vec3{0, b.vel.Y(), 0}

		ground, groundNormal, covered = w.surfaceAt(candidate.X(), candidate.Z())
	}

	// Ground resolution: clamp to the surface and remove the velocity
	// component driving into it, which lets steep surfaces shed the body
	// sideways instead of stopping it dead.
	if covered && candidate.Y() < ground {
		candidate = mgl64.Vec3{candidate.X(), ground, candidate.Z()}
		into := b.vel.Dot(groundNormal)
		if into < 0 {
			b.vel = b.vel.Sub(groundNormal.Mul(into))
		}
	}

	// No collider under the body means free fall. Keeping terrain loaded
	// under every body is the streamer's job, not ours.
	b.pos = candidate
}

// surfaceAt resolves the terrain surface under (x, z) across all
// colliders. Overlapping surfaces (shared chunk edges) agree exactly, but
// the scan still picks the highest one for a stable answer.
func (w *World) surfaceAt(x, z float64) (height float64, normal mgl64.Vec3, ok bool) {
	best := math.Inf(-1)
	for _, shape := range w.colliders {
		h, covered := shape.SampleHeight(x, z)
		if !covered {
			continue
		}
		if h > best {
			best = h
			if n, nok := shape.SampleNormal(x, z); nok {
				normal = n
			}
			ok = true
		}
	}
	return best, normal, ok
}
