package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/fellwalk/fellwalk/internal/sim/phys"
)

// State is the character's locomotion state.
type State int

const (
	Grounded State = iota
	Airborne
	Jumping
)

func (s State) String() string {
	switch s {
	case Grounded:
		return "grounded"
	case Airborne:
		return "airborne"
	case Jumping:
		return "jumping"
	default:
		return "unknown"
	}
}

// Tuning holds the locomotion constants. They are game-design values, so
// they arrive as configuration rather than being baked in.
type Tuning struct {
	WalkSpeed        float64 `json:"walk_speed"`        // m/s
	SprintMultiplier float64 `json:"sprint_multiplier"` // applied to WalkSpeed
	GroundAccel      float64 `json:"ground_accel"`      // m/s², toward target velocity
	AirControl       float64 `json:"air_control"`       // fraction of GroundAccel while airborne
	JumpHeight       float64 `json:"jump_height"`       // apex height, m
	Gravity          float64 `json:"gravity"`           // m/s², positive down
	CoyoteTime       float64 `json:"coyote_time"`       // s, jump grace after leaving ground
	JumpBuffer       float64 `json:"jump_buffer"`       // s, jump input stays pending
	MaxStepHeight    float64 `json:"max_step_height"`   // m, step-up nudge bound
	WalkableSlopeDeg float64 `json:"walkable_slope"`    // degrees from horizontal
	GroundProbe      float64 `json:"ground_probe"`      // m, contact probe below the foot
	JumpCutGravity   float64 `json:"jump_cut_gravity"`  // gravity multiplier on early jump release
	DashSpeed        float64 `json:"dash_speed"`        // m/s during a dash burst
	DashDuration     float64 `json:"dash_duration"`     // s, dash burst length
	DashCooldown     float64 `json:"dash_cooldown"`     // s between dashes, after the burst ends
}

// DefaultTuning returns locomotion constants for a human-scale character.
func DefaultTuning() Tuning {
	return Tuning{
		WalkSpeed:        4.5,
		SprintMultiplier: 1.6,
		GroundAccel:      40.0,
		AirControl:       0.3,
		JumpHeight:       1.2,
		Gravity:          9.81,
		CoyoteTime:       0.12,
		JumpBuffer:       0.1,
		MaxStepHeight:    0.4,
		WalkableSlopeDeg: 45.0,
		GroundProbe:      0.15,
		JumpCutGravity:   3.0,
		DashSpeed:        12.0,
		DashDuration:     0.2,
		DashCooldown:     0.5,
	}
}

// CharacterState is the controller's mutable per-character record. It is
// owned exclusively by the Controller and only changes on tick boundaries.
type CharacterState struct {
	State        State
	GroundNormal mgl64.Vec3
	Velocity     mgl64.Vec3

	// TimeSinceGrounded drives the coyote window; TimeSinceJumpPressed
	// drives the jump buffer (infinite when no press is pending).
	TimeSinceGrounded    float64
	TimeSinceJumpPressed float64

	// AirSteer accumulates horizontal velocity change spent while
	// airborne, budgeted so air control cannot steer indefinitely.
	AirSteer float64

	// DashTimeLeft counts down an active dash burst; DashCooldown must
	// reach zero before the next one. DashDir is locked at dash start.
	DashTimeLeft float64
	DashCooldown float64
	DashDir      mgl64.Vec3
}

// Controller reconciles per-tick input intent with the physics engine's
// contact and velocity state, and emits a desired velocity back to the
// body. It never moves the character directly except for the bounded
// step-up nudge.
type Controller struct {
	tuning Tuning
	engine phys.Engine
	body   phys.BodyHandle
	state  CharacterState
}

// NewController attaches a controller to an existing physics body. The
// character starts airborne; the first ground contact settles it.
func NewController(engine phys.Engine, body phys.BodyHandle, tuning Tuning) *Controller {
	return &Controller{
		tuning: tuning,
		engine: engine,
		body:   body,
		state: CharacterState{
			State:                Airborne,
			GroundNormal:         mgl64.Vec3{0, 1, 0},
			TimeSinceGrounded:    math.Inf(1),
			TimeSinceJumpPressed: math.Inf(1),
		},
	}
}

// State returns a copy of the character's current state.
func (c *Controller) State() CharacterState {
	return c.state
}

// Body returns the physics body the controller drives.
func (c *Controller) Body() phys.BodyHandle {
	return c.body
}

// Tick runs one simulation step: probe ground, update the state machine,
// steer, and hand the resulting velocity to the physics engine. The
// engine's solve runs afterwards, outside the controller.
func (c *Controller) Tick(intent MotionIntent, dt float64) {
	pos := c.engine.BodyPosition(c.body)
	vel := c.engine.BodyVelocity(c.body)

	c.state.TimeSinceGrounded += dt
	c.state.TimeSinceJumpPressed += dt
	if c.state.DashCooldown > 0 {
		c.state.DashCooldown -= dt
	}
	if intent.Jump {
		c.state.TimeSinceJumpPressed = 0
	}

	// 1. Ground probe. A contact only grounds us when its slope is
	// walkable, and never while still ascending a jump.
	contact, found := c.groundContact(pos)
	ascending := c.state.State == Jumping && vel.Y() > 0
	if found && c.walkable(contact.Normal) && !ascending {
		c.state.State = Grounded
		c.state.GroundNormal = contact.Normal
		c.state.TimeSinceGrounded = 0
		c.state.AirSteer = 0
	} else if c.state.State == Grounded {
		c.state.State = Airborne
	}

	// 2./3. Steering.
	dir := intent.moveDirection()
	speed := c.tuning.WalkSpeed
	if intent.Sprint {
		speed *= c.tuning.SprintMultiplier
	}

	// Dash: a fixed-speed burst in the intent direction, locked for the
	// burst duration. The cooldown spans the burst plus the configured
	// gap, so it cannot retrigger mid-dash.
	if intent.Dash && c.state.DashCooldown <= 0 && dir.Len() > 0 {
		c.state.DashTimeLeft = c.tuning.DashDuration
		c.state.DashCooldown = c.tuning.DashDuration + c.tuning.DashCooldown
		c.state.DashDir = dir.Mul(1 / dir.Len())
	}

	switch {
	case c.state.DashTimeLeft > 0:
		c.state.DashTimeLeft -= dt
		vel = mgl64.Vec3{
			c.state.DashDir.X() * c.tuning.DashSpeed,
			vel.Y(),
			c.state.DashDir.Z() * c.tuning.DashSpeed,
		}
		if c.state.State != Grounded {
			vel = mgl64.Vec3{vel.X(), vel.Y() - c.tuning.Gravity*dt, vel.Z()}
		}
	case c.state.State == Grounded:
		vel = c.steerGrounded(vel, dir, speed, dt)
	default:
		vel = c.steerAirborne(vel, dir, speed, dt)
		// Releasing the jump button while still rising cuts the jump
		// short by pulling extra gravity until the apex.
		if c.state.State == Jumping && vel.Y() > 0 && !intent.JumpHeld {
			vel = mgl64.Vec3{vel.X(), vel.Y() - c.tuning.Gravity*(c.tuning.JumpCutGravity-1)*dt, vel.Z()}
		}
	}

	// Buffered jump, honored on the ground or within the coyote window.
	if c.jumpAllowed() {
		vel = mgl64.Vec3{vel.X(), math.Sqrt(2 * c.tuning.Gravity * c.tuning.JumpHeight), vel.Z()}
		c.state.State = Jumping
		c.state.TimeSinceJumpPressed = math.Inf(1)
		c.state.TimeSinceGrounded = math.Inf(1)
	}

	// 4. Step-up: a wall hit no taller than the step limit becomes a
	// bounded upward nudge instead of a stop. Terrain heightfields have
	// no overhangs, so clearance above the ledge is implied.
	if wall, ok := c.engine.LastWallContact(c.body); ok {
		if wall.Penetration > 0 && wall.Penetration <= c.tuning.MaxStepHeight {
			c.engine.NudgeBody(c.body, mgl64.Vec3{0, wall.Penetration, 0})
		}
	}

	c.state.Velocity = vel
	c.engine.SetBodyVelocity(c.body, vel)
}

// groundContact probes for terrain within the configured distance below
// the foot. Ambiguous multi-surface results resolve to the smallest
// penetration depth; the engine returns them in that order.
func (c *Controller) groundContact(pos mgl64.Vec3) (phys.Contact, bool) {
	contacts := c.engine.QueryContactsNear(pos, c.tuning.GroundProbe)
	if len(contacts) == 0 {
		return phys.Contact{}, false
	}
	return contacts[0], true
}

func (c *Controller) walkable(normal mgl64.Vec3) bool {
	limit := math.Cos(c.tuning.WalkableSlopeDeg * math.Pi / 180)
	return normal.Y() >= limit
}

func (c *Controller) jumpAllowed() bool {
	if c.state.TimeSinceJumpPressed > c.tuning.JumpBuffer {
		return false
	}
	if c.state.State == Jumping {
		return false
	}
	return c.state.State == Grounded || c.state.TimeSinceGrounded <= c.tuning.CoyoteTime
}

// steerGrounded accelerates toward the intent direction projected onto
// the ground plane, so motion follows slopes instead of pushing into
// them. Horizontal speed is clamped to the current max.
func (c *Controller) steerGrounded(vel, dir mgl64.Vec3, speed, dt float64) mgl64.Vec3 {
	target := projectOnPlane(dir, c.state.GroundNormal)
	if l := target.Len(); l > 0 {
		target = target.Mul(dir.Len() / l * speed)
	}

	vel = accelerate(vel, target, c.tuning.GroundAccel*dt)
	return clampHorizontal(vel, speed)
}

// steerAirborne applies reduced air control against a total steering
// budget, then gravity.
func (c *Controller) steerAirborne(vel, dir mgl64.Vec3, speed, dt float64) mgl64.Vec3 {
	budget := speed - c.state.AirSteer
	if budget > 0 && dir.Len() > 0 {
		accel := c.tuning.GroundAccel * c.tuning.AirControl * dt
		if accel > budget {
			accel = budget
		}
		target := mgl64.Vec3{dir.X() * speed, vel.Y(), dir.Z() * speed}
		steered := accelerate(vel, target, accel)
		c.state.AirSteer += steered.Sub(vel).Len()
		vel = steered
	}

	return mgl64.Vec3{vel.X(), vel.Y() - c.tuning.Gravity*dt, vel.Z()}
}

// projectOnPlane removes the component of v along the plane normal.
func projectOnPlane(v, normal mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(normal.Mul(v.Dot(normal)))
}

// accelerate moves current toward target by at most maxDelta.
func accelerate(current, target mgl64.Vec3, maxDelta float64) mgl64.Vec3 {
	delta := target.Sub(current)
	if l := delta.Len(); l > maxDelta {
		delta = delta.Mul(maxDelta / l)
	}
	return current.Add(delta)
}

// clampHorizontal limits the XZ speed of v to max, leaving Y untouched.
func clampHorizontal(v mgl64.Vec3, max float64) mgl64.Vec3 {
	horiz := mgl64.Vec2{v.X(), v.Z()}
	if l := horiz.Len(); l > max {
		horiz = horiz.Mul(max / l)
	}
	return mgl64.Vec3{horiz.X(), v.Y(), horiz.Y()}
}
