package control

import "github.com/go-gl/mathgl/mgl64"

// MotionIntent is one tick's input snapshot from the host input layer.
// It is consumed by the controller and discarded; nothing retains it
// across ticks.
type MotionIntent struct {
	// Move is the desired horizontal direction on the world XZ plane.
	// Magnitudes above 1 are clamped.
	Move mgl64.Vec2

	// Jump is true on the tick the jump input was pressed; JumpHeld while
	// it remains down.
	Jump     bool
	JumpHeld bool

	// Dash requests a fixed-speed burst toward Move, subject to the
	// tuning cooldown. Ignored when Move is zero.
	Dash bool

	Sprint bool
}

// moveDirection returns the intent's horizontal direction as a world
// vector, clamped to unit length.
func (m MotionIntent) moveDirection() mgl64.Vec3 {
	dir := mgl64.Vec3{m.Move.X(), 0, m.Move.Y()}
	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}
	return dir
}
