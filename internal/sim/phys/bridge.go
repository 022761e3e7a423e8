package phys

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateShape is returned when a collider with zero area is
// registered. The chunk that produced it is treated as absent until it
// regenerates.
var ErrDegenerateShape = errors.New("phys: collider shape has zero area")

// ColliderHandle identifies a registered static collider.
type ColliderHandle uint64

// BodyHandle identifies a kinematic character body.
type BodyHandle uint64

// Shape is the static collision surface colliders expose. A terrain
// heightfield satisfies it directly.
type Shape interface {
	Bounds() (minX, minZ, maxX, maxZ float64)
	Contains(x, z float64) bool
	SampleHeight(x, z float64) (float64, bool)
	SampleNormal(x, z float64) (mgl64.Vec3, bool)
}

// Contact describes a point of (near-)contact between a body and a
// collider. Penetration is positive when the query point is below the
// surface and negative when it hovers above it.
type Contact struct {
	Point       mgl64.Vec3
	Normal      mgl64.Vec3
	Penetration float64
}

// Engine is the boundary to the rigid-body solver. The character
// controller and the chunk streamer talk to this interface only, so a
// host physics engine can be adapted in without touching either.
//
// NudgeBody exists solely for bounded step-up correction; it is the only
// sanctioned way to move a body other than velocity integration.
type Engine interface {
	RegisterCollider(shape Shape) (ColliderHandle, error)
	Unregister(h ColliderHandle)

	AddBody(pos mgl64.Vec3, radius, height float64) BodyHandle
	RemoveBody(h BodyHandle)
	BodyPosition(h BodyHandle) mgl64.Vec3
	BodyVelocity(h BodyHandle) mgl64.Vec3
	SetBodyVelocity(h BodyHandle, vel mgl64.Vec3)
	NudgeBody(h BodyHandle, delta mgl64.Vec3)

	QueryContactsNear(pos mgl64.Vec3, radius float64) []Contact
	LastWallContact(h BodyHandle) (Contact, bool)

	Step(dt float64)
}

// ColliderRegistrar is the subset of Engine the chunk streamer needs.
type ColliderRegistrar interface {
	RegisterCollider(shape Shape) (ColliderHandle, error)
	Unregister(h ColliderHandle)
}
