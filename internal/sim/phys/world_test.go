package phys

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/fellwalk/fellwalk/internal/sim/terrain"
)

// flatField builds a level heightfield at the given elevation covering
// [0,size]² in cells of 1 world unit.
func flatField(elevation float64, size int) *terrain.Heightfield {
	stride := size + 1
	heights := make([]float64, stride*stride)
	for i := range heights {
		heights[i] = elevation
	}
	return terrain.NewHeightfield(0, 0, 1.0, size, heights)
}

// stepField is flat at 0 for x < 4 and flat at stepHeight for x >= 4,
// forming a vertical ledge.
func stepField(stepHeight float64) *terrain.Heightfield {
	const size = 8
	stride := size + 1
	heights := make([]float64, stride*stride)
	for iz := 0; iz < stride; iz++ {
		for ix := 0; ix < stride; ix++ {
			if ix >= 4 {
				heights[iz*stride+ix] = stepHeight
			}
		}
	}
	return terrain.NewHeightfield(0, 0, 1.0, size, heights)
}

func TestRegisterColliderDegenerate(t *testing.T) {
	w := NewWorld()

	zero := terrain.NewHeightfield(0, 0, 1.0, 0, []float64{0})
	if _, err := w.RegisterCollider(zero); err != ErrDegenerateShape {
		t.Errorf("RegisterCollider(zero-area) err = %v, want ErrDegenerateShape", err)
	}

	if _, err := w.RegisterCollider(flatField(0, 4)); err != nil {
		t.Errorf("RegisterCollider(valid) err = %v, want nil", err)
	}
}

func TestUnregisterRemovesContacts(t *testing.T) {
	w := NewWorld()
	h, err := w.RegisterCollider(flatField(2, 8))
	if err != nil {
		t.Fatalf("RegisterCollider: %v", err)
	}

	pos := mgl64.Vec3{4, 2.1, 4}
	if got := w.QueryContactsNear(pos, 0.5); len(got) != 1 {
		t.Fatalf("contacts before unregister = %d, want 1", len(got))
	}

	w.Unregister(h)
	if got := w.QueryContactsNear(pos, 0.5); len(got) != 0 {
		t.Errorf("contacts after unregister = %d, want 0", len(got))
	}
}

func TestQueryContactsNearPenetration(t *testing.T) {
	w := NewWorld()
	if _, err := w.RegisterCollider(flatField(5, 8)); err != nil {
		t.Fatalf("RegisterCollider: %v", err)
	}

	// Slightly above the surface: negative penetration.
	contacts := w.QueryContactsNear(mgl64.Vec3{4, 5.2, 4}, 0.5)
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	if math.Abs(contacts[0].Penetration-(-0.2)) > 1e-12 {
		t.Errorf("Penetration = %v, want -0.2", contacts[0].Penetration)
	}
	if contacts[0].Normal != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("Normal = %v, want up", contacts[0].Normal)
	}

	// Out of probe range: no contact.
	if got := w.QueryContactsNear(mgl64.Vec3{4, 6, 4}, 0.5); len(got) != 0 {
		t.Errorf("contacts out of range = %d, want 0", len(got))
	}
}

func TestQueryContactsNearOrdersByPenetration(t *testing.T) {
	w := NewWorld()
	if _, err := w.RegisterCollider(flatField(0, 8)); err != nil {
		t.Fatalf("RegisterCollider: %v", err)
	}
	if _, err := w.RegisterCollider(flatField(0.3, 8)); err != nil {
		t.Fatalf("RegisterCollider: %v", err)
	}

	// Foot at 0.1: penetrates the 0.3 surface by 0.2, hovers 0.1 above
	// the 0 surface. Shallowest penetration first.
	contacts := w.QueryContactsNear(mgl64.Vec3{4, 0.1, 4}, 1.0)
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(contacts))
	}
	if contacts[0].Penetration > contacts[1].Penetration {
		t.Errorf("contacts not ordered by penetration: %v then %v",
			contacts[0].Penetration, contacts[1].Penetration)
	}
}

func TestStepIntegratesVelocity(t *testing.T) {
	w := NewWorld()
	if _, err := w.RegisterCollider(flatField(0, 16)); err != nil {
		t.Fatalf("RegisterCollider: %v", err)
	}

	b := w.AddBody(mgl64.Vec3{2, 0, 2}, 0.4, 1.8)
	w.SetBodyVelocity(b, mgl64.Vec3{1, 0, 2})
	w.Step(0.5)

	got := w.BodyPosition(b)
	want := mgl64.Vec3{2.5, 0, 3}
	if got != want {
		t.Errorf("BodyPosition = %v, want %v", got, want)
	}
}

func TestStepClampsToGround(t *testing.T) {
	w := NewWorld()
	if _, err := w.RegisterCollider(flatField(1, 16)); err != nil {
		t.Fatalf("RegisterCollider: %v", err)
	}

	b := w.AddBody(mgl64.Vec3{4, 3, 4}, 0.4, 1.8)
	w.SetBodyVelocity(b, mgl64.Vec3{0, -100, 0})
	w.Step(0.1)

	got := w.BodyPosition(b)
	if got.Y() != 1 {
		t.Errorf("foot height = %v, want clamped to 1", got.Y())
	}
	if w.BodyVelocity(b).Y() != 0 {
		t.Errorf("vertical velocity = %v, want 0 after clamp", w.BodyVelocity(b).Y())
	}
}

func TestStepBlocksAtLedge(t *testing.T) {
	w := NewWorld()
	if _, err := w.RegisterCollider(stepField(0.5)); err != nil {
		t.Fatalf("RegisterCollider: %v", err)
	}

	// Walk straight at the 0.5-unit ledge rising at x=4.
	b := w.AddBody(mgl64.Vec3{3.6, 0, 2}, 0.4, 1.8)
	w.SetBodyVelocity(b, mgl64.Vec3{3, 0, 0})
	w.Step(0.5)

	got := w.BodyPosition(b)
	if got.X() != 3.6 {
		t.Errorf("body advanced into ledge: x = %v, want 3.6", got.X())
	}

	wall, ok := w.LastWallContact(b)
	if !ok {
		t.Fatal("no wall contact recorded at ledge")
	}
	if wall.Penetration <= 0 || wall.Penetration > 0.5+1e-9 {
		t.Errorf("wall obstruction height = %v, want in (0, 0.5]", wall.Penetration)
	}
	if wall.Normal.X() >= 0 {
		t.Errorf("wall normal = %v, want opposing +X motion", wall.Normal)
	}
}

func TestStepFreeFallWithoutColliders(t *testing.T) {
	w := NewWorld()

	b := w.AddBody(mgl64.Vec3{0, 10, 0}, 0.4, 1.8)
	w.SetBodyVelocity(b, mgl64.Vec3{0, -2, 0})
	w.Step(1.0)

	if got := w.BodyPosition(b).Y(); got != 8 {
		t.Errorf("free fall y = %v, want 8", got)
	}
}

func TestNudgeBody(t *testing.T) {
	w := NewWorld()
	b := w.AddBody(mgl64.Vec3{1, 2, 3}, 0.4, 1.8)

	w.NudgeBody(b, mgl64.Vec3{0, 0.4, 0})
	if got := w.BodyPosition(b); got != (mgl64.Vec3{1, 2.4, 3}) {
		t.Errorf("BodyPosition after nudge = %v, want (1, 2.4, 3)", got)
	}
}

// The wall threshold is a per-world tunable so hosts can match it to
// their controller's step height.
func TestSetStepToleranceChangesWallThreshold(t *testing.T) {
	const rise = 0.06

	run := func(tol float64) (*World, BodyHandle) {
		t.Helper()
		w := NewWorld()
		if tol > 0 {
			w.SetStepTolerance(tol)
		}
		if _, err := w.RegisterCollider(stepField(rise)); err != nil {
			t.Fatalf("RegisterCollider: %v", err)
		}
		b := w.AddBody(mgl64.Vec3{3, 0, 4}, 0.4, 1.8)
		w.SetBodyVelocity(b, mgl64.Vec3{3, 0, 0})
		w.Step(0.5)
		return w, b
	}

	// Under the default tolerance the rise is a slope and the body walks
	// onto it.
	w, b := run(0)
	if _, ok := w.LastWallContact(b); ok {
		t.Error("default tolerance recorded a wall for a sub-threshold rise")
	}
	if got := w.BodyPosition(b).X(); got != 4.5 {
		t.Errorf("x after step = %v, want 4.5", got)
	}

	// Tightened below the rise, the same motion is blocked as a wall.
	w, b = run(0.02)
	wall, ok := w.LastWallContact(b)
	if !ok {
		t.Fatal("tightened tolerance did not record a wall contact")
	}
	if math.Abs(wall.Penetration-rise) > 1e-12 {
		t.Errorf("wall penetration = %v, want %v", wall.Penetration, rise)
	}
	if got := w.BodyPosition(b).X(); got != 3 {
		t.Errorf("x after blocked step = %v, want 3", got)
	}
}
