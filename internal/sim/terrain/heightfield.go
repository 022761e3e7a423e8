package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Heightfield is the collision representation of a chunk: a regular grid
// of elevations with O(1) height and normal lookups. Interpolation inside
// each cell follows the same diagonal split as the render mesh, so the
// collider and the visible surface never disagree.
type Heightfield struct {
	originX, originZ float64
	cellSize         float64
	cells            int // cells per edge; grid is (cells+1)² samples
	heights          []float64
}

// NewHeightfield wraps a height grid. heights must hold (cells+1)²
// samples, row-major by z.
func NewHeightfield(originX, originZ, cellSize float64, cells int, heights []float64) *Heightfield {
	return &Heightfield{
		originX:  originX,
		originZ:  originZ,
		cellSize: cellSize,
		cells:    cells,
		heights:  heights,
	}
}

// Bounds returns the world-space rectangle the heightfield covers.
func (h *Heightfield) Bounds() (minX, minZ, maxX, maxZ float64) {
	span := float64(h.cells) * h.cellSize
	return h.originX, h.originZ, h.originX + span, h.originZ + span
}

// Contains reports whether (x, z) lies on the heightfield, boundary
// included. Shared chunk edges are covered by both neighbors; callers
// resolve the overlap by penetration depth.
func (h *Heightfield) Contains(x, z float64) bool {
	minX, minZ, maxX, maxZ := h.Bounds()
	return x >= minX && x <= maxX && z >= minZ && z <= maxZ
}

// SampleHeight returns the surface elevation at (x, z), or false if the
// point is outside the field.
func (h *Heightfield) SampleHeight(x, z float64) (float64, bool) {
	ix, iz, u, v, ok := h.locate(x, z)
	if !ok {
		return 0, false
	}

	h00 := h.at(ix, iz)
	h10 := h.at(ix+1, iz)
	h01 := h.at(ix, iz+1)
	h11 := h.at(ix+1, iz+1)

	// The diagonal runs from (x+1, z) to (x, z+1), matching the mesh
	// triangulation.
	if u+v <= 1 {
		return h00 + (h10-h00)*u + (h01-h00)*v, true
	}
	return h11 + (h10-h11)*(1-v) + (h01-h11)*(1-u), true
}

// SampleNormal returns the unit surface normal of the triangle under
// (x, z), or false if the point is outside the field.
func (h *Heightfield) SampleNormal(x, z float64) (mgl64.Vec3, bool) {
	ix, iz, u, v, ok := h.locate(x, z)
	if !ok {
		return mgl64.Vec3{}, false
	}

	h00 := h.at(ix, iz)
	h10 := h.at(ix+1, iz)
	h01 := h.at(ix, iz+1)
	h11 := h.at(ix+1, iz+1)

	c := h.cellSize
	var n mgl64.Vec3
	if u+v <= 1 {
		n = mgl64.Vec3{-(h10 - h00) / c, 1, -(h01 - h00) / c}
	} else {
		n = mgl64.Vec3{-(h11 - h01) / c, 1, -(h11 - h10) / c}
	}
	return n.Normalize(), true
}

// locate maps (x, z) to a cell index and in-cell fractions. Points on the
// maximum edge are clamped into the last cell so the boundary is covered.
func (h *Heightfield) locate(x, z float64) (ix, iz int, u, v float64, ok bool) {
	if !h.Contains(x, z) {
		return 0, 0, 0, 0, false
	}

	fx := (x - h.originX) / h.cellSize
	fz := (z - h.originZ) / h.cellSize

	ix = int(math.Floor(fx))
	iz = int(math.Floor(fz))
	if ix >= h.cells {
		ix = h.cells - 1
	}
	if iz >= h.cells {
		iz = h.cells - 1
	}

	return ix, iz, fx - float64(ix), fz - float64(iz), true
}

func (h *Heightfield) at(ix, iz int) float64 {
	return h.heights[iz*(h.cells+1)+ix]
}
