package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is the renderable form of a chunk: world-space vertices with
// per-vertex normals and a triangle index list. The render layer consumes
// it as-is; nothing in the core reads it back.
type Mesh struct {
	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	Indices  []uint32
}

// buildMesh triangulates a height grid into two triangles per cell with a
// consistent diagonal, so neighboring chunks triangulate their shared
// edge identically. Normals come from the sampled gradient rather than
// the mesh faces, which is both cheaper and smoother. gx0/gz0 are the
// chunk's global grid indices; vertex coordinates are products of the
// global index, matching the generator's sample coordinates bit for bit
// on shared edges.
func buildMesh(gx0, gz0 int, cellSize float64, cells int, heights []float64, gradient func(x, z float64) (dx, dz float64)) Mesh {
	stride := cells + 1

	vertices := make([]mgl32.Vec3, 0, stride*stride)
	normals := make([]mgl32.Vec3, 0, stride*stride)
	for iz := 0; iz < stride; iz++ {
		for ix := 0; ix < stride; ix++ {
			wx := float64(gx0+ix) * cellSize
			wz := float64(gz0+iz) * cellSize

			vertices = append(vertices, mgl32.Vec3{
				float32(wx),
				float32(heights[iz*stride+ix]),
				float32(wz),
			})

			dx, dz := gradient(wx, wz)
			n := mgl32.Vec3{float32(-dx), 1, float32(-dz)}.Normalize()
			normals = append(normals, n)
		}
	}

	indices := make([]uint32, 0, cells*cells*6)
	for iz := 0; iz < cells; iz++ {
		for ix := 0; ix < cells; ix++ {
			i := uint32(iz*stride + ix)

			// First triangle of the cell.
			indices = append(indices, i, i+1, i+uint32(stride))
			// Second triangle, across the shared diagonal.
			indices = append(indices, i+1, i+uint32(stride)+1, i+uint32(stride))
		}
	}

	return Mesh{Vertices: vertices, Normals: normals, Indices: indices}
}
