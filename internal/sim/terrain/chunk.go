package terrain

import (
	"math"
)

// ChunkKey identifies a chunk on the integer chunk grid.
type ChunkKey struct {
	X, Z int
}

// KeyAt returns the key of the chunk containing world position (wx, wz)
// for the given chunk size.
func KeyAt(wx, wz, chunkSize float64) ChunkKey {
	return ChunkKey{
		X: int(math.Floor(wx / chunkSize)),
		Z: int(math.Floor(wz / chunkSize)),
	}
}

// Origin returns the world coordinates of the chunk's minimum corner.
func (k ChunkKey) Origin(chunkSize float64) (x, z float64) {
	return float64(k.X) * chunkSize, float64(k.Z) * chunkSize
}

// Chunk is one generated terrain tile: a height grid, the triangulated
// render mesh derived from it, and the matching heightfield collider.
// Chunks are immutable once generated; a parameter change regenerates the
// whole chunk instead of patching it.
type Chunk struct {
	Key ChunkKey

	// Resolution is the number of cells per chunk edge; the height grid
	// holds one extra row and column of samples.
	Resolution int

	// Heights holds (Resolution+1)×(Resolution+1) elevations, row-major by
	// z. The last row and column are shared with the +X and +Z neighbors,
	// sampled at identical world coordinates, so edges are seam-free.
	Heights []float64

	Mesh     Mesh
	Collider *Heightfield
}

// HeightAt returns the stored elevation at grid index (ix, iz).
func (c *Chunk) HeightAt(ix, iz int) float64 {
	return c.Heights[iz*(c.Resolution+1)+ix]
}
