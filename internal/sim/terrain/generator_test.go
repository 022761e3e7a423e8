package terrain

import (
	"fmt"
	"testing"

	"github.com/fellwalk/fellwalk/internal/sim/terrain/noise"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewGenerator(noise.NewSampler(noise.DefaultParams()), Config{ChunkSize: 32, Resolution: 16})
}

func TestKeyAt(t *testing.T) {
	tests := []struct {
		wx, wz float64
		want   ChunkKey
	}{
		{0, 0, ChunkKey{0, 0}},
		{31.9, 31.9, ChunkKey{0, 0}},
		{32, 0, ChunkKey{1, 0}},
		{-0.1, 0, ChunkKey{-1, 0}},
		{-32, -0.5, ChunkKey{-1, -1}},
		{100, -100, ChunkKey{3, -4}},
	}
	for _, tt := range tests {
		if got := KeyAt(tt.wx, tt.wz, 32); got != tt.want {
			t.Errorf("KeyAt(%f, %f) = %+v, want %+v", tt.wx, tt.wz, got, tt.want)
		}
	}
}

func TestGenerateGridShape(t *testing.T) {
	g := testGenerator(t)

	c, err := g.Generate(ChunkKey{0, 0})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	stride := g.Config().Resolution + 1
	if len(c.Heights) != stride*stride {
		t.Errorf("len(Heights) = %d, want %d", len(c.Heights), stride*stride)
	}
	if len(c.Mesh.Vertices) != stride*stride {
		t.Errorf("len(Vertices) = %d, want %d", len(c.Mesh.Vertices), stride*stride)
	}
	if len(c.Mesh.Normals) != len(c.Mesh.Vertices) {
		t.Errorf("len(Normals) = %d, want %d", len(c.Mesh.Normals), len(c.Mesh.Vertices))
	}
	wantIndices := g.Config().Resolution * g.Config().Resolution * 6
	if len(c.Mesh.Indices) != wantIndices {
		t.Errorf("len(Indices) = %d, want %d", len(c.Mesh.Indices), wantIndices)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g1 := testGenerator(t)
	g2 := testGenerator(t)

	c1, err := g1.Generate(ChunkKey{3, -7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	c2, err := g2.Generate(ChunkKey{3, -7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for i := range c1.Heights {
		if c1.Heights[i] != c2.Heights[i] {
			t.Fatalf("Heights[%d] differs between identical generators", i)
		}
	}
}

// Shared chunk edges must be bit-identical: the +X edge of one chunk is
// the -X edge of its neighbor, sampled independently. The configs cover
// both an exactly representable cell size (32/16) and ones where
// ChunkSize/Resolution rounds (30/13, 10.1/7), so a roundoff ulp between
// the neighbors' coordinate math would be caught.
func TestAdjacentChunksSeamFree(t *testing.T) {
	configs := []Config{
		{ChunkSize: 32, Resolution: 16},
		{ChunkSize: 30, Resolution: 13},
		{ChunkSize: 10.1, Resolution: 7},
	}
	for _, cfg := range configs {
		t.Run(fmt.Sprintf("%v-%d", cfg.ChunkSize, cfg.Resolution), func(t *testing.T) {
			g := NewGenerator(noise.NewSampler(noise.DefaultParams()), cfg)
			res := cfg.Resolution

			left, err := g.Generate(ChunkKey{0, 0})
			if err != nil {
				t.Fatalf("Generate left: %v", err)
			}
			right, err := g.Generate(ChunkKey{1, 0})
			if err != nil {
				t.Fatalf("Generate right: %v", err)
			}

			for iz := 0; iz <= res; iz++ {
				if left.HeightAt(res, iz) != right.HeightAt(0, iz) {
					t.Errorf("edge height mismatch at iz=%d: %v != %v",
						iz, left.HeightAt(res, iz), right.HeightAt(0, iz))
				}

				ln := left.Mesh.Normals[iz*(res+1)+res]
				rn := right.Mesh.Normals[iz*(res+1)]
				if ln != rn {
					t.Errorf("edge normal mismatch at iz=%d: %v != %v", iz, ln, rn)
				}
			}

			// Same along a Z boundary.
			up, err := g.Generate(ChunkKey{0, 1})
			if err != nil {
				t.Fatalf("Generate up: %v", err)
			}
			for ix := 0; ix <= res; ix++ {
				if left.HeightAt(ix, res) != up.HeightAt(ix, 0) {
					t.Errorf("z-edge height mismatch at ix=%d", ix)
				}
			}
		})
	}
}

func TestColliderMatchesGridSamples(t *testing.T) {
	g := testGenerator(t)

	c, err := g.Generate(ChunkKey{-2, 5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	res := g.Config().Resolution
	cell := g.Config().ChunkSize / float64(res)
	originX, originZ := c.Key.Origin(g.Config().ChunkSize)

	for iz := 0; iz <= res; iz++ {
		for ix := 0; ix <= res; ix++ {
			wx := originX + float64(ix)*cell
			wz := originZ + float64(iz)*cell
			got, ok := c.Collider.SampleHeight(wx, wz)
			if !ok {
				t.Fatalf("SampleHeight(%f, %f) outside collider", wx, wz)
			}
			if got != c.HeightAt(ix, iz) {
				t.Errorf("collider height at grid (%d,%d) = %v, want %v",
					ix, iz, got, c.HeightAt(ix, iz))
			}
		}
	}
}

func TestGenerateRejectsDegenerateConfig(t *testing.T) {
	sampler := noise.NewSampler(noise.DefaultParams())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero resolution", Config{ChunkSize: 32, Resolution: 0}},
		{"negative size", Config{ChunkSize: -1, Resolution: 16}},
		{"zero size", Config{ChunkSize: 0, Resolution: 16}},
	}

	for _, tt := range tests {
		g := NewGenerator(sampler, tt.cfg)
		if _, err := g.Generate(ChunkKey{0, 0}); err == nil {
			t.Errorf("%s: Generate succeeded, want error", tt.name)
		}
	}
}
