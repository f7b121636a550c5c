package tessellate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/cpview/pkg/kernel"
	"github.com/chazu/cpview/pkg/kernel/sdfx"
	"github.com/chazu/cpview/pkg/segment"
	"github.com/chazu/cpview/pkg/tessellate"
)

// stubSolid tracks where a solid has been moved and how it was built.
type stubSolid struct {
	offset    [3]float64
	rotations [][3]float64
	unions    int
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.offset, s.offset
}

// stubKernel records calls and emits one small triangle per solid at its
// accumulated offset.
type stubKernel struct {
	cylinders int
	fail      bool
}

func (k *stubKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	k.cylinders++
	return &stubSolid{}
}

func (k *stubKernel) Union(a, b kernel.Solid) kernel.Solid {
	s := *a.(*stubSolid)
	s.unions++
	return &s
}

func (k *stubKernel) Translate(sol kernel.Solid, x, y, z float64) kernel.Solid {
	s := *sol.(*stubSolid)
	s.offset = [3]float64{s.offset[0] + x, s.offset[1] + y, s.offset[2] + z}
	return &s
}

func (k *stubKernel) Rotate(sol kernel.Solid, x, y, z float64) kernel.Solid {
	s := *sol.(*stubSolid)
	s.rotations = append(append([][3]float64(nil), s.rotations...), [3]float64{x, y, z})
	return &s
}

func (k *stubKernel) ToMesh(sol kernel.Solid) (*kernel.Mesh, error) {
	if k.fail {
		return nil, errors.New("stub: no triangles")
	}
	s := sol.(*stubSolid)
	x, y, z := float32(s.offset[0]), float32(s.offset[1]), float32(s.offset[2])
	return &kernel.Mesh{Vertices: []float32{x, y, z, x + 1, y, z, x, y + 1, z}}, nil
}

func TestTessellateDefaultJacketNames(t *testing.T) {
	k := &stubKernel{}
	meshes, err := tessellate.Tessellate(tessellate.DefaultJacket(), k)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 24 {
		t.Fatalf("expected 24 meshes, got %d", len(meshes))
	}
	if meshes[0].PartName != "leg11" || meshes[23].PartName != "leg46" {
		t.Errorf("unexpected names %q .. %q", meshes[0].PartName, meshes[23].PartName)
	}

	// Every generated name resolves to its own slot.
	seen := make(map[int]bool)
	for i, m := range meshes {
		idx, ok := segment.ResolveIndex(m.PartName)
		if !ok {
			t.Fatalf("%s does not resolve", m.PartName)
		}
		if idx != i {
			t.Errorf("%s resolved to %d, want %d", m.PartName, idx, i)
		}
		seen[idx] = true
	}
	if len(seen) != 24 {
		t.Errorf("expected 24 distinct indices, got %d", len(seen))
	}

	// One leg cylinder per segment plus a can at every node above the foot.
	if want := 24 + 4*5; k.cylinders != want {
		t.Errorf("expected %d cylinders, got %d", want, k.cylinders)
	}
}

func TestTessellateSegmentsStackUpward(t *testing.T) {
	j := tessellate.DefaultJacket()
	meshes, err := tessellate.Tessellate(j, &stubKernel{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}

	step := j.Height / float64(j.SegmentsPerLeg)
	for s := 0; s < j.SegmentsPerLeg; s++ {
		got := float64(meshes[s].Vertices[1])
		want := (float64(s) + 0.5) * step
		if math.Abs(got-want) > 1e-3 {
			t.Errorf("segment %d center y = %f, want %f", s+1, got, want)
		}
	}

	// Legs lean inward: the top segment sits closer to the axis than the foot.
	foot := meshes[0].Vertices
	top := meshes[j.SegmentsPerLeg-1].Vertices
	rFoot := math.Hypot(float64(foot[0]), float64(foot[2]))
	rTop := math.Hypot(float64(top[0]), float64(top[2]))
	if rTop >= rFoot {
		t.Errorf("expected top radius %f < foot radius %f", rTop, rFoot)
	}
}

func TestTessellateLegsAreSpreadAround(t *testing.T) {
	j := tessellate.DefaultJacket()
	meshes, err := tessellate.Tessellate(j, &stubKernel{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	// Foot segments of the four legs land in four different quadrants.
	quadrants := make(map[[2]bool]bool)
	for leg := 0; leg < j.Legs; leg++ {
		v := meshes[leg*j.SegmentsPerLeg].Vertices
		quadrants[[2]bool{v[0] > 0, v[2] > 0}] = true
	}
	if len(quadrants) != 4 {
		t.Errorf("expected feet in 4 quadrants, got %d", len(quadrants))
	}
}

func TestTessellateNilJacket(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, &stubKernel{})
	if err != nil || meshes != nil {
		t.Errorf("expected nil, nil; got %v, %v", meshes, err)
	}
}

func TestTessellateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(j *tessellate.Jacket)
	}{
		{"no legs", func(j *tessellate.Jacket) { j.Legs = 0 }},
		{"ten legs", func(j *tessellate.Jacket) { j.Legs = 10 }},
		{"ten segments", func(j *tessellate.Jacket) { j.SegmentsPerLeg = 10 }},
		{"zero radius", func(j *tessellate.Jacket) { j.Radius = 0 }},
		{"steep batter", func(j *tessellate.Jacket) { j.Batter = 60 }},
		{"crossing legs", func(j *tessellate.Jacket) { j.Spread = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := tessellate.DefaultJacket()
			tt.modify(j)
			_, err := tessellate.Tessellate(j, &stubKernel{})
			if !errors.Is(err, tessellate.ErrInvalidJacket) {
				t.Errorf("expected ErrInvalidJacket, got %v", err)
			}
		})
	}
}

func TestTessellateKernelFailure(t *testing.T) {
	_, err := tessellate.Tessellate(tessellate.DefaultJacket(), &stubKernel{fail: true})
	if err == nil {
		t.Fatal("expected error from kernel")
	}
}

func TestTessellateWithSdfx(t *testing.T) {
	if testing.Short() {
		t.Skip("marching cubes in short mode")
	}
	j := &tessellate.Jacket{
		Legs:           1,
		SegmentsPerLeg: 2,
		Height:         40,
		Radius:         2,
		Spread:         10,
	}
	meshes, err := tessellate.Tessellate(j, sdfx.NewWithCells(24))
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	for i, m := range meshes {
		if m.TriangleCount() == 0 {
			t.Fatalf("mesh %d is empty", i)
		}
		b := m.Bounds()
		if axis := segment.DominantAxis(b); axis != segment.AxisY {
			t.Errorf("%s: expected Y-dominant, got %s", m.PartName, axis)
		}
		lo, hi := float64(i)*20, float64(i+1)*20
		if b.Min[1] < lo-1 || b.Max[1] > hi+1 {
			t.Errorf("%s: y range [%f, %f] outside [%f, %f]", m.PartName, b.Min[1], b.Max[1], lo, hi)
		}
	}
}
