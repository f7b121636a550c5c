// Package segment partitions triangle soups into named, spatially
// contiguous segments and maps segment names onto positions in the
// flattened node-potential array.
package segment

import (
	"fmt"
	"strings"

	"github.com/chazu/cpview/pkg/kernel"
)

// Axis identifies one of the three coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "unknown"
	}
}

// MarshalText encodes the axis as its letter.
func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an axis letter.
func (a *Axis) UnmarshalText(b []byte) error {
	v, err := ParseAxis(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAxis parses "x", "y" or "z" in any case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return AxisX, nil
	case "Y":
		return AxisY, nil
	case "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("segment: invalid axis %q, expected X, Y, or Z", s)
}

// DominantAxis returns the axis along which b has the largest extent.
// Ties go to X, then Y.
func DominantAxis(b kernel.Box) Axis {
	size := b.Size()
	switch {
	case size[0] >= size[1] && size[0] >= size[2]:
		return AxisX
	case size[1] >= size[2]:
		return AxisY
	default:
		return AxisZ
	}
}

// NoIndex marks a segment whose name did not resolve to a position in
// the node-value array.
const NoIndex = -1

// Segment is a named partition of a triangle soup.
type Segment struct {
	Name      string
	Mesh      *kernel.Mesh
	Visible   bool
	Axis      Axis
	AxisRange [2]float64
	Index     int
}

// New builds a visible segment from a mesh, deriving its dominant axis
// and range from the mesh bounds and its index from the resolver.
func New(name string, m *kernel.Mesh, r Resolver) *Segment {
	m.PartName = name
	b := m.Bounds()
	axis := DominantAxis(b)
	s := &Segment{
		Name:    name,
		Mesh:    m,
		Visible: true,
		Axis:    axis,
		Index:   NoIndex,
	}
	if !b.IsEmpty() {
		s.AxisRange = [2]float64{b.Min[axis], b.Max[axis]}
	}
	if idx, ok := r.Resolve(name); ok {
		s.Index = idx
	}
	return s
}

// TriangleCount returns the number of triangles in the segment.
func (s *Segment) TriangleCount() int {
	if s.Mesh == nil {
		return 0
	}
	return s.Mesh.TriangleCount()
}

// Resolved reports whether the segment has a node-value index.
func (s *Segment) Resolved() bool {
	return s.Index != NoIndex
}

// Coord returns the coordinate of vertex v on the segment's axis.
func (s *Segment) Coord(v int) float64 {
	return float64(s.Mesh.Vertices[v*3+int(s.Axis)])
}
