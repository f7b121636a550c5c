package kernel

import "math"

// Mesh is an unindexed triangle soup suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z) and
// 9 floats per triangle. Normals and colors, when present, run
// parallel to vertices (one xyz or rgb triple per vertex).
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Colors   []float32 `json:"colors"`   // [r0,g0,b0, ...] in 0..1
	PartName string    `json:"partName"` // segment or part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 9
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// HasNormals reports whether every vertex carries a normal.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Vertices)
}

// HasColors reports whether every vertex carries a color.
func (m *Mesh) HasColors() bool {
	return len(m.Colors) > 0 && len(m.Colors) == len(m.Vertices)
}

// AppendTriangle appends the triangle starting at vertex component i of
// src (i must be a multiple of 9), copying normals and colors when src
// has them.
func (m *Mesh) AppendTriangle(src *Mesh, i int) {
	m.Vertices = append(m.Vertices, src.Vertices[i:i+9]...)
	if src.HasNormals() {
		m.Normals = append(m.Normals, src.Normals[i:i+9]...)
	}
	if src.HasColors() {
		m.Colors = append(m.Colors, src.Colors[i:i+9]...)
	}
}

// Box is an axis-aligned bounding box. An empty box has Min > Max.
type Box struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// EmptyBox returns a box that any point expands.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: [3]float64{inf, inf, inf},
		Max: [3]float64{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether no point has been added to the box.
func (b Box) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// Expand grows the box to include the point (x, y, z).
func (b *Box) Expand(x, y, z float64) {
	p := [3]float64{x, y, z}
	for i := range p {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Union grows the box to include o.
func (b *Box) Union(o Box) {
	if o.IsEmpty() {
		return
	}
	b.Expand(o.Min[0], o.Min[1], o.Min[2])
	b.Expand(o.Max[0], o.Max[1], o.Max[2])
}

// Size returns the extent along each axis. Empty boxes have zero size.
func (b Box) Size() [3]float64 {
	if b.IsEmpty() {
		return [3]float64{}
	}
	return [3]float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Center returns the midpoint of the box.
func (b Box) Center() [3]float64 {
	if b.IsEmpty() {
		return [3]float64{}
	}
	return [3]float64{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() Box {
	b := EmptyBox()
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		b.Expand(float64(m.Vertices[i]), float64(m.Vertices[i+1]), float64(m.Vertices[i+2]))
	}
	return b
}
