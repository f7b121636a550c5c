package kernel

import "gonum.org/v1/gonum/spatial/r3"

// triangleNormal returns the unnormalized normal of the triangle starting
// at vertex component i. Its length is twice the triangle's area.
func triangleNormal(v []float32, i int) r3.Vec {
	a := r3.Vec{X: float64(v[i]), Y: float64(v[i+1]), Z: float64(v[i+2])}
	b := r3.Vec{X: float64(v[i+3]), Y: float64(v[i+4]), Z: float64(v[i+5])}
	c := r3.Vec{X: float64(v[i+6]), Y: float64(v[i+7]), Z: float64(v[i+8])}
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

func unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// ComputeFaceNormals replaces m.Normals with each triangle's unit normal
// replicated on its three vertices. Degenerate triangles get a zero normal.
func ComputeFaceNormals(m *Mesh) {
	m.Normals = make([]float32, len(m.Vertices))
	for i := 0; i+8 < len(m.Vertices); i += 9 {
		n := unit(triangleNormal(m.Vertices, i))
		for j := 0; j < 3; j++ {
			m.Normals[i+j*3] = float32(n.X)
			m.Normals[i+j*3+1] = float32(n.Y)
			m.Normals[i+j*3+2] = float32(n.Z)
		}
	}
}

// ComputeVertexNormals replaces m.Normals with smooth normals: every
// vertex gets the area-weighted average of the normals of all triangles
// touching its position.
func ComputeVertexNormals(m *Mesh) {
	sums := make(map[[3]float32]r3.Vec)
	for i := 0; i+8 < len(m.Vertices); i += 9 {
		n := triangleNormal(m.Vertices, i)
		for j := 0; j < 3; j++ {
			k := [3]float32(m.Vertices[i+j*3 : i+j*3+3])
			sums[k] = r3.Add(sums[k], n)
		}
	}

	m.Normals = make([]float32, len(m.Vertices))
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		n := unit(sums[[3]float32(m.Vertices[i:i+3])])
		m.Normals[i] = float32(n.X)
		m.Normals[i+1] = float32(n.Y)
		m.Normals[i+2] = float32(n.Z)
	}
}
