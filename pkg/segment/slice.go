package segment

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/chazu/cpview/pkg/kernel"
)

// DefaultCount is the number of bands automatic slicing produces: six
// segments between the seven boundary nodes of one leg.
const DefaultCount = 6

// ByAxis slices m into count equal-width bands along its dominant axis.
// Each triangle goes whole into the band containing its centroid; bands
// are half-open [lo, hi) except the last, which also takes centroids at
// the maximum. Empty bands produce no segment, so fewer than count
// segments may come back. Segments are named "segment N" and carry
// Index N-1.
//
// A mesh that is flat along every axis lands entirely in the first band.
func ByAxis(m *kernel.Mesh, count int) *Set {
	return ByAxisLogged(m, count, slog.Default())
}

// ByAxisLogged is ByAxis with diagnostics sent to logger.
func ByAxisLogged(m *kernel.Mesh, count int, logger *slog.Logger) *Set {
	set := NewSet()
	if m == nil || m.TriangleCount() == 0 {
		return set
	}
	if count < 1 {
		count = 1
	}

	b := m.Bounds()
	axis := DominantAxis(b)
	lo, hi := b.Min[axis], b.Max[axis]
	width := (hi - lo) / float64(count)
	logger.Info("slicing mesh",
		"triangles", m.TriangleCount(),
		"axis", axis.String(),
		"min", b.Min, "max", b.Max,
		"bands", count)

	bandMin := func(i int) float64 { return lo + float64(i)*width }

	bands := make([]*kernel.Mesh, count)
	for i := 0; i+8 < len(m.Vertices); i += 9 {
		c := (float64(m.Vertices[i+int(axis)]) +
			float64(m.Vertices[i+3+int(axis)]) +
			float64(m.Vertices[i+6+int(axis)])) / 3

		band := 0
		if width > 0 {
			band = int(math.Floor((c - lo) / width))
			band = max(0, min(band, count-1))
			// Settle rounding against the exact band bounds.
			for band > 0 && c < bandMin(band) {
				band--
			}
			for band < count-1 && c >= bandMin(band+1) {
				band++
			}
		}
		if bands[band] == nil {
			bands[band] = &kernel.Mesh{}
		}
		bands[band].AppendTriangle(m, i)
	}

	for i, bm := range bands {
		if bm == nil {
			continue
		}
		if !bm.HasNormals() {
			kernel.ComputeFaceNormals(bm)
		}
		name := fmt.Sprintf("segment %d", i+1)
		bm.PartName = name
		s := &Segment{
			Name:      name,
			Mesh:      bm,
			Visible:   true,
			Axis:      axis,
			AxisRange: [2]float64{bandMin(i), bandMin(i + 1)},
			Index:     i,
		}
		if i == count-1 {
			s.AxisRange[1] = hi
		}
		set.Add(s)
		logger.Debug("created segment",
			"name", name,
			"axis", axis.String(),
			"range", s.AxisRange,
			"triangles", bm.TriangleCount())
	}

	logger.Info("slicing complete", "segments", set.Len())
	return set
}
