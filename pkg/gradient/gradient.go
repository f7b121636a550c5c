// Package gradient colors segment geometry by interpolating potential
// along each segment's dominant axis.
package gradient

import (
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/chazu/cpview/pkg/colormap"
	"github.com/chazu/cpview/pkg/segment"
)

// ColorRange holds the reference potentials drawn deepest red and
// deepest blue.
type ColorRange struct {
	Red  float64 `json:"red" toml:"red"`
	Blue float64 `json:"blue" toml:"blue"`
}

// Potentials is everything the coloring pass needs from the outside:
// node potentials in millivolts and the color scale's reference range.
type Potentials struct {
	NodeValues []float64  `json:"nodeValues" toml:"node_values"`
	ColorRange ColorRange `json:"colorRange" toml:"color_range"`
}

// DefaultPotentials returns seven evenly spaced boundary potentials from
// -600 to -1200 mV over the default color range.
func DefaultPotentials() Potentials {
	return Potentials{
		NodeValues: []float64{-600, -700, -800, -900, -1000, -1100, -1200},
		ColorRange: ColorRange{Red: colormap.DefaultRed, Blue: colormap.DefaultBlue},
	}
}

// Mapper returns the color mapper for p's color range.
func (p Potentials) Mapper() *colormap.Mapper {
	return colormap.New(p.ColorRange.Red, p.ColorRange.Blue)
}

// Apply colors every vertex of seg, interpolating from start at the low
// end of seg.AxisRange to end at the high end. The colors are stored on
// seg.Mesh and returned. A zero-length range colors every vertex with
// start.
func Apply(seg *segment.Segment, start, end float64, m *colormap.Mapper) []float32 {
	if m == nil {
		m = colormap.Default
	}
	axisMin, axisMax := seg.AxisRange[0], seg.AxisRange[1]
	span := axisMax - axisMin

	n := seg.Mesh.VertexCount()
	colors := make([]float32, n*3)
	for v := 0; v < n; v++ {
		t := 0.0
		if span > 0 {
			t = lo.Clamp((seg.Coord(v)-axisMin)/span, 0, 1)
		}
		c := m.Color(start + (end-start)*t)
		colors[v*3] = float32(c.R)
		colors[v*3+1] = float32(c.G)
		colors[v*3+2] = float32(c.B)
	}
	seg.Mesh.Colors = colors
	return colors
}

// ApplyAll colors every resolved segment in set whose boundary
// potentials the policy can supply, and returns how many were colored.
// Other segments keep whatever colors they had. A nil policy means
// DefaultPolicy; a nil mapper means the mapper for p's color range.
func ApplyAll(set *segment.Set, p Potentials, policy Policy, m *colormap.Mapper) int {
	return ApplyAllLogged(set, p, policy, m, slog.Default())
}

// ApplyAllLogged is ApplyAll with diagnostics sent to logger.
func ApplyAllLogged(set *segment.Set, p Potentials, policy Policy, m *colormap.Mapper, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	if m == nil {
		m = p.Mapper()
	}

	colored := 0
	for _, seg := range set.All() {
		if !seg.Resolved() {
			logger.Warn("segment has no node index, leaving uncolored", "segment", seg.Name)
			continue
		}
		start, end, ok := policy.Bounds(seg.Index, p.NodeValues)
		if !ok {
			logger.Warn("segment index outside node values",
				"segment", seg.Name, "index", seg.Index, "nodes", len(p.NodeValues))
			continue
		}
		Apply(seg, start, end, m)
		colored++
		logger.Debug("colored segment",
			"segment", seg.Name,
			"start", start, "end", end,
			"vertices", seg.Mesh.VertexCount(),
			"axis", seg.Axis.String())
	}
	logger.Info("potential colors applied", "colored", colored, "segments", set.Len())
	return colored
}

// RangeLabel formats a segment's boundary potentials for list views,
// e.g. "-600 → -700 mV". It returns "" when the segment has no bounds.
func RangeLabel(seg *segment.Segment, nodes []float64, policy Policy) string {
	if !seg.Resolved() {
		return ""
	}
	start, end, ok := policy.Bounds(seg.Index, nodes)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%g → %g mV", start, end)
}
