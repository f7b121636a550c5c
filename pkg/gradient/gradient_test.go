package gradient

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cpview/pkg/colormap"
	"github.com/chazu/cpview/pkg/kernel"
	"github.com/chazu/cpview/pkg/segment"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// column returns a segment of one triangle per y pair, spanning y0..y1
// along Y.
func column(name string, index int, y0, y1 float32) *segment.Segment {
	m := &kernel.Mesh{Vertices: []float32{
		0, y0, 0,
		0.1, y0, 0,
		0, y1, 0,
	}}
	s := segment.New(name, m, segment.DefaultResolver)
	s.Index = index
	return s
}

func colorAt(colors []float32, v int) [3]float32 {
	return [3]float32{colors[v*3], colors[v*3+1], colors[v*3+2]}
}

func rgb(p float64) [3]float32 {
	c := colormap.PotentialToColor(p)
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}
}

func TestApplyInterpolatesAlongAxis(t *testing.T) {
	seg := column("leg1", 0, 0, 100)
	require.Equal(t, segment.AxisY, seg.Axis)

	colors := Apply(seg, -600, -1200, nil)
	require.Len(t, colors, len(seg.Mesh.Vertices))
	assert.Equal(t, colors, seg.Mesh.Colors)

	assert.Equal(t, rgb(-600), colorAt(colors, 0), "bottom vertex takes start")
	assert.Equal(t, rgb(-600), colorAt(colors, 1))
	assert.Equal(t, rgb(-1200), colorAt(colors, 2), "top vertex takes end")
}

func TestApplyClampsOutsideRange(t *testing.T) {
	seg := column("leg1", 0, 0, 100)
	seg.AxisRange = [2]float64{25, 75}

	colors := Apply(seg, -700, -900, colormap.Default)
	assert.Equal(t, rgb(-700), colorAt(colors, 0))
	assert.Equal(t, rgb(-900), colorAt(colors, 2))
}

func TestApplyDegenerateRange(t *testing.T) {
	seg := column("leg1", 0, 10, 10)
	seg.AxisRange = [2]float64{10, 10}

	colors := Apply(seg, -800, -1100, nil)
	for v := 0; v < seg.Mesh.VertexCount(); v++ {
		got := colorAt(colors, v)
		for _, c := range got {
			assert.False(t, math.IsNaN(float64(c)), "vertex %d", v)
		}
		assert.Equal(t, rgb(-800), got, "vertex %d", v)
	}
}

func TestSharedBasePolicy(t *testing.T) {
	nodes := []float64{-600, -700, -800, -900, -1000, -1100, -1200}
	p := SharedBase{SegmentsPerChain: 6}

	tests := []struct {
		index      int
		start, end float64
		ok         bool
	}{
		{0, -600, -700, true},
		{5, -1100, -1200, true},
		{8, -800, -900, true}, // leg23 reuses segment 3 of the base
		{23, -1100, -1200, true},
		{-1, 0, 0, false},
	}
	for _, tt := range tests {
		start, end, ok := p.Bounds(tt.index, nodes)
		assert.Equal(t, tt.ok, ok, "index %d", tt.index)
		assert.Equal(t, tt.start, start, "index %d", tt.index)
		assert.Equal(t, tt.end, end, "index %d", tt.index)
	}

	_, _, ok := p.Bounds(5, nodes[:6])
	assert.False(t, ok, "six nodes cannot bound the sixth segment")
}

func TestPerChainPolicy(t *testing.T) {
	nodes := make([]float64, 24)
	for i := range nodes {
		nodes[i] = -600 - float64(i)*10
	}
	p := PerChain{SegmentsPerChain: 6}

	start, end, ok := p.Bounds(8, nodes)
	require.True(t, ok)
	assert.Equal(t, -680.0, start)
	assert.Equal(t, -690.0, end)

	start, end, ok = p.Bounds(11, nodes)
	require.True(t, ok)
	assert.Equal(t, -710.0, start)
	assert.Equal(t, -710.0, end, "last segment of chain 2 is flat")

	start, end, ok = p.Bounds(6, nodes)
	require.True(t, ok)
	assert.Equal(t, -660.0, start, "chain 2 starts from its own value")
	assert.Equal(t, -670.0, end)

	_, _, ok = p.Bounds(24, nodes)
	assert.False(t, ok)

	start, end, ok = p.Bounds(3, nodes[:4])
	require.True(t, ok)
	assert.Equal(t, start, end, "no successor means flat")
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("", 6)
	require.NoError(t, err)
	assert.Equal(t, SharedBase{SegmentsPerChain: 6}, p)

	p, err = ParsePolicy(PolicyPerChain, 4)
	require.NoError(t, err)
	assert.Equal(t, PerChain{SegmentsPerChain: 4}, p)

	_, err = ParsePolicy("radial", 6)
	assert.Error(t, err)
}

func TestApplyAllSharedScenario(t *testing.T) {
	set := segment.NewSet()
	set.Add(column("leg11", 0, 0, 10))
	set.Add(column("leg23", 8, 0, 10))
	set.Add(column("deck", segment.NoIndex, 0, 10))

	p := DefaultPotentials()
	n := ApplyAllLogged(set, p, DefaultPolicy(), nil, quiet)
	assert.Equal(t, 2, n)

	assert.Equal(t, rgb(-600), colorAt(set.Get("leg11").Mesh.Colors, 0))
	assert.Equal(t, rgb(-800), colorAt(set.Get("leg23").Mesh.Colors, 0))
	assert.Equal(t, rgb(-900), colorAt(set.Get("leg23").Mesh.Colors, 2))
	assert.Empty(t, set.Get("deck").Mesh.Colors)
}

func TestApplyAllPerChainScenario(t *testing.T) {
	set := segment.NewSet()
	set.Add(column("leg23", 8, 0, 10))

	nodes := make([]float64, 24)
	for i := range nodes {
		nodes[i] = -1200
	}
	nodes[8], nodes[9] = -600, -750

	p := Potentials{NodeValues: nodes, ColorRange: ColorRange{Red: -600, Blue: -1200}}
	n := ApplyAllLogged(set, p, PerChain{SegmentsPerChain: 6}, p.Mapper(), quiet)
	require.Equal(t, 1, n)
	assert.Equal(t, rgb(-600), colorAt(set.Get("leg23").Mesh.Colors, 0))
	assert.Equal(t, rgb(-750), colorAt(set.Get("leg23").Mesh.Colors, 2))
}

func TestApplyAllUsesGivenMapper(t *testing.T) {
	set := segment.NewSet()
	set.Add(column("leg11", 0, 0, 10))

	p := DefaultPotentials()
	wide := colormap.New(-400, -1400)
	require.Equal(t, 1, ApplyAll(set, p, nil, wide))
	got := colorAt(set.Get("leg11").Mesh.Colors, 0)
	c := wide.Color(-600)
	assert.Equal(t, [3]float32{float32(c.R), float32(c.G), float32(c.B)}, got)
	assert.NotEqual(t, rgb(-600), got)

	require.Equal(t, 1, ApplyAll(set, p, nil, nil))
	assert.Equal(t, rgb(-600), colorAt(set.Get("leg11").Mesh.Colors, 0))
}

func TestApplyAllSkipsOutOfRange(t *testing.T) {
	set := segment.NewSet()
	set.Add(column("leg6", 5, 0, 10))

	p := Potentials{NodeValues: []float64{-600, -700}, ColorRange: ColorRange{Red: -600, Blue: -1200}}
	assert.Equal(t, 0, ApplyAllLogged(set, p, nil, nil, quiet))
	assert.Empty(t, set.Get("leg6").Mesh.Colors)
}

func TestRangeLabel(t *testing.T) {
	nodes := DefaultPotentials().NodeValues
	assert.Equal(t, "-600 → -700 mV", RangeLabel(column("leg1", 0, 0, 1), nodes, DefaultPolicy()))
	assert.Equal(t, "", RangeLabel(column("deck", segment.NoIndex, 0, 1), nodes, DefaultPolicy()))
}
