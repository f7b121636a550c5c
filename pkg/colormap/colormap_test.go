package colormap

import (
	"math"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func assertRGB(t *testing.T, want, got colorful.Color) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, eps, "R")
	assert.InDelta(t, want.G, got.G, eps, "G")
	assert.InDelta(t, want.B, got.B, eps, "B")
}

func TestControlPointsEndpoints(t *testing.T) {
	first := PotentialToColor(-600)
	assert.Equal(t, DefaultPoints[0].Color(), first)
	assertRGB(t, colorful.Color{R: 0.5}, first)

	last := PotentialToColor(-1200)
	assert.Equal(t, DefaultPoints[len(DefaultPoints)-1].Color(), last)
	assertRGB(t, colorful.Color{B: 0.8}, last)
}

func TestClampOutsideRange(t *testing.T) {
	assert.Equal(t, PotentialToColor(-600), PotentialToColor(-100))
	assert.Equal(t, PotentialToColor(-600), PotentialToColor(0))
	assert.Equal(t, PotentialToColor(-1200), PotentialToColor(-5000))
}

func TestInterpolationBetweenFirstPoints(t *testing.T) {
	a := PotentialToColor(-600)
	b := PotentialToColor(-750)
	mid := PotentialToColor(-675)

	assert.Greater(t, mid.R, a.R)
	assert.Less(t, mid.R, b.R)
	assert.GreaterOrEqual(t, mid.G, math.Min(a.G, b.G))
	assert.LessOrEqual(t, mid.G, math.Max(a.G, b.G))
	assert.GreaterOrEqual(t, mid.B, math.Min(a.B, b.B))
	assert.LessOrEqual(t, mid.B, math.Max(a.B, b.B))
	assertRGB(t, colorful.Color{R: 0.7}, mid)
}

func TestInterpolatesHue(t *testing.T) {
	// Halfway between red (-750) and yellow (-900) is orange.
	assertRGB(t, colorful.Color{R: 0.9, G: 0.45}, PotentialToColor(-825))
	// Exactly on an interior control point.
	assertRGB(t, colorful.Color{R: 0.9, G: 0.9}, PotentialToColor(-900))
	assertRGB(t, colorful.Color{G: 0.9}, PotentialToColor(-1050))
}

func TestDeterministic(t *testing.T) {
	for p := -1300.0; p <= -500; p += 7.5 {
		assert.Equal(t, PotentialToColor(p), PotentialToColor(p), "potential %v", p)
	}
}

func TestNaNDoesNotPanic(t *testing.T) {
	c := PotentialToColor(math.NaN())
	assert.False(t, math.IsNaN(c.R))
}

func TestLerpHueShortestArc(t *testing.T) {
	tests := []struct {
		name    string
		a, b, r float64
		want    float64
	}{
		{"plain", 0, 60, 0.5, 30},
		{"wrap upward", 350, 10, 0.5, 0},
		{"wrap downward", 10, 350, 0.5, 0},
		{"wrap below zero normalizes", 10, 350, 0.75, 355},
		{"endpoint", 120, 240, 1, 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, lerpHue(tt.a, tt.b, tt.r), eps)
		})
	}
}

func TestWrappingControlPoints(t *testing.T) {
	m := &Mapper{points: []ControlPoint{
		{Potential: 0, Hue: 350, Saturation: 1, Value: 1},
		{Potential: -100, Hue: 10, Saturation: 1, Value: 1},
	}}
	// Halfway crosses 0 degrees rather than sweeping through cyan.
	assertRGB(t, colorful.Color{R: 1}, m.Color(-50))
}

func TestNewRescalesPoints(t *testing.T) {
	assert.Equal(t, DefaultPoints, New(DefaultRed, DefaultBlue).Points())

	m := New(-500, -1100)
	pts := m.Points()
	require.Len(t, pts, len(DefaultPoints))
	assert.InDelta(t, -500, pts[0].Potential, eps)
	assert.InDelta(t, -1100, pts[len(pts)-1].Potential, eps)
	assert.Equal(t, DefaultPoints[0].Color(), m.Color(-500))
	assertRGB(t, PotentialToColor(-675), m.Color(-575))

	wide := New(-600, -1800)
	assert.InDelta(t, -900, wide.Points()[1].Potential, eps)

	assert.Same(t, Default, New(-1200, -600), "inverted range falls back to default")
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#800000", Default.Hex(-600))
	assert.Equal(t, "#0000cc", Default.Hex(-1200))
}
