// Package colormap converts protection potentials (mV) into colors by
// piecewise-linear interpolation in HSV space over fixed control points.
package colormap

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ControlPoint anchors a potential to an HSV color. Hue is in degrees,
// saturation and value in 0..1.
type ControlPoint struct {
	Potential  float64 `json:"potential" toml:"potential"`
	Hue        float64 `json:"hue" toml:"hue"`
	Saturation float64 `json:"saturation" toml:"saturation"`
	Value      float64 `json:"value" toml:"value"`
}

// Color returns the point's RGB color.
func (p ControlPoint) Color() colorful.Color {
	return colorful.Hsv(p.Hue, p.Saturation, p.Value)
}

// Reference potentials of the default scale.
const (
	DefaultRed  = -600.0
	DefaultBlue = -1200.0
)

// DefaultPoints runs deep red -> red -> yellow -> green -> blue as the
// potential becomes more negative. Sorted by potential, descending.
var DefaultPoints = []ControlPoint{
	{Potential: -600, Hue: 0, Saturation: 1, Value: 0.5},
	{Potential: -750, Hue: 0, Saturation: 1, Value: 0.9},
	{Potential: -900, Hue: 60, Saturation: 1, Value: 0.9},
	{Potential: -1050, Hue: 120, Saturation: 1, Value: 0.9},
	{Potential: -1200, Hue: 240, Saturation: 1, Value: 0.8},
}

// Mapper maps potentials to colors over a list of control points sorted
// by potential, descending. Outside the list the end colors are held.
type Mapper struct {
	points []ControlPoint
}

// Default is the mapper over DefaultPoints.
var Default = &Mapper{points: DefaultPoints}

// New returns a mapper whose default control points are stretched
// linearly so the first sits at red and the last at blue. New(-600, -1200)
// is equivalent to Default. Red must be above blue; otherwise Default is
// returned.
func New(red, blue float64) *Mapper {
	if !(red > blue) {
		return Default
	}
	first := DefaultPoints[0].Potential
	last := DefaultPoints[len(DefaultPoints)-1].Potential
	scale := (red - blue) / (first - last)

	points := make([]ControlPoint, len(DefaultPoints))
	for i, p := range DefaultPoints {
		p.Potential = red + (p.Potential-first)*scale
		points[i] = p
	}
	return &Mapper{points: points}
}

// Points returns a copy of the mapper's control points.
func (m *Mapper) Points() []ControlPoint {
	return append([]ControlPoint(nil), m.points...)
}

// Color returns the color for potential p.
func (m *Mapper) Color(p float64) colorful.Color {
	pts := m.points
	if p >= pts[0].Potential {
		return pts[0].Color()
	}
	if p <= pts[len(pts)-1].Potential {
		return pts[len(pts)-1].Color()
	}

	for i := 0; i < len(pts)-1; i++ {
		p1, p2 := pts[i], pts[i+1]
		if !(p <= p1.Potential && p >= p2.Potential) {
			continue
		}
		ratio := (p - p2.Potential) / (p1.Potential - p2.Potential)
		h := lerpHue(p2.Hue, p1.Hue, ratio)
		s := p2.Saturation + (p1.Saturation-p2.Saturation)*ratio
		v := p2.Value + (p1.Value-p2.Value)*ratio
		return colorful.Hsv(h, s, v)
	}

	// NaN falls through every comparison.
	return pts[len(pts)-1].Color()
}

// Hex returns the color for potential p as "#rrggbb".
func (m *Mapper) Hex(p float64) string {
	return m.Color(p).Clamped().Hex()
}

// lerpHue interpolates from hue a (ratio 0) to hue b (ratio 1) along the
// shorter arc and normalizes the result into [0, 360).
func lerpHue(a, b, ratio float64) float64 {
	if math.Abs(b-a) > 180 {
		if b > a {
			b -= 360
		} else {
			b += 360
		}
	}
	h := math.Mod(a+(b-a)*ratio, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// PotentialToColor maps p with the default control points.
func PotentialToColor(p float64) colorful.Color {
	return Default.Color(p)
}
