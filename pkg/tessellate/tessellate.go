// Package tessellate builds the bundled default model: a jacket of
// battered legs, each split into segments, produced as one triangle mesh
// per segment using a geometry kernel.
package tessellate

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/cpview/pkg/kernel"
)

// ErrInvalidJacket is returned for jacket dimensions that cannot be built.
var ErrInvalidJacket = errors.New("tessellate: invalid jacket")

// Jacket describes a structure of straight legs standing on a circle,
// leaning inward by the batter angle. Heights run along +Y.
type Jacket struct {
	Legs           int     `toml:"legs"`
	SegmentsPerLeg int     `toml:"segments_per_leg"`
	Height         float64 `toml:"height"`
	Radius         float64 `toml:"radius"`
	Spread         float64 `toml:"spread"` // distance of each foot from the center
	Batter         float64 `toml:"batter"` // inward lean from vertical, degrees
	NodeCans       bool    `toml:"node_cans"`
}

// DefaultJacket returns four legs of six segments.
func DefaultJacket() *Jacket {
	return &Jacket{
		Legs:           4,
		SegmentsPerLeg: 6,
		Height:         120,
		Radius:         2,
		Spread:         30,
		Batter:         8,
		NodeCans:       true,
	}
}

// Validate reports dimensions that cannot be built. Leg and segment
// counts stay single digits so every segment name resolves.
func (j *Jacket) Validate() error {
	switch {
	case j.Legs < 1 || j.Legs > 9:
		return fmt.Errorf("%w: legs must be 1-9, got %d", ErrInvalidJacket, j.Legs)
	case j.SegmentsPerLeg < 1 || j.SegmentsPerLeg > 9:
		return fmt.Errorf("%w: segments per leg must be 1-9, got %d", ErrInvalidJacket, j.SegmentsPerLeg)
	case j.Height <= 0 || j.Radius <= 0:
		return fmt.Errorf("%w: height and radius must be positive", ErrInvalidJacket)
	case j.Batter < 0 || j.Batter >= 45:
		return fmt.Errorf("%w: batter must be in [0, 45) degrees, got %g", ErrInvalidJacket, j.Batter)
	case j.Spread < j.Height*math.Tan(j.Batter*math.Pi/180):
		return fmt.Errorf("%w: legs would cross before the top", ErrInvalidJacket)
	}
	return nil
}

// SegmentLength returns the length of one segment along its leg.
func (j *Jacket) SegmentLength() float64 {
	return j.Height / math.Cos(j.Batter*math.Pi/180) / float64(j.SegmentsPerLeg)
}

// placement is where one segment sits: rotations applied first, then
// the translation of its center.
type placement struct {
	tilt    float64 // about Z, degrees
	azimuth float64 // about Y, degrees
	center  [3]float64
}

// place computes the placement of segment seg (0-based) on leg (0-based).
func (j *Jacket) place(leg, seg int) placement {
	b := j.Batter * math.Pi / 180
	az := 360/float64(j.Legs)*float64(leg) + 180/float64(j.Legs)
	azr := az * math.Pi / 180

	// Center in the leg's own frame: foot at (Spread, 0, 0), axis leaning
	// toward -X.
	along := (float64(seg) + 0.5) * j.SegmentLength()
	x := j.Spread - along*math.Sin(b)
	y := along * math.Cos(b)

	return placement{
		tilt:    j.Batter,
		azimuth: az,
		center:  [3]float64{x * math.Cos(azr), y, -x * math.Sin(azr)},
	}
}

// SegmentName returns the resolvable name of segment seg on leg, both
// 0-based: leg 2, segment 3 is "leg23" when counted from one.
func SegmentName(leg, seg int) string {
	return fmt.Sprintf("leg%d%d", leg+1, seg+1)
}

// Tessellate builds every segment of j with k, leg by leg, and returns
// one mesh per segment named by SegmentName.
func Tessellate(j *Jacket, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if j == nil {
		return nil, nil
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}

	meshes := make([]*kernel.Mesh, 0, j.Legs*j.SegmentsPerLeg)
	for leg := 0; leg < j.Legs; leg++ {
		for seg := 0; seg < j.SegmentsPerLeg; seg++ {
			m, err := j.buildSegment(k, leg, seg)
			if err != nil {
				return nil, fmt.Errorf("tessellate: %s: %w", SegmentName(leg, seg), err)
			}
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

func (j *Jacket) buildSegment(k kernel.Kernel, leg, seg int) (*kernel.Mesh, error) {
	length := j.SegmentLength()
	solid := k.Cylinder(length, j.Radius, 32)

	// A can is a short, wider sleeve at the segment's lower node.
	if j.NodeCans && seg > 0 {
		can := k.Cylinder(length*0.12, j.Radius*1.5, 32)
		can = k.Translate(can, 0, 0, -length/2+length*0.06)
		solid = k.Union(solid, can)
	}

	p := j.place(leg, seg)
	// The kernel's cylinder runs along Z; stand it on Y, then lean it.
	solid = k.Rotate(solid, -90, 0, p.tilt)
	solid = k.Rotate(solid, 0, p.azimuth, 0)
	solid = k.Translate(solid, p.center[0], p.center[1], p.center[2])

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	mesh.PartName = SegmentName(leg, seg)
	return mesh, nil
}
