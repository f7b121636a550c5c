package viewer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/chazu/cpview/pkg/colormap"
	"github.com/chazu/cpview/pkg/gradient"
	"github.com/chazu/cpview/pkg/kernel"
	"github.com/chazu/cpview/pkg/segment"
)

// ListItem is one row of the segment list view.
type ListItem struct {
	Name      string `json:"name"`
	Color     string `json:"color"` // "#rrggbb" at the segment's mid potential, "" if uncolored
	Range     string `json:"range"` // "-600 → -700 mV", "" if uncolored
	Visible   bool   `json:"visible"`
	Triangles int    `json:"triangles"`
}

// Segments returns the list view of the current model in load order.
// With nothing loaded the list is empty.
func (v *Viewer) Segments() []ListItem {
	v.mu.Lock()
	defer v.mu.Unlock()

	m := v.mapper
	return lo.Map(v.set.All(), func(seg *segment.Segment, _ int) ListItem {
		item := ListItem{
			Name:      seg.Name,
			Visible:   seg.Visible,
			Triangles: seg.TriangleCount(),
		}
		if seg.Resolved() {
			if start, end, ok := v.policy.Bounds(seg.Index, v.potentials.NodeValues); ok {
				item.Color = m.Hex((start + end) / 2)
				item.Range = gradient.RangeLabel(seg, v.potentials.NodeValues, v.policy)
			}
		}
		return item
	})
}

// LegendStop is one control point of the color scale.
type LegendStop struct {
	Potential float64 `json:"potential"` // mV
	Color     string  `json:"color"`     // "#rrggbb"
}

// Legend returns the control points of the current color scale, most
// positive potential first.
func (v *Viewer) Legend() []LegendStop {
	v.mu.Lock()
	m := v.mapper
	v.mu.Unlock()

	return lo.Map(m.Points(), func(p colormap.ControlPoint, _ int) LegendStop {
		return LegendStop{Potential: p.Potential, Color: p.Color().Clamped().Hex()}
	})
}

// Row describes one segment in an inspection report.
type Row struct {
	Name      string       `json:"name"`
	Triangles int          `json:"triangles"`
	Axis      segment.Axis `json:"axis"`
	AxisRange [2]float64   `json:"axisRange"`
	Index     int          `json:"index"`
	Min       [3]float64   `json:"min"`
	Max       [3]float64   `json:"max"`
	Visible   bool         `json:"visible"`
}

// Report summarizes the loaded model.
type Report struct {
	Format    string       `json:"format"`
	Source    string       `json:"source"`
	Segments  int          `json:"segments"`
	Triangles int          `json:"triangles"`
	Center    [3]float64   `json:"center"` // of the visible segments
	Size      [3]float64   `json:"size"`
	UpAxis    segment.Axis `json:"upAxis"` // longest overall extent; renderers stand it upright
	Rows      []Row        `json:"rows"`
}

// Inspect returns a report on the current model and logs it.
func (v *Viewer) Inspect() Report {
	v.mu.Lock()
	r := v.reportLocked()
	v.mu.Unlock()

	v.logReport(r)
	return r
}

func (v *Viewer) reportLocked() Report {
	r := Report{Format: v.format, Source: v.source, UpAxis: segment.AxisY}
	overall := kernel.EmptyBox()
	for _, seg := range v.set.All() {
		b := seg.Mesh.Bounds()
		if seg.Visible {
			overall.Union(b)
		}
		r.Rows = append(r.Rows, Row{
			Name:      seg.Name,
			Triangles: seg.TriangleCount(),
			Axis:      seg.Axis,
			AxisRange: seg.AxisRange,
			Index:     seg.Index,
			Min:       b.Min,
			Max:       b.Max,
			Visible:   seg.Visible,
		})
		r.Triangles += seg.TriangleCount()
	}
	r.Segments = len(r.Rows)
	if !overall.IsEmpty() {
		r.Center = overall.Center()
		r.Size = overall.Size()
		r.UpAxis = segment.DominantAxis(overall)
	}
	return r
}

func (v *Viewer) logReport(r Report) {
	v.log.Info("model inspection",
		"format", r.Format,
		"source", r.Source,
		"segments", r.Segments,
		"triangles", r.Triangles,
		"center", r.Center,
		"size", r.Size,
		"upAxis", r.UpAxis.String())
	for _, row := range r.Rows {
		v.log.Debug("segment",
			"name", row.Name,
			"triangles", row.Triangles,
			"axis", row.Axis.String(),
			"range", row.AxisRange,
			"index", row.Index,
			"visible", row.Visible)
	}
}

// WriteTable prints the report as an aligned text table.
func (r Report) WriteTable(w io.Writer) error {
	fmt.Fprintf(w, "%s (%s): %d segments, %d triangles, up %s\n",
		r.Source, r.Format, r.Segments, r.Triangles, r.UpAxis)
	fmt.Fprintf(w, "center %.3f  size %.3f\n\n", r.Center, r.Size)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTRIANGLES\tAXIS\tRANGE\tINDEX\tMIN\tMAX\tVISIBLE")
	for _, row := range r.Rows {
		index := "-"
		if row.Index != segment.NoIndex {
			index = fmt.Sprint(row.Index)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.3f..%.3f\t%s\t%.3f\t%.3f\t%t\n",
			row.Name, row.Triangles, row.Axis, row.AxisRange[0], row.AxisRange[1],
			index, row.Min, row.Max, row.Visible)
	}
	return tw.Flush()
}
