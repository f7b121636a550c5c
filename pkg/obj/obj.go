// Package obj decodes the Wavefront OBJ subset used for segmented models:
// vertices, faces of any arity, and o/g grouping.
package obj

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/cpview/pkg/kernel"
	"github.com/chazu/cpview/pkg/segment"
)

const maxLineBytes = 1 << 20

// Options tunes decoding. The zero value is usable.
type Options struct {
	// SegmentCount is the number of bands used when the file carries no
	// usable groups. Defaults to segment.DefaultCount.
	SegmentCount int
	// Resolver maps group names to node-value indices. The zero value
	// means segment.DefaultResolver.
	Resolver segment.Resolver
	// Logger receives parse diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SegmentCount < 1 {
		o.SegmentCount = segment.DefaultCount
	}
	if o.Resolver == (segment.Resolver{}) {
		o.Resolver = segment.DefaultResolver
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// group accumulates triangles as indices into the file's vertex list.
type group struct {
	name string
	tris []int
}

type decoder struct {
	opts      Options
	log       *slog.Logger
	positions []r3.Vec
	normals   int
	groups    []group
	cur       group
	directive bool
	line      int
	skipped   int
}

// Decode reads OBJ text from r. Each o or g directive closes the faces
// gathered so far into a segment named after the previous directive.
// Without any grouping directive, or when grouping yields nothing, every
// face is sliced into opts.SegmentCount bands instead.
//
// Only read errors are returned; malformed lines are logged and skipped.
func Decode(r io.Reader, opts Options) (*segment.Set, error) {
	opts = opts.withDefaults()
	d := &decoder{opts: opts, log: opts.Logger, cur: group{name: "object 1"}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		d.line++
		d.parseLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: read line %d: %w", d.line+1, err)
	}
	d.flush()

	d.log.Info("OBJ parsed",
		"vertices", len(d.positions),
		"normals", d.normals,
		"groups", len(d.groups),
		"skippedFaces", d.skipped)

	set := segment.NewSet()
	if d.directive {
		for _, g := range d.groups {
			set.Add(segment.New(g.name, d.mesh(g.tris), opts.Resolver))
		}
	}
	if set.Len() > 0 {
		return set, nil
	}

	var all []int
	for _, g := range d.groups {
		all = append(all, g.tris...)
	}
	if len(all) == 0 {
		return set, nil
	}
	d.log.Info("no object groups, slicing all faces", "triangles", len(all)/3)
	return segment.ByAxisLogged(d.mesh(all), opts.SegmentCount, d.log), nil
}

func (d *decoder) parseLine(line string) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "v":
		d.positions = append(d.positions, d.parseVertex(fields[1:]))
	case "vn":
		d.normals++
	case "f":
		d.parseFace(fields[1:])
	case "o", "g":
		d.directive = true
		d.flush()
		name := strings.TrimSpace(strings.Join(fields[1:], " "))
		if name == "" {
			name = fmt.Sprintf("object %d", len(d.groups)+1)
		}
		d.cur = group{name: name}
	default:
		// vt, s, usemtl, mtllib and friends carry nothing we draw.
	}
}

// parseVertex always yields a position so later face indices stay
// aligned; unreadable components become zero.
func (d *decoder) parseVertex(args []string) r3.Vec {
	var c [3]float64
	for i := 0; i < 3; i++ {
		if i >= len(args) {
			d.log.Warn("vertex has fewer than three components", "line", d.line)
			break
		}
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			d.log.Warn("bad vertex component", "line", d.line, "value", args[i])
			continue
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}
}

func (d *decoder) parseFace(refs []string) {
	if len(refs) < 3 {
		d.skipped++
		d.log.Warn("face has fewer than three vertices", "line", d.line)
		return
	}
	idx := make([]int, len(refs))
	for i, ref := range refs {
		v, ok := d.resolve(ref)
		if !ok {
			d.skipped++
			d.log.Warn("face references missing vertex",
				"line", d.line, "ref", ref, "vertices", len(d.positions))
			return
		}
		idx[i] = v
	}
	for i := 2; i < len(idx); i++ {
		d.cur.tris = append(d.cur.tris, idx[0], idx[i-1], idx[i])
	}
}

// resolve turns one face reference ("7", "7/2", "7//3", "-1") into a
// 0-based vertex index.
func (d *decoder) resolve(ref string) (int, bool) {
	head, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(head)
	if err != nil || n == 0 {
		return 0, false
	}
	if n < 0 {
		n += len(d.positions)
	} else {
		n--
	}
	return n, n >= 0 && n < len(d.positions)
}

func (d *decoder) flush() {
	if len(d.cur.tris) == 0 {
		return
	}
	d.groups = append(d.groups, d.cur)
	d.log.Debug("closed group", "name", d.cur.name, "triangles", len(d.cur.tris)/3)
	d.cur = group{name: d.cur.name}
}

// mesh expands indexed triangles into a soup with smooth normals shared
// across each OBJ vertex.
func (d *decoder) mesh(tris []int) *kernel.Mesh {
	sums := make(map[int]r3.Vec)
	for i := 0; i+2 < len(tris); i += 3 {
		a, b, c := d.positions[tris[i]], d.positions[tris[i+1]], d.positions[tris[i+2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, v := range tris[i : i+3] {
			sums[v] = r3.Add(sums[v], n)
		}
	}

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, len(tris)*3),
		Normals:  make([]float32, 0, len(tris)*3),
	}
	for _, v := range tris {
		p := d.positions[v]
		n := sums[v]
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return m
}
