package stl

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/chazu/cpview/pkg/kernel"
)

const (
	maxNameRunes = 20
	unknownName  = "unknown"
)

var floatToken = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

type solid struct {
	name string
	mesh *kernel.Mesh
}

// asciiParser walks an ASCII STL one line at a time. Malformed facets are
// logged and skipped; parsing never fails.
type asciiParser struct {
	lines   []string
	pos     int
	facets  int
	skipped int
	log     *slog.Logger
}

func newASCIIParser(data []byte, log *slog.Logger) *asciiParser {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return &asciiParser{lines: lines, log: log}
}

func (p *asciiParser) keyword() string {
	f := strings.Fields(p.lines[p.pos])
	return strings.ToLower(f[0])
}

// parse returns the solids in file order plus any facets found outside
// a solid block.
func (p *asciiParser) parse() ([]solid, *kernel.Mesh) {
	var solids []solid
	loose := &kernel.Mesh{}
	for p.pos < len(p.lines) {
		switch p.keyword() {
		case "solid":
			name := cleanName(restAfter(p.lines[p.pos], 1))
			p.pos++
			solids = append(solids, p.parseSolid(name))
		case "facet":
			p.parseFacet(loose)
		default:
			p.log.Debug("unexpected line outside solid", "line", p.pos+1, "text", p.lines[p.pos])
			p.pos++
		}
	}
	return solids, loose
}

func (p *asciiParser) parseSolid(name string) solid {
	s := solid{name: name, mesh: &kernel.Mesh{}}
	for p.pos < len(p.lines) {
		switch p.keyword() {
		case "endsolid":
			p.pos++
			return s
		case "facet":
			p.parseFacet(s.mesh)
		case "solid":
			p.log.Warn("solid not closed before next solid", "solid", name, "line", p.pos+1)
			return s
		default:
			p.log.Debug("unexpected line in solid", "solid", name, "line", p.pos+1, "text", p.lines[p.pos])
			p.pos++
		}
	}
	p.log.Warn("solid not closed before end of file", "solid", name)
	return s
}

// parseFacet consumes one facet starting at the current "facet" line and
// appends it to m when it carries exactly three normal components and
// nine vertex coordinates.
func (p *asciiParser) parseFacet(m *kernel.Mesh) {
	p.facets++
	startLine := p.pos + 1
	normal := parseFloats(restAfter(p.lines[p.pos], 2))
	p.pos++

	var coords []float64
loop:
	for p.pos < len(p.lines) {
		switch p.keyword() {
		case "outer", "endloop":
			p.pos++
		case "vertex":
			coords = append(coords, parseFloats(restAfter(p.lines[p.pos], 1))...)
			p.pos++
		case "endfacet":
			p.pos++
			break loop
		default:
			p.log.Warn("facet not closed", "facet", p.facets, "line", startLine)
			break loop
		}
	}

	if len(normal) != 3 || len(coords) != 9 {
		p.skipped++
		p.log.Warn("skipping malformed facet",
			"facet", p.facets,
			"line", startLine,
			"normalComponents", len(normal),
			"vertexCoordinates", len(coords))
		return
	}
	for v := 0; v < 3; v++ {
		for c := 0; c < 3; c++ {
			m.Vertices = append(m.Vertices, float32(coords[v*3+c]))
			m.Normals = append(m.Normals, float32(normal[c]))
		}
	}
}

// restAfter drops the first n whitespace-separated fields of line.
func restAfter(line string, n int) string {
	f := strings.Fields(line)
	if len(f) <= n {
		return ""
	}
	return strings.Join(f[n:], " ")
}

// parseFloats returns every field of s that is a decimal float. Other
// fields are dropped, so callers detect bad input by count.
func parseFloats(s string) []float64 {
	var out []float64
	for _, tok := range strings.Fields(s) {
		if !floatToken.MatchString(tok) {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// cleanName keeps letters, digits, underscores and whitespace, trims the
// result and caps it at 20 runes. Nothing left means "unknown".
func cleanName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	name := []rune(strings.TrimSpace(b.String()))
	if len(name) > maxNameRunes {
		name = name[:maxNameRunes]
	}
	if s := strings.TrimSpace(string(name)); s != "" {
		return s
	}
	return unknownName
}
