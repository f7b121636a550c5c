// Package stl decodes binary and ASCII STL files into named segments.
//
// Binary files carry one anonymous triangle soup, which is sliced into
// bands along its longest axis. ASCII files may carry several
// solid...endsolid blocks; each becomes a segment named after its solid.
package stl

import (
	"errors"
	"log/slog"

	"github.com/chazu/cpview/pkg/segment"
)

var (
	// ErrTooShort indicates a binary buffer smaller than the 84-byte header.
	ErrTooShort = errors.New("stl: buffer shorter than binary header")
	// ErrTruncated indicates a binary buffer holding fewer records than its
	// header declares. DecodeBinary still returns the complete records.
	ErrTruncated = errors.New("stl: binary buffer truncated")
)

// Kind names the STL encoding a buffer was decoded as.
type Kind string

const (
	KindBinary Kind = "Binary STL"
	KindASCII  Kind = "ASCII STL"
)

// Options tunes decoding. The zero value is usable.
type Options struct {
	// SegmentCount is the number of bands automatic slicing produces.
	// Defaults to segment.DefaultCount.
	SegmentCount int
	// SizeTolerance is the allowed difference in bytes between the
	// buffer length and the length implied by the binary triangle count.
	// Zero requires an exact match.
	SizeTolerance int
	// Resolver maps solid names to node-value indices. The zero value
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

// Decode sniffs data and decodes it as binary or ASCII STL, reporting
// which. A file that yields no named solids is sliced automatically; a
// file with no usable triangles at all yields an empty set.
func Decode(data []byte, opts Options) (*segment.Set, Kind, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	if IsBinary(data, opts.SizeTolerance) {
		log.Info("detected binary STL", "bytes", len(data))
		m, err := DecodeBinary(data)
		if errors.Is(err, ErrTruncated) {
			log.Warn("binary STL shorter than declared, keeping complete triangles",
				"triangles", m.TriangleCount(), "error", err)
		} else if err != nil {
			return nil, KindBinary, err
		}
		log.Info("binary STL parsed", "triangles", m.TriangleCount(), "colors", m.HasColors())
		return segment.ByAxisLogged(m, opts.SegmentCount, log), KindBinary, nil
	}

	log.Info("detected ASCII STL", "bytes", len(data))
	p := newASCIIParser(data, log)
	solids, loose := p.parse()

	set := segment.NewSet()
	for _, s := range solids {
		if s.mesh.TriangleCount() == 0 {
			log.Warn("solid has no valid facets, skipping", "solid", s.name)
			continue
		}
		set.Add(segment.New(s.name, s.mesh, opts.Resolver))
	}
	log.Info("ASCII STL parsed",
		"solids", len(solids),
		"segments", set.Len(),
		"skippedFacets", p.skipped)

	if set.Len() == 0 {
		log.Info("no named solids, slicing loose facets", "triangles", loose.TriangleCount())
		return segment.ByAxisLogged(loose, opts.SegmentCount, log), KindASCII, nil
	}
	if loose.TriangleCount() > 0 {
		log.Warn("facets outside any solid ignored", "triangles", loose.TriangleCount())
	}
	return set, KindASCII, nil
}
