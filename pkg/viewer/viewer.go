// Package viewer owns one loaded model: it decodes files, keeps the
// current segment set, colors it from node potentials and hands it to a
// Renderer. A Viewer is created once per window and torn down with Close.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/debounce"

	"github.com/chazu/cpview/pkg/colormap"
	"github.com/chazu/cpview/pkg/config"
	"github.com/chazu/cpview/pkg/engine"
	"github.com/chazu/cpview/pkg/gradient"
	"github.com/chazu/cpview/pkg/kernel"
	"github.com/chazu/cpview/pkg/kernel/sdfx"
	"github.com/chazu/cpview/pkg/obj"
	"github.com/chazu/cpview/pkg/segment"
	"github.com/chazu/cpview/pkg/stl"
	"github.com/chazu/cpview/pkg/tessellate"
)

var (
	// ErrUnsupportedFormat is returned for names without a .stl or .obj
	// extension. Nothing is read.
	ErrUnsupportedFormat = errors.New("viewer: unsupported file format")
	// ErrRead wraps failures reading a model file.
	ErrRead = errors.New("viewer: read failed")
	// ErrSuperseded is returned by a load that finished after a newer
	// load started. Its result is discarded.
	ErrSuperseded = errors.New("viewer: load superseded by newer load")
	// ErrClosed is returned by loads on a closed viewer.
	ErrClosed = errors.New("viewer: closed")
	// ErrUnknownSegment is returned when a segment name is not loaded.
	ErrUnknownSegment = errors.New("viewer: unknown segment")
	// ErrInvalidPotentials is wrapped by potential validation failures.
	ErrInvalidPotentials = errors.New("viewer: invalid potentials")
)

// Model formats by file extension. Reports label STL models with the
// decoded encoding instead, stl.KindBinary or stl.KindASCII.
const (
	FormatSTL     = "stl"
	FormatOBJ     = "obj"
	FormatDefault = "default"
)

// Renderer displays segment sets. Calls arrive in order and must not
// call back into the Viewer.
type Renderer interface {
	// Install adds every segment of set to the scene.
	Install(set *segment.Set)
	// Dispose removes every segment of set and releases its resources.
	Dispose(set *segment.Set)
	// Recolor pushes new vertex colors or visibility for set.
	Recolor(set *segment.Set)
}

// Viewer is safe for concurrent use. Decoding runs outside the lock;
// installing and recoloring are serialized.
type Viewer struct {
	cfg      config.Config
	renderer Renderer
	log      *slog.Logger
	engine   *engine.Engine
	kernel   kernel.Kernel
	debounce func(func())

	mu         sync.Mutex
	generation uint64
	closed     bool
	set        *segment.Set
	format     string
	source     string
	potentials gradient.Potentials
	mapper     *colormap.Mapper
	policy     gradient.Policy
}

// New creates a viewer for cfg. A nil renderer discards output; a nil
// logger means slog.Default(). A profile script in cfg, when present,
// replaces the configured node values; if it fails they are kept.
func New(cfg config.Config, r Renderer, logger *slog.Logger) *Viewer {
	if r == nil {
		r = nopRenderer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	policy, err := cfg.Policy()
	if err != nil {
		logger.Warn("bad boundary policy, using default", "error", err)
		policy = gradient.DefaultPolicy()
	}

	v := &Viewer{
		cfg:        cfg,
		renderer:   r,
		log:        logger,
		engine:     engine.NewEngineWithTimeout(cfg.ProfileTimeout()),
		kernel:     sdfx.NewWithCells(cfg.Model.Cells),
		debounce:   debounce.New(cfg.RecolorDelay()),
		potentials: cfg.InitialPotentials(),
		mapper:     cfg.Mapper(),
		policy:     policy,
	}

	if src := cfg.Potentials.Profile; strings.TrimSpace(src) != "" {
		values, evalErrs, err := v.engine.Evaluate(src)
		switch {
		case err != nil:
			logger.Warn("profile script failed", "error", err)
		case len(evalErrs) > 0:
			logger.Warn("profile script has errors", "error", evalErrs[0].Error(), "count", len(evalErrs))
		case len(values) == 0:
			logger.Warn("profile script produced no values")
		default:
			v.potentials.NodeValues = values
			logger.Info("node potentials from profile", "values", len(values))
		}
	}
	return v
}

// FormatOf returns the model format for a file name, by extension.
func FormatOf(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".stl":
		return FormatSTL, nil
	case ".obj":
		return FormatOBJ, nil
	}
	return "", fmt.Errorf("%w: %q (expected .stl or .obj)", ErrUnsupportedFormat, name)
}

// LoadFile loads the model at path. The extension is checked before the
// file is opened.
func (v *Viewer) LoadFile(ctx context.Context, path string) error {
	if _, err := FormatOf(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRead, err)
	}
	return v.Load(ctx, filepath.Base(path), data)
}

// Load decodes data as the format named by name's extension and replaces
// the current model with it.
func (v *Viewer) Load(ctx context.Context, name string, data []byte) error {
	format, err := FormatOf(name)
	if err != nil {
		return err
	}
	gen, err := v.begin()
	if err != nil {
		return err
	}
	v.log.Info("loading model", "name", name, "format", format, "bytes", len(data), "generation", gen)

	set, label, err := v.decode(format, data)
	if err != nil {
		return fmt.Errorf("viewer: decode %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.install(gen, set, label, name)
}

// LoadDefault replaces the current model with the bundled jacket.
func (v *Viewer) LoadDefault(ctx context.Context) error {
	gen, err := v.begin()
	if err != nil {
		return err
	}
	j := v.cfg.Model.Jacket
	v.log.Info("building default model", "legs", j.Legs, "segmentsPerLeg", j.SegmentsPerLeg, "generation", gen)

	meshes, err := tessellate.Tessellate(&j, v.kernel)
	if err != nil {
		return fmt.Errorf("viewer: default model: %w", err)
	}
	set := segment.NewSet()
	resolver := v.cfg.Resolver()
	for _, m := range meshes {
		set.Add(segment.New(m.PartName, m, resolver))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.install(gen, set, FormatDefault, "jacket")
}

// decode returns the segments of data and the report label for the
// encoding actually decoded.
func (v *Viewer) decode(format string, data []byte) (*segment.Set, string, error) {
	switch format {
	case FormatSTL:
		set, kind, err := stl.Decode(data, stl.Options{
			SegmentCount:  v.cfg.SegmentCount,
			SizeTolerance: v.cfg.STL.SizeTolerance,
			Resolver:      v.cfg.Resolver(),
			Logger:        v.log,
		})
		return set, string(kind), err
	case FormatOBJ:
		set, err := obj.Decode(bytes.NewReader(data), obj.Options{
			SegmentCount: v.cfg.SegmentCount,
			Resolver:     v.cfg.Resolver(),
			Logger:       v.log,
		})
		return set, format, err
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// begin takes a new generation token.
func (v *Viewer) begin() (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, ErrClosed
	}
	v.generation++
	return v.generation, nil
}

// install swaps in set if gen is still the newest load: the previous set
// is disposed first, then set is installed and colored.
func (v *Viewer) install(gen uint64, set *segment.Set, format, source string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if gen != v.generation {
		v.log.Info("discarding superseded load", "source", source, "generation", gen, "current", v.generation)
		return ErrSuperseded
	}

	if v.set != nil {
		v.renderer.Dispose(v.set)
	}
	v.set, v.format, v.source = set, format, source
	v.renderer.Install(set)
	v.recolorLocked()

	if set.Len() == 0 {
		v.log.Warn("model has no segments", "source", source)
	}
	v.logReport(v.reportLocked())
	return nil
}

func (v *Viewer) recolorLocked() {
	if v.set == nil {
		return
	}
	gradient.ApplyAllLogged(v.set, v.potentials, v.policy, v.mapper, v.log)
	v.renderer.Recolor(v.set)
}

// ValidatePotentials reports potentials that cannot drive coloring.
func ValidatePotentials(p gradient.Potentials) error {
	if len(p.NodeValues) == 0 {
		return fmt.Errorf("%w: no node values", ErrInvalidPotentials)
	}
	for i, val := range p.NodeValues {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: node value %d is not finite", ErrInvalidPotentials, i)
		}
	}
	if !(p.ColorRange.Red > p.ColorRange.Blue) {
		return fmt.Errorf("%w: red (%g) must be above blue (%g)", ErrInvalidPotentials, p.ColorRange.Red, p.ColorRange.Blue)
	}
	return nil
}

// SetPotentials replaces the node potentials and recolors at once.
func (v *Viewer) SetPotentials(p gradient.Potentials) error {
	if err := ValidatePotentials(p); err != nil {
		return err
	}
	p.NodeValues = append([]float64(nil), p.NodeValues...)

	v.mu.Lock()
	defer v.mu.Unlock()
	if p.ColorRange != v.potentials.ColorRange {
		v.mapper = p.Mapper()
	}
	v.potentials = p
	v.recolorLocked()
	return nil
}

// RequestPotentials validates p and schedules it. Requests arriving
// within the configured debounce interval collapse into the last one.
func (v *Viewer) RequestPotentials(p gradient.Potentials) error {
	if err := ValidatePotentials(p); err != nil {
		return err
	}
	v.debounce(func() {
		if err := v.SetPotentials(p); err != nil {
			v.log.Warn("debounced recolor failed", "error", err)
		}
	})
	return nil
}

// EvaluateProfile runs a profile script and, when it yields values,
// adopts them as node potentials.
func (v *Viewer) EvaluateProfile(source string) ([]float64, []engine.EvalError, error) {
	values, evalErrs, err := v.engine.Evaluate(source)
	if err != nil || len(evalErrs) > 0 || len(values) == 0 {
		return values, evalErrs, err
	}

	v.mu.Lock()
	p := v.potentials
	v.mu.Unlock()

	p.NodeValues = values
	if err := v.SetPotentials(p); err != nil {
		return nil, nil, err
	}
	return values, nil, nil
}

// Potentials returns a copy of the current node potentials.
func (v *Viewer) Potentials() gradient.Potentials {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.potentials
	p.NodeValues = append([]float64(nil), p.NodeValues...)
	return p
}

// SetVisible shows or hides one segment.
func (v *Viewer) SetVisible(name string, visible bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	seg := v.set.Get(name)
	if seg == nil {
		return fmt.Errorf("%w: %q", ErrUnknownSegment, name)
	}
	if seg.Visible == visible {
		return nil
	}
	seg.Visible = visible
	v.renderer.Recolor(v.set)
	return nil
}

// Close disposes the current model. Later loads fail with ErrClosed and
// loads in flight are discarded.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.generation++
	if v.set != nil {
		v.renderer.Dispose(v.set)
		v.set = nil
	}
}

type nopRenderer struct{}

func (nopRenderer) Install(*segment.Set) {}
func (nopRenderer) Dispose(*segment.Set) {}
func (nopRenderer) Recolor(*segment.Set) {}
