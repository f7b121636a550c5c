// Package config loads viewer settings from TOML.
//
// Every field has a default; a file only needs the keys it changes:
//
//	segment_count = 6
//	recolor_debounce_ms = 300
//
//	[stl]
//	size_tolerance = 0
//
//	[naming]
//	chains = 4
//	segments_per_chain = 6
//
//	[potentials]
//	node_values = [-600, -700, -800, -900, -1000, -1100, -1200]
//	policy = "shared"
//	profile = "(linspace -600 -1200 7)"
//	profile_timeout_ms = 5000
//
//	[potentials.color_range]
//	red = -600
//	blue = -1200
//
//	[model]
//	cells = 48
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/cpview/pkg/colormap"
	"github.com/chazu/cpview/pkg/engine"
	"github.com/chazu/cpview/pkg/gradient"
	"github.com/chazu/cpview/pkg/kernel/sdfx"
	"github.com/chazu/cpview/pkg/segment"
	"github.com/chazu/cpview/pkg/tessellate"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds every tunable of the viewer.
type Config struct {
	SegmentCount      int        `toml:"segment_count"`
	RecolorDebounceMS int        `toml:"recolor_debounce_ms"`
	STL               STL        `toml:"stl"`
	Naming            Naming     `toml:"naming"`
	Potentials        Potentials `toml:"potentials"`
	Model             Model      `toml:"model"`
}

// STL tunes binary detection.
type STL struct {
	SizeTolerance int `toml:"size_tolerance"`
}

// Naming describes the chain structure segment names resolve against.
type Naming struct {
	Chains           int `toml:"chains"`
	SegmentsPerChain int `toml:"segments_per_chain"`
}

// Potentials are the initial node values and how they map to colors.
// A non-empty Profile script replaces NodeValues when evaluated.
type Potentials struct {
	NodeValues       []float64           `toml:"node_values"`
	Profile          string              `toml:"profile"`
	ProfileTimeoutMS int                 `toml:"profile_timeout_ms"`
	Policy           string              `toml:"policy"`
	ColorRange       gradient.ColorRange `toml:"color_range"`
}

// Model configures the bundled default model.
type Model struct {
	Cells  int               `toml:"cells"`
	Jacket tessellate.Jacket `toml:"jacket"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := gradient.DefaultPotentials()
	return Config{
		SegmentCount:      segment.DefaultCount,
		RecolorDebounceMS: 300,
		Naming: Naming{
			Chains:           segment.DefaultChains,
			SegmentsPerChain: segment.DefaultSegmentsPerChain,
		},
		Potentials: Potentials{
			NodeValues:       p.NodeValues,
			ProfileTimeoutMS: int(engine.EvalTimeout / time.Millisecond),
			Policy:           gradient.PolicyShared,
			ColorRange:       p.ColorRange,
		},
		Model: Model{
			Cells:  sdfx.DefaultMeshCells,
			Jacket: *tessellate.DefaultJacket(),
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Read(bufio.NewReader(f))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes TOML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.SegmentCount < 1:
		return fmt.Errorf("%w: segment_count must be at least 1, got %d", ErrInvalid, c.SegmentCount)
	case c.RecolorDebounceMS < 0:
		return fmt.Errorf("%w: recolor_debounce_ms must not be negative", ErrInvalid)
	case c.STL.SizeTolerance < 0:
		return fmt.Errorf("%w: stl.size_tolerance must not be negative", ErrInvalid)
	case c.Naming.Chains < 1 || c.Naming.Chains > 9:
		return fmt.Errorf("%w: naming.chains must be 1-9, got %d", ErrInvalid, c.Naming.Chains)
	case c.Naming.SegmentsPerChain < 1 || c.Naming.SegmentsPerChain > 9:
		return fmt.Errorf("%w: naming.segments_per_chain must be 1-9, got %d", ErrInvalid, c.Naming.SegmentsPerChain)
	case c.Potentials.ProfileTimeoutMS < 1:
		return fmt.Errorf("%w: potentials.profile_timeout_ms must be at least 1", ErrInvalid)
	case c.Model.Cells < 1:
		return fmt.Errorf("%w: model.cells must be at least 1", ErrInvalid)
	}

	if len(c.Potentials.NodeValues) == 0 && c.Potentials.Profile == "" {
		return fmt.Errorf("%w: potentials need node_values or a profile", ErrInvalid)
	}
	for i, v := range c.Potentials.NodeValues {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: potentials.node_values[%d] is not finite", ErrInvalid, i)
		}
	}
	if cr := c.Potentials.ColorRange; !(cr.Red > cr.Blue) {
		return fmt.Errorf("%w: color_range red (%g) must be above blue (%g)", ErrInvalid, cr.Red, cr.Blue)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Model.Jacket.Validate(); err != nil {
		return fmt.Errorf("%w: model.jacket: %v", ErrInvalid, err)
	}
	return nil
}

// Resolver returns the name resolver for the configured chain structure.
func (c Config) Resolver() segment.Resolver {
	return segment.Resolver{Chains: c.Naming.Chains, SegmentsPerChain: c.Naming.SegmentsPerChain}
}

// Policy returns the configured boundary policy.
func (c Config) Policy() (gradient.Policy, error) {
	return gradient.ParsePolicy(c.Potentials.Policy, c.Naming.SegmentsPerChain)
}

// InitialPotentials returns the configured node values and color range.
func (c Config) InitialPotentials() gradient.Potentials {
	return gradient.Potentials{
		NodeValues: append([]float64(nil), c.Potentials.NodeValues...),
		ColorRange: c.Potentials.ColorRange,
	}
}

// Mapper returns the color mapper for the configured color range.
func (c Config) Mapper() *colormap.Mapper {
	return colormap.New(c.Potentials.ColorRange.Red, c.Potentials.ColorRange.Blue)
}

// RecolorDelay returns the debounce interval for recolor requests.
func (c Config) RecolorDelay() time.Duration {
	return time.Duration(c.RecolorDebounceMS) * time.Millisecond
}

// ProfileTimeout returns the limit for one profile script evaluation.
func (c Config) ProfileTimeout() time.Duration {
	return time.Duration(c.Potentials.ProfileTimeoutMS) * time.Millisecond
}
