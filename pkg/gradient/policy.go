package gradient

import (
	"fmt"

	"github.com/chazu/cpview/pkg/segment"
)

// Policy picks the start and end potentials for the segment at a
// flattened index. ok is false when nodes cannot supply them.
type Policy interface {
	Bounds(index int, nodes []float64) (start, end float64, ok bool)
}

// SharedBase reuses one base sequence of SegmentsPerChain+1 boundary
// potentials for every chain: the segment at index i is bounded by
// nodes[i%S] and nodes[i%S+1].
type SharedBase struct {
	SegmentsPerChain int
}

// Bounds returns nodes[i%S] and nodes[i%S+1] for index i.
func (p SharedBase) Bounds(index int, nodes []float64) (float64, float64, bool) {
	if index < 0 || p.SegmentsPerChain < 1 {
		return 0, 0, false
	}
	local := index % p.SegmentsPerChain
	if local+1 >= len(nodes) {
		return 0, 0, false
	}
	return nodes[local], nodes[local+1], true
}

// PerChain gives each chain its own run of SegmentsPerChain potentials,
// laid out chain after chain. A segment runs from its own value to the
// next one; the last segment of a chain has no successor in its chain
// and is drawn flat at its own value.
type PerChain struct {
	SegmentsPerChain int
}

// Bounds returns nodes[index] and its in-chain successor, or nodes[index]
// twice for the last segment of a chain.
func (p PerChain) Bounds(index int, nodes []float64) (float64, float64, bool) {
	if index < 0 || index >= len(nodes) || p.SegmentsPerChain < 1 {
		return 0, 0, false
	}
	v := nodes[index]
	if index%p.SegmentsPerChain == p.SegmentsPerChain-1 || index+1 >= len(nodes) {
		return v, v, true
	}
	return v, nodes[index+1], true
}

// Policy names accepted by ParsePolicy.
const (
	PolicyShared   = "shared"
	PolicyPerChain = "per-chain"
)

// DefaultPolicy is SharedBase over six segments per chain.
func DefaultPolicy() Policy {
	return SharedBase{SegmentsPerChain: segment.DefaultSegmentsPerChain}
}

// ParsePolicy returns the policy called name for chains of
// segmentsPerChain segments. An empty name selects the shared base.
func ParsePolicy(name string, segmentsPerChain int) (Policy, error) {
	switch name {
	case "", PolicyShared:
		return SharedBase{SegmentsPerChain: segmentsPerChain}, nil
	case PolicyPerChain:
		return PerChain{SegmentsPerChain: segmentsPerChain}, nil
	}
	return nil, fmt.Errorf("gradient: unknown boundary policy %q, expected %q or %q", name, PolicyShared, PolicyPerChain)
}
