package segment

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Default structure of a jacket: four legs of six segments each.
const (
	DefaultChains           = 4
	DefaultSegmentsPerChain = 6
)

var (
	legChainSegment = regexp.MustCompile(`^leg(\d)(\d)$`)
	legSegment      = regexp.MustCompile(`^leg(\d+)$`)
)

// Resolver maps authored segment names onto the flattened node-value
// array of Chains chains with SegmentsPerChain segments each.
type Resolver struct {
	Chains           int
	SegmentsPerChain int
}

// DefaultResolver resolves names for four chains of six segments.
var DefaultResolver = Resolver{Chains: DefaultChains, SegmentsPerChain: DefaultSegmentsPerChain}

// Resolve returns the 0-based node-value index for name. Names are
// lower-cased and stripped of whitespace, then matched as:
//
//	leg<chain><segment>  one digit each  -> (chain-1)*SegmentsPerChain + segment-1
//	leg<segment>         any digits      -> segment-1, on the first chain
//
// Anything else, or a chain/segment number out of range, does not resolve.
func (r Resolver) Resolve(name string) (int, bool) {
	s := strings.Map(func(c rune) rune {
		if unicode.IsSpace(c) {
			return -1
		}
		return c
	}, strings.ToLower(name))

	if m := legChainSegment.FindStringSubmatch(s); m != nil {
		chain, _ := strconv.Atoi(m[1])
		seg, _ := strconv.Atoi(m[2])
		if chain >= 1 && chain <= r.Chains && seg >= 1 && seg <= r.SegmentsPerChain {
			return (chain-1)*r.SegmentsPerChain + seg - 1, true
		}
	}
	if m := legSegment.FindStringSubmatch(s); m != nil {
		seg, err := strconv.Atoi(m[1])
		if err == nil && seg >= 1 && seg <= r.SegmentsPerChain {
			return seg - 1, true
		}
	}
	return NoIndex, false
}

// ResolveIndex resolves name with DefaultResolver.
func ResolveIndex(name string) (int, bool) {
	return DefaultResolver.Resolve(name)
}
