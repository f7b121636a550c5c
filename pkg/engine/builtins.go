package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// MaxProfileLength caps how many values one script may produce.
const MaxProfileLength = 1 << 16

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites profile source into something zygomys reads:
//
//  1. ;-comments become //-comments.
//  2. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global registration.
//  3. kebab-case identifiers become snake_case (node-count -> node_count),
//     since zygomys parses the hyphen as subtraction.
//
// String literals, both "..." and `...`, pass through untouched.
func preprocessSource(source string) string {
	b := []byte(source)
	out := make([]byte, 0, len(b)+len(b)/4)

	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"' || c == '`':
			j := skipString(b, i)
			out = append(out, b[i:j]...)
			i = j

		case c == ';':
			out = append(out, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			j := i
			for j < len(b) && b[j] != '\n' {
				j++
			}
			out = append(out, b[i:j]...)
			i = j

		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2

		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j

		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++

		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// skipString returns the index just past the string literal opening at
// b[start]. Double-quoted strings honor backslash escapes.
func skipString(b []byte, start int) int {
	quote := b[start]
	i := start + 1
	for i < len(b) && b[i] != quote {
		if quote == '"' && b[i] == '\\' && i+1 < len(b) {
			i++
		}
		i++
	}
	if i < len(b) {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Profile values
// ---------------------------------------------------------------------------

// sexpProfile carries a run of potentials between builtins.
type sexpProfile struct {
	values []float64
}

func (p *sexpProfile) SexpString(ps *zygo.PrintState) string {
	parts := make([]string, len(p.values))
	for i, v := range p.values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "(profile " + strings.Join(parts, " ") + ")"
}
func (p *sexpProfile) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string and returns its
// name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// arg returns the keyword argument name if present, else the positional
// argument at pos.
func (a kwArgs) arg(name string, pos int) (zygo.Sexp, bool) {
	if v, ok := a.kw[name]; ok {
		return v, true
	}
	if pos < len(a.positional) {
		return a.positional[pos], true
	}
	return nil, false
}

func (a kwArgs) number(fn, name string, pos int) (float64, error) {
	v, ok := a.arg(name, pos)
	if !ok {
		return 0, fmt.Errorf("%s: missing %s", fn, name)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, name, err)
	}
	return f, nil
}

func (a kwArgs) count(fn, name string, pos int) (int, error) {
	f, err := a.number(fn, name, pos)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f > MaxProfileLength {
		return 0, fmt.Errorf("%s: %s must be a whole number between 0 and %d, got %g", fn, name, MaxProfileLength, f)
	}
	return int(f), nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toFloats flattens a number, a profile, or a (possibly nested) list or
// array of those into a slice of potentials.
func toFloats(s zygo.Sexp) ([]float64, error) {
	switch v := s.(type) {
	case *sexpProfile:
		return append([]float64(nil), v.values...), nil
	case *zygo.SexpInt:
		return []float64{float64(v.Val)}, nil
	case *zygo.SexpFloat:
		return []float64{v.Val}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	var out []float64
	for i, item := range items {
		vals, err := toFloats(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, vals...)
		if len(out) > MaxProfileLength {
			return nil, fmt.Errorf("more than %d values", MaxProfileLength)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the profile builtins into a zygomys
// environment. Source must go through preprocessSource first so that
// :keyword tokens arrive as recognizable strings.
func registerBuiltins(env *zygo.Zlisp) {

	// -----------------------------------------------------------------------
	// (linspace -600 -1200 7)
	// (linspace :from -600 :to -1200 :count 7)
	// -----------------------------------------------------------------------
	env.AddFunction("linspace", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		from, err := pa.number(name, "from", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		to, err := pa.number(name, "to", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		n, err := pa.count(name, "count", 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpProfile{values: linspace(from, to, n)}, nil
	})

	// -----------------------------------------------------------------------
	// (repeat (linspace -600 -1200 6) 4)
	// -----------------------------------------------------------------------
	env.AddFunction("repeat", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		seqArg, ok := pa.arg("seq", 0)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: missing seq", name)
		}
		seq, err := toFloats(seqArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: seq: %w", name, err)
		}
		times, err := pa.count(name, "times", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(seq)*times > MaxProfileLength {
			return zygo.SexpNull, fmt.Errorf("%s: result longer than %d values", name, MaxProfileLength)
		}
		out := make([]float64, 0, len(seq)*times)
		for i := 0; i < times; i++ {
			out = append(out, seq...)
		}
		return &sexpProfile{values: out}, nil
	})

	// -----------------------------------------------------------------------
	// (values -600 (linspace -700 -1100 5) [-1200])
	// -----------------------------------------------------------------------
	env.AddFunction("values", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var out []float64
		for i, a := range args {
			vals, err := toFloats(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
			}
			out = append(out, vals...)
		}
		if len(out) > MaxProfileLength {
			return zygo.SexpNull, fmt.Errorf("%s: result longer than %d values", name, MaxProfileLength)
		}
		return &sexpProfile{values: out}, nil
	})
}

// linspace returns n evenly spaced values from from to to inclusive.
func linspace(from, to float64, n int) []float64 {
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{from}
	}
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	out[n-1] = to
	return out
}
