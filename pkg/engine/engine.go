// Package engine evaluates node-potential profile scripts. A profile is a
// small zygomys Lisp program, run in a sandbox, whose final value is the
// list of node potentials in millivolts.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

var (
	// ErrTimeout is returned when a script runs past the engine timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one had started.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code, or a result that
// is not a list of numbers.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for profile evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine that gives up on scripts after EvalTimeout.
func NewEngine() *Engine {
	return NewEngineWithTimeout(EvalTimeout)
}

// NewEngineWithTimeout creates an Engine with a custom evaluation limit.
// A non-positive d means EvalTimeout.
func NewEngineWithTimeout(d time.Duration) *Engine {
	if d <= 0 {
		d = EvalTimeout
	}
	return &Engine{timeout: d}
}

// Evaluate runs a profile script and returns the node potentials it
// produces.
//
// Return semantics:
//   - On success: returns values + nil errors + nil error
//   - On parse/eval failure: returns nil values + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
//
// Empty or comment-only source yields no values and no errors. Any other
// source that evaluates to nil is an EvalError.
func (e *Engine) Evaluate(source string) ([]float64, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()

		values, evalErrs, err := e.evaluate(source)
		ch <- evalResult{values: values, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

func (e *Engine) evaluate(source string) ([]float64, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	result, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	// Unbound symbols and empty lists both come back as nil.
	if result == zygo.SexpNull && hasCode(source) {
		return nil, []EvalError{{Message: "profile produced no values: last form is nil or an unbound symbol"}}, nil
	}

	values, err := toFloats(result)
	if err != nil {
		return nil, []EvalError{{Message: "profile must evaluate to a list of numbers: " + err.Error()}}, nil
	}
	return values, nil, nil
}

// hasCode reports whether source holds anything besides whitespace and
// ; comments.
func hasCode(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		code, _, _ := strings.Cut(line, ";")
		if strings.TrimSpace(code) != "" {
			return true
		}
	}
	return false
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError
// values, extracting a line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
