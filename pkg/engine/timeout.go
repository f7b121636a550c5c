package engine

import (
	"fmt"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	values []float64
	errors []EvalError
	err    error
}

// current returns the newest generation handed out.
func (e *Engine) current() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// await blocks until ch delivers the result of evaluation gen or the
// engine's timeout passes. A result that arrives after a newer
// evaluation started is dropped with ErrSuperseded.
//
// On timeout the evaluating goroutine keeps running; ch is buffered so
// it can finish and exit, and its result is never read.
func (e *Engine) await(ch <-chan evalResult, gen uint64) ([]float64, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if gen != e.current() {
			return nil, nil, ErrSuperseded
		}
		return res.values, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
