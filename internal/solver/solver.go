// Package solver advances bucket state across a time grid. Two
// interchangeable strategies sit behind one contract: a fixed-step
// explicit Euler integrator for step-wise semantics, and an adaptive
// Dormand-Prince method with error control for stiff-ish parameter
// regions. Both return the trajectory sampled on the caller's time
// index, states by rows.
package solver

import (
	"errors"
	"fmt"
)

// Func is the ODE right-hand side dy/dt = f(t, y).
type Func func(t float64, y []float64) []float64

// Solver integrates an initial value problem over the given time index
// and returns the trajectory as [state][time], including the initial
// condition at times[0].
//
// A returned error wrapping ErrNoConvergence means no trajectory was
// produced; callers must check it rather than assume a result, since
// calibration routinely drives solvers into invalid parameter regions.
type Solver interface {
	Solve(fn Func, y0 []float64, times []float64) ([][]float64, error)
}

var (
	// ErrNoConvergence indicates the adaptive step-size control could
	// not satisfy the configured tolerances.
	ErrNoConvergence = errors.New("solver: failed to converge")

	// ErrBadTimeIndex indicates a time index with fewer than two points
	// or non-increasing entries.
	ErrBadTimeIndex = errors.New("solver: bad time index")
)

// StepError carries the failure point of an adaptive solve.
type StepError struct {
	Time float64
	Step int
	Size float64
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, h=%.3e): %v", e.Step, e.Time, e.Size, ErrNoConvergence)
}

func (e *StepError) Unwrap() error { return ErrNoConvergence }

// Statistics reports the work an adaptive solve performed.
type Statistics struct {
	Steps       int // accepted steps
	Rejected    int // rejected steps
	Evaluations int // right-hand-side evaluations
	LastStep    float64
}

func checkTimes(times []float64) error {
	if len(times) < 2 {
		return fmt.Errorf("%w: need at least two points, got %d", ErrBadTimeIndex, len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return fmt.Errorf("%w: not strictly increasing at %d", ErrBadTimeIndex, i)
		}
	}
	return nil
}

// trajectory allocates a [state][time] result with y0 in column 0.
func trajectory(y0 []float64, nt int) [][]float64 {
	out := make([][]float64, len(y0))
	for i := range out {
		out[i] = make([]float64, nt)
		out[i][0] = y0[i]
	}
	return out
}
