// Package interp turns discrete forcing series into continuous-time
// samplers. Adaptive solvers evaluate the ODE right-hand side between
// grid points, so every input channel needs a value at arbitrary t,
// including slightly outside the observed span.
package interp

import (
	"errors"
	"fmt"
	"sort"
)

var ErrTooShort = errors.New("interp: need at least one sample")

// Linear interpolates piecewise-linearly between samples. Queries before
// the first or after the last sample extrapolate along the nearest
// boundary segment's slope rather than clamping to the boundary value.
type Linear struct {
	ts []float64
	vs []float64
}

// NewLinear builds a sampler over (ts, vs). ts must be strictly
// increasing and the same length as vs.
func NewLinear(ts, vs []float64) (*Linear, error) {
	if len(ts) == 0 {
		return nil, ErrTooShort
	}
	if len(ts) != len(vs) {
		return nil, fmt.Errorf("interp: %d times vs %d values", len(ts), len(vs))
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			return nil, fmt.Errorf("interp: time index not strictly increasing at %d", i)
		}
	}
	return &Linear{ts: ts, vs: vs}, nil
}

// At samples the series at time t.
func (l *Linear) At(t float64) float64 {
	n := len(l.ts)
	if n == 1 {
		return l.vs[0]
	}

	// segment index: l.ts[i] <= t < l.ts[i+1], clamped so boundary
	// queries reuse the first/last segment's slope
	i := sort.SearchFloat64s(l.ts, t) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}

	slope := (l.vs[i+1] - l.vs[i]) / (l.ts[i+1] - l.ts[i])
	return l.vs[i] + slope*(t-l.ts[i])
}

// Channels builds one sampler per row of values over a shared time
// index. Rows follow the caller's channel order.
func Channels(ts []float64, values [][]float64) ([]*Linear, error) {
	out := make([]*Linear, len(values))
	for i, vs := range values {
		l, err := NewLinear(ts, vs)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		out[i] = l
	}
	return out, nil
}
