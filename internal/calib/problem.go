package calib

import (
	"errors"
	"fmt"
	"math"

	"github.com/olivierbonte/hydromodels/internal/bucket"
	"github.com/olivierbonte/hydromodels/internal/params"
)

var ErrBadProblem = errors.New("calib: bad problem definition")

// Metric names accepted by a Problem.
const (
	MetricNSE  = "nse"
	MetricKGE  = "kge"
	MetricRMSE = "rmse"
)

// DefaultPenalty is the objective value substituted when a forward run
// fails (solver non-convergence, invalid parameter region). Calibration
// explores such regions routinely; they must score maximally bad, not
// crash the search.
const DefaultPenalty = 1e8

// Problem binds everything one objective evaluation needs. The base
// container supplies constants and initial states; Tunable names the
// parameters the optimizer varies within Bounds.
type Problem struct {
	Bucket *bucket.Bucket

	// Input is the variables x time forcing array aligned to
	// Options.Times, rows per Bucket.InputNames().
	Input [][]float64

	// Observed is the target series; Output names the result row it is
	// compared against (e.g. "flow").
	Observed []float64
	Output   string

	// Warmup excludes the first n steps from the objective so initial
	// storage guesses do not dominate the score.
	Warmup int

	Base    *params.ParamStates
	Tunable []string
	Bounds  [][2]float64

	Options bucket.Options

	// Metric selects the fit measure; cost is minimized, so efficiency
	// metrics enter as 1-NSE / 1-KGE. Default NSE.
	Metric string

	// Penalty replaces the cost when the forward run fails.
	// Zero means DefaultPenalty.
	Penalty float64
}

func (p *Problem) validate() error {
	if p.Bucket == nil {
		return fmt.Errorf("%w: no bucket", ErrBadProblem)
	}
	if len(p.Tunable) != len(p.Bounds) {
		return fmt.Errorf("%w: %d tunables with %d bounds", ErrBadProblem, len(p.Tunable), len(p.Bounds))
	}
	if len(p.Observed) != len(p.Options.Times) {
		return fmt.Errorf("%w: %d observations for %d times", ErrBadProblem, len(p.Observed), len(p.Options.Times))
	}
	if p.Warmup >= len(p.Observed) {
		return fmt.Errorf("%w: warmup %d consumes the whole series", ErrBadProblem, p.Warmup)
	}
	outRow := p.rowOf(p.Output)
	if outRow < 0 {
		return fmt.Errorf("%w: output %q not produced by bucket", ErrBadProblem, p.Output)
	}
	return nil
}

func (p *Problem) rowOf(name string) int {
	for i, n := range p.Bucket.VarNames() {
		if n == name {
			return i
		}
	}
	return -1
}

func (p *Problem) penalty() float64 {
	if p.Penalty != 0 {
		return p.Penalty
	}
	return DefaultPenalty
}

// Objective runs the forward simulation with the tunable values x and
// returns the cost to minimize. Failed runs return the penalty value.
func (p *Problem) Objective(x []float64) float64 {
	ps := p.Base.Clone()
	for i, name := range p.Tunable {
		ps.Params[name] = x[i]
	}

	out, err := p.Bucket.Run(p.Input, ps, p.Options)
	if err != nil {
		return p.penalty()
	}

	sim := out[p.rowOf(p.Output)][p.Warmup:]
	obs := p.Observed[p.Warmup:]

	var cost float64
	switch p.Metric {
	case MetricRMSE:
		cost = RMSE(obs, sim)
	case MetricKGE:
		cost = 1 - KGE(obs, sim)
	default:
		cost = 1 - NSE(obs, sim)
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost > p.penalty() {
		return p.penalty()
	}
	return cost
}
