// Package bucket executes a hydrological bucket: it assembles fluxes and
// state fluxes into a resolved graph, integrates the state over the
// forcing time index, and evaluates the algebraic outputs along the
// trajectory.
//
// A call owns no persistent state; interpolators and extracted parameter
// vectors are derived per call and discarded, so a bucket value is safe
// to reuse across calibration iterations and nodes.
package bucket

import (
	"errors"
	"fmt"

	"github.com/olivierbonte/hydromodels/internal/hydro"
	"github.com/olivierbonte/hydromodels/internal/interp"
	"github.com/olivierbonte/hydromodels/internal/params"
	"github.com/olivierbonte/hydromodels/internal/solver"
)

var (
	// ErrShape reports an input array whose dimensions disagree with the
	// bucket's declared names or the time index.
	ErrShape = errors.New("bucket: input shape mismatch")

	// ErrTypeCount reports a parameter-type or state-type list whose
	// length disagrees with the node axis.
	ErrTypeCount = errors.New("bucket: type count mismatch")
)

// Bucket is the unit of execution: a resolved flux graph plus a name.
type Bucket struct {
	name  string
	graph *hydro.Graph
}

// New builds a bucket from its fluxes and state fluxes. Construction
// errors (cycles, duplicate states, malformed fluxes) surface here,
// before any simulation.
func New(name string, fluxes []*hydro.Flux, dfluxes []*hydro.StateFlux) (*Bucket, error) {
	g, err := hydro.Build(fluxes, dfluxes)
	if err != nil {
		return nil, fmt.Errorf("bucket %q: %w", name, err)
	}
	return &Bucket{name: name, graph: g}, nil
}

func (b *Bucket) Name() string          { return b.name }
func (b *Bucket) InputNames() []string  { return b.graph.InputNames() }
func (b *Bucket) OutputNames() []string { return b.graph.OutputNames() }
func (b *Bucket) StateNames() []string  { return b.graph.StateNames() }
func (b *Bucket) ParamNames() []string  { return b.graph.ParamNames() }
func (b *Bucket) NNNames() []string     { return b.graph.NNNames() }

// Stateful reports whether the bucket owns an ODE system.
func (b *Bucket) Stateful() bool { return b.graph.HasStates() }

// VarNames lists the rows of a run result: solved states first, then
// algebraic outputs.
func (b *Bucket) VarNames() []string {
	out := append([]string(nil), b.graph.StateNames()...)
	return append(out, b.graph.OutputNames()...)
}

// Options configures one bucket run.
type Options struct {
	// Times is the shared time index of all input channels. Required.
	Times []float64

	// Solver integrates the state when the bucket is stateful. Defaults
	// to the fixed-step Euler integrator.
	Solver solver.Solver
}

func (o Options) solver() solver.Solver {
	if o.Solver != nil {
		return o.Solver
	}
	return solver.NewEuler()
}

// Run executes the single-series call shape. input is variables by time,
// one row per InputNames() entry aligned to opts.Times. The result is
// [state rows | output rows] by time, per VarNames().
//
// Validation and parameter extraction happen before any numeric work; a
// missing parameter or state name fails with that name and the solver is
// never invoked.
func (b *Bucket) Run(input [][]float64, ps *params.ParamStates, opts Options) ([][]float64, error) {
	if err := b.checkInput(input, len(opts.Times)); err != nil {
		return nil, err
	}

	pvec, err := ps.ParamVector(b.ParamNames())
	if err != nil {
		return nil, err
	}
	var svec []float64
	if b.Stateful() {
		if svec, err = ps.StateVector(b.StateNames()); err != nil {
			return nil, err
		}
	}
	nnvec, err := ps.NNVector(b.graph.Modules())
	if err != nil {
		return nil, err
	}

	return b.runOne(input, pvec, svec, nnvec, opts)
}

// runOne is the shared per-node body of Run and RunMulti: solve the
// trajectory if stateful, then evaluate the flux function along it.
func (b *Bucket) runOne(input [][]float64, pvec, svec, nnvec []float64, opts Options) ([][]float64, error) {
	nt := len(opts.Times)
	nIn := len(b.InputNames())

	var states [][]float64
	if b.Stateful() {
		samplers, err := interp.Channels(opts.Times, input)
		if err != nil {
			return nil, err
		}
		ode := func(t float64, y []float64) []float64 {
			at := make([]float64, nIn)
			for i, s := range samplers {
				at[i] = s.At(t)
			}
			return b.graph.EvalDerivs(at, y, pvec, nnvec)
		}
		states, err = opts.solver().Solve(ode, svec, opts.Times)
		if err != nil {
			return nil, fmt.Errorf("bucket %q: %w", b.name, err)
		}
	}

	out := make([][]float64, len(b.VarNames()))
	for i := range out {
		out[i] = make([]float64, nt)
	}

	vars := make([]float64, nIn+len(states))
	for k := 0; k < nt; k++ {
		for i := 0; i < nIn; i++ {
			vars[i] = input[i][k]
		}
		for i := range states {
			vars[nIn+i] = states[i][k]
			out[i][k] = states[i][k]
		}
		fl := b.graph.EvalFluxes(vars, pvec, nnvec)
		for i, v := range fl {
			out[len(states)+i][k] = v
		}
	}
	return out, nil
}

func (b *Bucket) checkInput(input [][]float64, nt int) error {
	if nt < 1 {
		return fmt.Errorf("%w: empty time index", ErrShape)
	}
	if len(input) != len(b.InputNames()) {
		return fmt.Errorf("%w: %d channels for inputs %v", ErrShape, len(input), b.InputNames())
	}
	for i, row := range input {
		if len(row) != nt {
			return fmt.Errorf("%w: channel %q has %d values for %d times",
				ErrShape, b.InputNames()[i], len(row), nt)
		}
	}
	return nil
}
