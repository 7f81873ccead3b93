package hydro

import "math"

// State is a vector of storage values, one per state name.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FluxFn evaluates one time slice: one value per declared input name in,
// one value per declared output name out. Implementations must be pure.
type FluxFn func(inputs, params []float64) []float64

// NeuralModule is an opaque differentiable function with a flat parameter
// vector. Its parameters live under the nn namespace of the parameter
// container, never mixed with ordinary named scalars.
type NeuralModule interface {
	Name() string
	InDim() int
	OutDim() int
	ParamCount() int
	Apply(inputs, params []float64) []float64
}

// Flux is a named pure algebraic function. It is immutable once built and
// reused across every time step and calibration iteration.
type Flux struct {
	inputs  []string
	outputs []string
	params  []string

	fn FluxFn

	// set only for the neural variant
	module NeuralModule
}

// NewFlux builds a flux from plain names and an explicit callable.
// fn receives inputs and params in the declared order and must return
// exactly len(outputs) values.
func NewFlux(inputs, outputs, params []string, fn FluxFn) *Flux {
	return &Flux{
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
		params:  append([]string(nil), params...),
		fn:      fn,
	}
}

// NewNeuralFlux wraps a neural module as a flux. The module's parameters
// are supplied at call time from the container's nn namespace.
func NewNeuralFlux(mod NeuralModule, inputs, outputs []string) *Flux {
	return &Flux{
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
		module:  mod,
	}
}

func (f *Flux) InputNames() []string  { return f.inputs }
func (f *Flux) OutputNames() []string { return f.outputs }
func (f *Flux) ParamNames() []string  { return f.params }

// Module returns the neural module backing this flux, or nil for the
// plain algebraic variant.
func (f *Flux) Module() NeuralModule { return f.module }

// StateFlux defines the time-derivative of exactly one state. The default
// form is the signed sum of contributing flux values (influxes minus
// outfluxes); an explicit expression with its own inputs and parameters
// can override it.
type StateFlux struct {
	state     string
	influxes  []string
	outfluxes []string

	// explicit form
	exprInputs []string
	params     []string
	expr       func(inputs, params []float64) float64
}

// NewStateFlux declares dS/dt as sum(influxes) - sum(outfluxes). The
// referenced names must be outputs of the bucket's algebraic fluxes or
// external inputs.
func NewStateFlux(state string, influxes, outfluxes []string) *StateFlux {
	return &StateFlux{
		state:     state,
		influxes:  append([]string(nil), influxes...),
		outfluxes: append([]string(nil), outfluxes...),
	}
}

// NewStateFluxExpr declares dS/dt by an explicit expression over named
// inputs and parameters.
func NewStateFluxExpr(state string, inputs, params []string, expr func(inputs, params []float64) float64) *StateFlux {
	return &StateFlux{
		state:      state,
		exprInputs: append([]string(nil), inputs...),
		params:     append([]string(nil), params...),
		expr:       expr,
	}
}

func (sf *StateFlux) StateName() string { return sf.state }

func (sf *StateFlux) ParamNames() []string { return sf.params }

// InputNames returns the names the derivative reads: the contributing
// flux names in the default form, or the expression inputs.
func (sf *StateFlux) InputNames() []string {
	if sf.expr != nil {
		return sf.exprInputs
	}
	names := make([]string, 0, len(sf.influxes)+len(sf.outfluxes))
	names = append(names, sf.influxes...)
	names = append(names, sf.outfluxes...)
	return names
}
