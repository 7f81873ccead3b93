// Package params holds the named parameter and initial-state container a
// bucket call consumes. The container is read-only from the engine's
// perspective: buckets derive flat index-aligned vectors from it per
// call and never write back.
//
// For multi-node runs, values can additionally be partitioned by a
// parameter type or state type key; a name missing from a partition
// falls back to the shared top-level value, so common parameters are
// declared once and broadcast.
package params

import (
	"errors"
	"fmt"

	"github.com/olivierbonte/hydromodels/internal/hydro"
)

var (
	// ErrMissingParam reports a declared parameter name absent from the
	// container; the wrapped message carries the name.
	ErrMissingParam = errors.New("params: missing parameter")

	// ErrMissingState reports a declared state name absent from the
	// container.
	ErrMissingState = errors.New("params: missing initial state")

	// ErrMissingNN reports a declared neural module with no parameter
	// vector under the nn namespace.
	ErrMissingNN = errors.New("params: missing nn parameters")

	// ErrUnknownType reports a parameter or state type key with no
	// partition in the container.
	ErrUnknownType = errors.New("params: unknown type key")
)

// ParamStates is the two-level container: scalar parameters and initial
// states, optional per-type partitions of either, and flat neural
// parameter vectors under a separate nn namespace.
type ParamStates struct {
	Params     map[string]float64            `yaml:"params"`
	InitStates map[string]float64            `yaml:"initstates"`
	ParamTypes map[string]map[string]float64 `yaml:"ptypes,omitempty"`
	StateTypes map[string]map[string]float64 `yaml:"stypes,omitempty"`
	NN         map[string][]float64          `yaml:"nn,omitempty"`
}

// New builds a container from shared parameter and initial-state maps.
// Nil maps are replaced with empty ones, so the result is always
// writable.
func New(params, initstates map[string]float64) *ParamStates {
	if params == nil {
		params = make(map[string]float64)
	}
	if initstates == nil {
		initstates = make(map[string]float64)
	}
	return &ParamStates{Params: params, InitStates: initstates}
}

// Clone copies the container so a caller can vary values without
// touching the original (calibration does this every iteration). The
// copy's Params and InitStates maps are always non-nil.
func (ps *ParamStates) Clone() *ParamStates {
	c := &ParamStates{
		Params:     cloneMap(ps.Params),
		InitStates: cloneMap(ps.InitStates),
	}
	if ps.ParamTypes != nil {
		c.ParamTypes = make(map[string]map[string]float64, len(ps.ParamTypes))
		for k, m := range ps.ParamTypes {
			c.ParamTypes[k] = cloneMap(m)
		}
	}
	if ps.StateTypes != nil {
		c.StateTypes = make(map[string]map[string]float64, len(ps.StateTypes))
		for k, m := range ps.StateTypes {
			c.StateTypes[k] = cloneMap(m)
		}
	}
	if ps.NN != nil {
		c.NN = make(map[string][]float64, len(ps.NN))
		for k, v := range ps.NN {
			c.NN[k] = append([]float64(nil), v...)
		}
	}
	return c
}

func cloneMap(m map[string]float64) map[string]float64 {
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// ParamVector extracts one value per name, in order, from the shared
// parameter map.
func (ps *ParamStates) ParamVector(names []string) ([]float64, error) {
	return extract(ps.Params, nil, names, ErrMissingParam)
}

// ParamVectorFor extracts one value per name for the given parameter
// type, falling back to the shared map for names the partition omits.
func (ps *ParamStates) ParamVectorFor(ptype string, names []string) ([]float64, error) {
	part, ok := ps.ParamTypes[ptype]
	if !ok {
		return nil, fmt.Errorf("%w: ptype %q", ErrUnknownType, ptype)
	}
	return extract(part, ps.Params, names, ErrMissingParam)
}

// StateVector extracts the initial-state vector, one value per name.
func (ps *ParamStates) StateVector(names []string) ([]float64, error) {
	return extract(ps.InitStates, nil, names, ErrMissingState)
}

// StateVectorFor extracts the initial-state vector for a state type.
func (ps *ParamStates) StateVectorFor(stype string, names []string) ([]float64, error) {
	part, ok := ps.StateTypes[stype]
	if !ok {
		return nil, fmt.Errorf("%w: stype %q", ErrUnknownType, stype)
	}
	return extract(part, ps.InitStates, names, ErrMissingState)
}

// NNVector concatenates the modules' flat parameter vectors in module
// order. A nil result with nil error means no modules were requested.
func (ps *ParamStates) NNVector(modules []hydro.NeuralModule) ([]float64, error) {
	if len(modules) == 0 {
		return nil, nil
	}
	var out []float64
	for _, m := range modules {
		v, ok := ps.NN[m.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: module %q", ErrMissingNN, m.Name())
		}
		if len(v) != m.ParamCount() {
			return nil, fmt.Errorf("%w: module %q wants %d values, got %d",
				ErrMissingNN, m.Name(), m.ParamCount(), len(v))
		}
		out = append(out, v...)
	}
	return out, nil
}

func extract(primary, fallback map[string]float64, names []string, missing error) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := primary[name]
		if !ok {
			v, ok = fallback[name]
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", missing, name)
		}
		out[i] = v
	}
	return out, nil
}
