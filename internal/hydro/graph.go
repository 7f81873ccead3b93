package hydro

import "fmt"

// Graph is the resolved form of a set of fluxes and state fluxes: name
// sets computed by set algebra, fluxes in a topologically valid
// evaluation order, and index bindings from names to flat vectors.
//
// The value buffer layout used during evaluation is
// [external inputs | states | flux outputs]; every name a flux or state
// flux reads resolves to exactly one slot in that buffer.
type Graph struct {
	inputs  []string
	outputs []string
	states  []string
	params  []string
	nns     []string

	fluxes    []*Flux // evaluation order
	fluxIn    [][]int // value-buffer slots read per flux
	fluxOut   [][]int // value-buffer slots written per flux
	fluxParam [][]int // flat-param-vector slots per flux
	fluxNNOff []int   // offset into flat nn vector, -1 for algebraic

	modules   []NeuralModule
	nnOffsets []int
	nnTotal   int

	dfluxes []*StateFlux
	dfluxIn [][]int // buffer slots: influxes then outfluxes, or expr inputs
	dfluxNI []int   // number of influx slots (default form only)
	dfluxPr [][]int // flat-param-vector slots (expr form only)
}

// Build resolves a list of fluxes and state fluxes into a Graph. It is
// the construction-time gate: cyclic dependencies, duplicate state
// ownership and duplicate output producers all fail here, before any
// simulation runs. A state flux contributor no flux produces becomes an
// external input.
func Build(fluxes []*Flux, dfluxes []*StateFlux) (*Graph, error) {
	g := &Graph{dfluxes: dfluxes}

	producer := make(map[string]int) // output name -> flux index
	for i, f := range fluxes {
		if len(f.outputs) == 0 {
			return nil, fmt.Errorf("%w: flux %d has no outputs", ErrBadFlux, i)
		}
		if f.module == nil && f.fn == nil {
			return nil, fmt.Errorf("%w: flux %q has no callable", ErrBadFlux, f.outputs[0])
		}
		if m := f.module; m != nil {
			if m.InDim() != len(f.inputs) || m.OutDim() != len(f.outputs) {
				return nil, fmt.Errorf("%w: module %q wants %dx%d, flux declares %dx%d",
					ErrBadFlux, m.Name(), m.InDim(), m.OutDim(), len(f.inputs), len(f.outputs))
			}
		}
		for _, o := range f.outputs {
			if _, dup := producer[o]; dup {
				return nil, fmt.Errorf("%w: output %q produced twice", ErrBadFlux, o)
			}
			producer[o] = i
			g.outputs = append(g.outputs, o)
		}
	}

	seenState := make(map[string]bool)
	for _, sf := range dfluxes {
		if seenState[sf.state] {
			return nil, fmt.Errorf("%w: state %q", ErrDuplicateState, sf.state)
		}
		seenState[sf.state] = true
		g.states = append(g.states, sf.state)
	}

	// External inputs: every name read by a flux or state flux that is
	// neither produced internally nor a state.
	for _, f := range fluxes {
		for _, in := range f.inputs {
			if _, internal := producer[in]; !internal && !seenState[in] {
				g.inputs = appendUnique(g.inputs, in)
			}
		}
	}
	for _, sf := range dfluxes {
		for _, in := range sf.InputNames() {
			if _, internal := producer[in]; !internal && !seenState[in] {
				g.inputs = appendUnique(g.inputs, in)
			}
		}
	}

	for _, f := range fluxes {
		for _, p := range f.params {
			g.params = appendUnique(g.params, p)
		}
	}
	for _, sf := range dfluxes {
		for _, p := range sf.params {
			g.params = appendUnique(g.params, p)
		}
	}

	order, err := sortFluxes(fluxes, producer)
	if err != nil {
		return nil, err
	}
	g.fluxes = order

	// Neural modules, first-appearance order; parameters concatenate into
	// one flat vector with per-module offsets.
	for _, f := range g.fluxes {
		if f.module == nil {
			continue
		}
		known := false
		for _, m := range g.modules {
			if m.Name() == f.module.Name() {
				known = true
				break
			}
		}
		if !known {
			g.nns = append(g.nns, f.module.Name())
			g.modules = append(g.modules, f.module)
			g.nnOffsets = append(g.nnOffsets, g.nnTotal)
			g.nnTotal += f.module.ParamCount()
		}
	}

	g.bindIndexes()
	return g, nil
}

// sortFluxes orders fluxes so every flux's inputs are produced before it
// evaluates (Kahn's algorithm, stable on declaration order).
func sortFluxes(fluxes []*Flux, producer map[string]int) ([]*Flux, error) {
	n := len(fluxes)
	indeg := make([]int, n)
	deps := make([][]int, n) // deps[i] = fluxes waiting on i
	for i, f := range fluxes {
		seen := make(map[int]bool)
		for _, in := range f.inputs {
			if j, ok := producer[in]; ok && j != i && !seen[j] {
				seen[j] = true
				indeg[i]++
				deps[j] = append(deps[j], i)
			}
			if j, ok := producer[in]; ok && j == i {
				return nil, fmt.Errorf("%w: flux %q reads its own output", ErrCyclicFlux, in)
			}
		}
	}

	order := make([]*Flux, 0, n)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, fluxes[i])
		for _, j := range deps[i] {
			indeg[j]--
			if indeg[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(order) != n {
		var stuck []string
		for i := 0; i < n; i++ {
			if indeg[i] > 0 {
				stuck = append(stuck, fluxes[i].outputs[0])
			}
		}
		return nil, fmt.Errorf("%w: involving %v", ErrCyclicFlux, stuck)
	}
	return order, nil
}

// bindIndexes resolves every name reference to a slot index once, so the
// per-step evaluation loop is pure array access.
func (g *Graph) bindIndexes() {
	slot := make(map[string]int, len(g.inputs)+len(g.states)+len(g.outputs))
	for _, name := range g.inputs {
		slot[name] = len(slot)
	}
	for _, name := range g.states {
		slot[name] = len(slot)
	}
	for _, name := range g.outputs {
		slot[name] = len(slot)
	}
	pslot := make(map[string]int, len(g.params))
	for i, name := range g.params {
		pslot[name] = i
	}

	g.fluxIn = make([][]int, len(g.fluxes))
	g.fluxOut = make([][]int, len(g.fluxes))
	g.fluxParam = make([][]int, len(g.fluxes))
	g.fluxNNOff = make([]int, len(g.fluxes))
	for i, f := range g.fluxes {
		g.fluxIn[i] = slotsOf(slot, f.inputs)
		g.fluxOut[i] = slotsOf(slot, f.outputs)
		g.fluxParam[i] = slotsOf(pslot, f.params)
		g.fluxNNOff[i] = -1
		if f.module != nil {
			for k, m := range g.modules {
				if m.Name() == f.module.Name() {
					g.fluxNNOff[i] = g.nnOffsets[k]
				}
			}
		}
	}

	g.dfluxIn = make([][]int, len(g.dfluxes))
	g.dfluxNI = make([]int, len(g.dfluxes))
	g.dfluxPr = make([][]int, len(g.dfluxes))
	for i, sf := range g.dfluxes {
		g.dfluxIn[i] = slotsOf(slot, sf.InputNames())
		g.dfluxNI[i] = len(sf.influxes)
		g.dfluxPr[i] = slotsOf(pslot, sf.params)
	}
}

func slotsOf(slot map[string]int, names []string) []int {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = slot[name]
	}
	return idx
}

func appendUnique(list []string, name string) []string {
	for _, have := range list {
		if have == name {
			return list
		}
	}
	return append(list, name)
}

func (g *Graph) InputNames() []string  { return g.inputs }
func (g *Graph) OutputNames() []string { return g.outputs }
func (g *Graph) StateNames() []string  { return g.states }
func (g *Graph) ParamNames() []string  { return g.params }
func (g *Graph) NNNames() []string     { return g.nns }

// Modules returns the neural modules in nn-name order.
func (g *Graph) Modules() []NeuralModule { return g.modules }

// NNParamCount is the length of the flat concatenated nn parameter
// vector, zero when the graph has no neural fluxes.
func (g *Graph) NNParamCount() int { return g.nnTotal }

// HasStates reports whether the graph owns an ODE system; a graph
// without state fluxes is purely algebraic.
func (g *Graph) HasStates() bool { return len(g.dfluxes) > 0 }

// fill evaluates every flux in order into buf, which must be laid out as
// [inputs | states | outputs] with the first two sections populated.
func (g *Graph) fill(buf, params, nnParams []float64) {
	for i, f := range g.fluxes {
		in := gather(buf, g.fluxIn[i])
		var out []float64
		if f.module != nil {
			off := g.fluxNNOff[i]
			out = f.module.Apply(in, nnParams[off:off+f.module.ParamCount()])
		} else {
			out = f.fn(in, gather(params, g.fluxParam[i]))
		}
		for k, s := range g.fluxOut[i] {
			buf[s] = out[k]
		}
	}
}

// EvalFluxes computes all algebraic outputs for one time slice. vars
// holds one value per InputNames() entry followed by one per StateNames()
// entry; the result has one value per OutputNames() entry. nnParams may
// be nil when the graph has no neural fluxes.
func (g *Graph) EvalFluxes(vars, params, nnParams []float64) []float64 {
	buf := make([]float64, len(g.inputs)+len(g.states)+len(g.outputs))
	copy(buf, vars)
	g.fill(buf, params, nnParams)
	return buf[len(g.inputs)+len(g.states):]
}

// EvalDerivs computes d(state)/dt for one instant: inputs holds one value
// per InputNames() entry (forcing sampled at t), states one value per
// StateNames() entry. The result follows StateNames() order; each entry
// is the signed sum of the state's contributing fluxes, or its explicit
// expression.
func (g *Graph) EvalDerivs(inputs, states, params, nnParams []float64) []float64 {
	buf := make([]float64, len(g.inputs)+len(g.states)+len(g.outputs))
	copy(buf, inputs)
	copy(buf[len(g.inputs):], states)
	g.fill(buf, params, nnParams)

	dy := make([]float64, len(g.dfluxes))
	for i, sf := range g.dfluxes {
		if sf.expr != nil {
			dy[i] = sf.expr(gather(buf, g.dfluxIn[i]), gather(params, g.dfluxPr[i]))
			continue
		}
		sum := 0.0
		for k, s := range g.dfluxIn[i] {
			if k < g.dfluxNI[i] {
				sum += buf[s]
			} else {
				sum -= buf[s]
			}
		}
		dy[i] = sum
	}
	return dy
}

func gather(src []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, s := range idx {
		out[i] = src[s]
	}
	return out
}
