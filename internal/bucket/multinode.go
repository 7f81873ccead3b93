package bucket

import (
	"fmt"
	"sync"

	"github.com/olivierbonte/hydromodels/internal/params"
)

// MultiOptions configures a batched multi-node run.
type MultiOptions struct {
	Options

	// PTypes names the parameter type of each node. Empty means every
	// node shares the container's top-level parameters.
	PTypes []string

	// STypes names the state type of each node. Empty means shared
	// initial states.
	STypes []string
}

// RunMulti executes the batched call shape. input is variables by nodes
// by time; the result is [state rows | output rows] by nodes by time.
// Nodes have no cross dependencies, so they run concurrently; output
// never depends on node execution order.
func (b *Bucket) RunMulti(input [][][]float64, ps *params.ParamStates, opts MultiOptions) ([][][]float64, error) {
	if len(input) != len(b.InputNames()) {
		return nil, fmt.Errorf("%w: %d channels for inputs %v", ErrShape, len(input), b.InputNames())
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: no input channels", ErrShape)
	}
	nNodes := len(input[0])
	for i, ch := range input {
		if len(ch) != nNodes {
			return nil, fmt.Errorf("%w: channel %q has %d nodes, want %d",
				ErrShape, b.InputNames()[i], len(ch), nNodes)
		}
	}
	if len(opts.PTypes) != 0 && len(opts.PTypes) != nNodes {
		return nil, fmt.Errorf("%w: %d ptypes for %d nodes", ErrTypeCount, len(opts.PTypes), nNodes)
	}
	if len(opts.STypes) != 0 && len(opts.STypes) != nNodes {
		return nil, fmt.Errorf("%w: %d stypes for %d nodes", ErrTypeCount, len(opts.STypes), nNodes)
	}

	// Per-node extraction up front, so a missing name fails before any
	// node starts solving.
	pvecs := make([][]float64, nNodes)
	svecs := make([][]float64, nNodes)
	for n := 0; n < nNodes; n++ {
		var err error
		if len(opts.PTypes) != 0 {
			pvecs[n], err = ps.ParamVectorFor(opts.PTypes[n], b.ParamNames())
		} else {
			pvecs[n], err = ps.ParamVector(b.ParamNames())
		}
		if err != nil {
			return nil, err
		}
		if b.Stateful() {
			if len(opts.STypes) != 0 {
				svecs[n], err = ps.StateVectorFor(opts.STypes[n], b.StateNames())
			} else {
				svecs[n], err = ps.StateVector(b.StateNames())
			}
			if err != nil {
				return nil, err
			}
		}
	}
	nnvec, err := ps.NNVector(b.graph.Modules())
	if err != nil {
		return nil, err
	}

	nodeOut := make([][][]float64, nNodes)
	errs := make([]error, nNodes)
	var wg sync.WaitGroup
	for n := 0; n < nNodes; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			in := make([][]float64, len(input))
			for v := range input {
				in[v] = input[v][n]
			}
			if errs[n] = b.checkInput(in, len(opts.Times)); errs[n] != nil {
				return
			}
			nodeOut[n], errs[n] = b.runOne(in, pvecs[n], svecs[n], nnvec, opts.Options)
		}(n)
	}
	wg.Wait()

	for n, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n, err)
		}
	}

	// stack node results: [var][node][time]
	nVars := len(b.VarNames())
	out := make([][][]float64, nVars)
	for v := 0; v < nVars; v++ {
		out[v] = make([][]float64, nNodes)
		for n := 0; n < nNodes; n++ {
			out[v][n] = nodeOut[n][v]
		}
	}
	return out, nil
}
