// Package expr provides a small expression AST for defining flux
// equations symbolically. Expressions reference inputs and parameters by
// name; Compile resolves the names against a declared binding once, at
// model-definition time, and returns the plain callable form the hydro
// package executes. There is no ambient symbol table: every name must
// appear in the binding handed to Compile.
package expr

import (
	"errors"
	"fmt"
	"math"

	"github.com/olivierbonte/hydromodels/internal/hydro"
)

// ErrUnboundName indicates an expression references a name missing from
// the compile-time binding.
var ErrUnboundName = errors.New("expr: unbound name")

// Node is one node of an expression tree.
type Node interface {
	eval(inputs, params []float64) float64
	bind(inputs, params []string) error
}

type num struct{ v float64 }

func (n num) eval(_, _ []float64) float64 { return n.v }
func (n num) bind(_, _ []string) error    { return nil }

type ref struct {
	name  string
	param bool
	idx   int
}

func (r *ref) eval(inputs, params []float64) float64 {
	if r.param {
		return params[r.idx]
	}
	return inputs[r.idx]
}

func (r *ref) bind(inputs, params []string) error {
	names := inputs
	if r.param {
		names = params
	}
	for i, n := range names {
		if n == r.name {
			r.idx = i
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnboundName, r.name)
}

type binary struct {
	op   func(a, b float64) float64
	l, r Node
}

func (b *binary) eval(in, p []float64) float64 { return b.op(b.l.eval(in, p), b.r.eval(in, p)) }
func (b *binary) bind(in, p []string) error {
	if err := b.l.bind(in, p); err != nil {
		return err
	}
	return b.r.bind(in, p)
}

type unary struct {
	op func(x float64) float64
	x  Node
}

func (u *unary) eval(in, p []float64) float64 { return u.op(u.x.eval(in, p)) }
func (u *unary) bind(in, p []string) error    { return u.x.bind(in, p) }

// Num is a numeric constant.
func Num(v float64) Node { return num{v} }

// Var references an input by name.
func Var(name string) Node { return &ref{name: name} }

// Param references a parameter by name.
func Param(name string) Node { return &ref{name: name, param: true} }

func Add(a, b Node) Node { return &binary{func(x, y float64) float64 { return x + y }, a, b} }
func Sub(a, b Node) Node { return &binary{func(x, y float64) float64 { return x - y }, a, b} }
func Mul(a, b Node) Node { return &binary{func(x, y float64) float64 { return x * y }, a, b} }
func Div(a, b Node) Node { return &binary{func(x, y float64) float64 { return x / y }, a, b} }
func Pow(a, b Node) Node { return &binary{math.Pow, a, b} }
func Min(a, b Node) Node { return &binary{math.Min, a, b} }
func Max(a, b Node) Node { return &binary{math.Max, a, b} }

func Neg(x Node) Node  { return &unary{func(v float64) float64 { return -v }, x} }
func Abs(x Node) Node  { return &unary{math.Abs, x} }
func Exp(x Node) Node  { return &unary{math.Exp, x} }
func Log(x Node) Node  { return &unary{math.Log, x} }
func Sqrt(x Node) Node { return &unary{math.Sqrt, x} }

// Step is the unit threshold function: 1 when x > 0, else 0. Threshold
// partitions (snow versus rain, store overflow) are written with it.
func Step(x Node) Node {
	return &unary{func(v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	}, x}
}

// Compile resolves every name in exprs against the declared input and
// parameter order and returns a FluxFn evaluating one expression per
// output. Unbound names fail here, not at call time.
func Compile(inputs, params []string, exprs ...Node) (hydro.FluxFn, error) {
	for _, e := range exprs {
		if err := e.bind(inputs, params); err != nil {
			return nil, err
		}
	}
	return func(in, p []float64) []float64 {
		out := make([]float64, len(exprs))
		for i, e := range exprs {
			out[i] = e.eval(in, p)
		}
		return out
	}, nil
}

// NewFlux builds a hydro.Flux from one expression per output name. This
// is the symbolic construction path; hydro.NewFlux remains the
// plain-callable path and both behave identically once built.
func NewFlux(inputs, outputs, params []string, exprs ...Node) (*hydro.Flux, error) {
	if len(exprs) != len(outputs) {
		return nil, fmt.Errorf("expr: %d expressions for %d outputs", len(exprs), len(outputs))
	}
	fn, err := Compile(inputs, params, exprs...)
	if err != nil {
		return nil, err
	}
	return hydro.NewFlux(inputs, outputs, params, fn), nil
}

// NewStateFlux builds an explicit-expression state flux.
func NewStateFlux(state string, inputs, params []string, e Node) (*hydro.StateFlux, error) {
	if err := e.bind(inputs, params); err != nil {
		return nil, err
	}
	return hydro.NewStateFluxExpr(state, inputs, params, func(in, p []float64) float64 {
		return e.eval(in, p)
	}), nil
}
