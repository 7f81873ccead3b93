package hydro

import (
	"errors"
	"testing"
)

func addFlux(inputs []string, output string) *Flux {
	return NewFlux(inputs, []string{output}, nil, func(in, _ []float64) []float64 {
		sum := 0.0
		for _, v := range in {
			sum += v
		}
		return []float64{sum}
	})
}

func TestBuild_NameAlgebra(t *testing.T) {
	fluxes := []*Flux{
		NewFlux([]string{"prcp", "temp"}, []string{"rain"}, []string{"Tmin"},
			func(in, p []float64) []float64 { return []float64{in[0]} }),
		NewFlux([]string{"rain", "store"}, []string{"runoff"}, []string{"k"},
			func(in, p []float64) []float64 { return []float64{p[0] * in[1]} }),
	}
	dfluxes := []*StateFlux{
		NewStateFlux("store", []string{"rain"}, []string{"runoff"}),
	}

	g, err := Build(fluxes, dfluxes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantInputs := []string{"prcp", "temp"}
	if got := g.InputNames(); !equalStrings(got, wantInputs) {
		t.Errorf("inputs = %v, want %v", got, wantInputs)
	}
	if got := g.OutputNames(); !equalStrings(got, []string{"rain", "runoff"}) {
		t.Errorf("outputs = %v", got)
	}
	if got := g.StateNames(); !equalStrings(got, []string{"store"}) {
		t.Errorf("states = %v", got)
	}
	if got := g.ParamNames(); !equalStrings(got, []string{"Tmin", "k"}) {
		t.Errorf("params = %v", got)
	}
}

func TestBuild_TopologicalOrder(t *testing.T) {
	// declared in reverse dependency order on purpose
	fluxes := []*Flux{
		addFlux([]string{"b"}, "c"),
		addFlux([]string{"a"}, "b"),
		addFlux([]string{"x"}, "a"),
	}
	g, err := Build(fluxes, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// x=2 -> a=2, b=2, c=2
	out := g.EvalFluxes([]float64{2}, nil, nil)
	for i, name := range g.OutputNames() {
		if out[i] != 2 {
			t.Errorf("output %s = %v, want 2", name, out[i])
		}
	}
}

func TestBuild_CyclicFluxFails(t *testing.T) {
	fluxes := []*Flux{
		addFlux([]string{"b"}, "a"),
		addFlux([]string{"a"}, "b"),
	}
	if _, err := Build(fluxes, nil); !errors.Is(err, ErrCyclicFlux) {
		t.Errorf("err = %v, want ErrCyclicFlux", err)
	}

	self := []*Flux{addFlux([]string{"a"}, "a")}
	if _, err := Build(self, nil); !errors.Is(err, ErrCyclicFlux) {
		t.Errorf("self cycle err = %v, want ErrCyclicFlux", err)
	}
}

func TestBuild_DuplicateStateFails(t *testing.T) {
	fluxes := []*Flux{addFlux([]string{"x"}, "q")}
	dfluxes := []*StateFlux{
		NewStateFlux("s", []string{"q"}, nil),
		NewStateFlux("s", nil, []string{"q"}),
	}
	if _, err := Build(fluxes, dfluxes); !errors.Is(err, ErrDuplicateState) {
		t.Errorf("err = %v, want ErrDuplicateState", err)
	}
}

func TestBuild_ExternalContributor(t *testing.T) {
	// prcp feeds the store directly, without an intermediate flux
	fluxes := []*Flux{addFlux([]string{"x"}, "q")}
	dfluxes := []*StateFlux{NewStateFlux("s", []string{"prcp"}, []string{"q"})}

	g, err := Build(fluxes, dfluxes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := g.InputNames(); !equalStrings(got, []string{"x", "prcp"}) {
		t.Fatalf("inputs = %v, want [x prcp]", got)
	}

	// dS/dt = prcp - q with q = x
	dy := g.EvalDerivs([]float64{3, 7}, []float64{0}, nil, nil)
	if want := 7.0 - 3.0; dy[0] != want {
		t.Errorf("dy = %v, want %v", dy[0], want)
	}
}

func TestBuild_DuplicateOutputFails(t *testing.T) {
	fluxes := []*Flux{
		addFlux([]string{"x"}, "q"),
		addFlux([]string{"y"}, "q"),
	}
	if _, err := Build(fluxes, nil); !errors.Is(err, ErrBadFlux) {
		t.Errorf("err = %v, want ErrBadFlux", err)
	}
}

func TestEvalDerivs_SignedSum(t *testing.T) {
	// dS/dt = a + b - c for arbitrary values, including negatives and zero
	pass := func(name string) *Flux {
		return NewFlux([]string{name + "_in"}, []string{name}, nil,
			func(in, _ []float64) []float64 { return []float64{in[0]} })
	}
	fluxes := []*Flux{pass("a"), pass("b"), pass("c")}
	dfluxes := []*StateFlux{NewStateFlux("s", []string{"a", "b"}, []string{"c"})}

	g, err := Build(fluxes, dfluxes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cases := [][3]float64{
		{1, 2, 3},
		{-4, 0, 2.5},
		{0, 0, 0},
		{1e9, -1e9, 7},
	}
	for _, c := range cases {
		in := make([]float64, 3)
		for i, name := range g.InputNames() {
			switch name {
			case "a_in":
				in[i] = c[0]
			case "b_in":
				in[i] = c[1]
			case "c_in":
				in[i] = c[2]
			}
		}
		dy := g.EvalDerivs(in, []float64{0}, nil, nil)
		want := c[0] + c[1] - c[2]
		if dy[0] != want {
			t.Errorf("d(s)/dt for %v = %v, want %v", c, dy[0], want)
		}
	}
}

func TestEvalDerivs_ExplicitExpression(t *testing.T) {
	fluxes := []*Flux{addFlux([]string{"x"}, "q")}
	dfluxes := []*StateFlux{
		NewStateFluxExpr("s", []string{"q", "s"}, []string{"k"},
			func(in, p []float64) float64 { return in[0] - p[0]*in[1] }),
	}
	g, err := Build(fluxes, dfluxes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dy := g.EvalDerivs([]float64{3}, []float64{10}, []float64{0.1}, nil)
	if want := 3 - 0.1*10; dy[0] != want {
		t.Errorf("dy = %v, want %v", dy[0], want)
	}
}

func TestEvalFluxes_VectorizationConsistency(t *testing.T) {
	fluxes := []*Flux{
		NewFlux([]string{"x"}, []string{"y"}, []string{"k"},
			func(in, p []float64) []float64 { return []float64{p[0]*in[0] + 1} }),
	}
	g, err := Build(fluxes, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	single := g.EvalFluxes([]float64{2}, []float64{3}, nil)
	for k := 0; k < 50; k++ {
		got := g.EvalFluxes([]float64{2}, []float64{3}, nil)
		if got[0] != single[0] {
			t.Fatalf("repeat %d: %v != %v", k, got[0], single[0])
		}
	}
}

func TestBuild_NeuralDimensionMismatch(t *testing.T) {
	mod := &stubModule{name: "m", in: 3, out: 1, count: 4}
	f := NewNeuralFlux(mod, []string{"a", "b"}, []string{"y"})
	if _, err := Build([]*Flux{f}, nil); !errors.Is(err, ErrBadFlux) {
		t.Errorf("err = %v, want ErrBadFlux", err)
	}
}

func TestBuild_NeuralFluxEvaluates(t *testing.T) {
	mod := &stubModule{name: "m", in: 2, out: 1, count: 2}
	f := NewNeuralFlux(mod, []string{"a", "b"}, []string{"y"})
	g, err := Build([]*Flux{f}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NNParamCount() != 2 {
		t.Fatalf("NNParamCount = %d, want 2", g.NNParamCount())
	}

	// y = w0*a + w1*b
	out := g.EvalFluxes([]float64{2, 3}, nil, []float64{10, 100})
	if want := 2.0*10 + 3.0*100; out[0] != want {
		t.Errorf("neural output = %v, want %v", out[0], want)
	}
}

type stubModule struct {
	name           string
	in, out, count int
}

func (s *stubModule) Name() string    { return s.name }
func (s *stubModule) InDim() int      { return s.in }
func (s *stubModule) OutDim() int     { return s.out }
func (s *stubModule) ParamCount() int { return s.count }

func (s *stubModule) Apply(inputs, params []float64) []float64 {
	out := make([]float64, s.out)
	for i := range inputs {
		out[0] += inputs[i] * params[i]
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
