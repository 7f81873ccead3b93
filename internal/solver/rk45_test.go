package solver

import (
	"errors"
	"math"
	"testing"
)

func TestRK45_PositiveDerivativeMonotone(t *testing.T) {
	// dy/dt strictly positive everywhere: success, increasing trajectory
	fn := func(tt float64, y []float64) []float64 {
		return []float64{1 + y[0]*y[0]/(1+y[0]*y[0])}
	}
	times := grid(0, 5, 50)
	out, stat, err := NewRK45().SolveWithStats(fn, []float64{0}, times)
	if err != nil {
		t.Fatalf("SolveWithStats: %v", err)
	}
	for k := 1; k < len(times); k++ {
		if out[0][k] <= out[0][k-1] {
			t.Fatalf("trajectory not increasing at %d: %v <= %v", k, out[0][k], out[0][k-1])
		}
	}
	if stat.Steps == 0 || stat.Evaluations == 0 {
		t.Errorf("empty statistics: %+v", stat)
	}
}

func TestRK45_HarmonicOscillatorAccuracy(t *testing.T) {
	fn := func(tt float64, y []float64) []float64 {
		return []float64{y[1], -y[0]}
	}
	times := grid(0, 2*math.Pi, 100)
	out, err := NewRK45().Solve(fn, []float64{1, 0}, times)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	// one full period returns to the initial condition
	last := len(times) - 1
	if math.Abs(out[0][last]-1) > 1e-4 || math.Abs(out[1][last]) > 1e-4 {
		t.Errorf("y(2pi) = (%v, %v), want (1, 0)", out[0][last], out[1][last])
	}
}

func TestRK45_FailureIsSentinel(t *testing.T) {
	blowup := func(tt float64, y []float64) []float64 {
		return []float64{y[0] * y[0]}
	}
	// y' = y^2 from y(0)=1 blows up at t=1; the trajectory cannot reach t=2
	r := NewRK45()
	r.MaxSteps = 5000
	out, err := r.Solve(blowup, []float64{1}, []float64{0, 2})
	if err == nil {
		t.Fatal("expected failure for finite-time blowup")
	}
	if !errors.Is(err, ErrNoConvergence) {
		t.Errorf("err = %v, want ErrNoConvergence", err)
	}
	if out != nil {
		t.Error("failed solve must not return a trajectory")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Errorf("err %v carries no step context", err)
	}
}

func TestRK45_NaNDerivativeFailsCleanly(t *testing.T) {
	fn := func(tt float64, y []float64) []float64 {
		return []float64{math.Sqrt(-1 - tt)}
	}
	r := NewRK45()
	r.MaxSteps = 1000
	if _, err := r.Solve(fn, []float64{0}, []float64{0, 1}); !errors.Is(err, ErrNoConvergence) {
		t.Errorf("err = %v, want ErrNoConvergence", err)
	}
}

func TestRK45_SampledOnCallerGrid(t *testing.T) {
	fn := func(tt float64, y []float64) []float64 { return []float64{2 * tt} }
	times := []float64{0, 0.5, 1.3, 2}
	out, err := NewRK45().Solve(fn, []float64{0}, times)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(out[0]) != len(times) {
		t.Fatalf("got %d samples for %d times", len(out[0]), len(times))
	}
	for k, tt := range times {
		if math.Abs(out[0][k]-tt*tt) > 1e-6 {
			t.Errorf("y(%v) = %v, want %v", tt, out[0][k], tt*tt)
		}
	}
}
