package solver

import "math"

// Dormand-Prince coefficients
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the adaptive Dormand-Prince 5(4) integrator. Step size adjusts
// to keep the embedded error estimate under the configured tolerances;
// output is sampled exactly on the caller's time index by clamping steps
// at grid points.
type RK45 struct {
	RelTol      float64
	AbsTol      float64
	InitialStep float64 // 0 means the first grid interval
	MinStep     float64
	MaxSteps    int

	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		RelTol:   1e-6,
		AbsTol:   1e-8,
		MinStep:  1e-10,
		MaxSteps: 1000000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Solve(fn Func, y0 []float64, times []float64) ([][]float64, error) {
	out, _, err := r.SolveWithStats(fn, y0, times)
	return out, err
}

// SolveWithStats behaves like Solve and additionally reports how much
// work the step-size control performed.
func (r *RK45) SolveWithStats(fn Func, y0 []float64, times []float64) ([][]float64, Statistics, error) {
	var stat Statistics
	if err := checkTimes(times); err != nil {
		return nil, stat, err
	}

	out := trajectory(y0, len(times))
	y := append([]float64(nil), y0...)
	t := times[0]

	h := r.InitialStep
	if h <= 0 {
		h = times[1] - times[0]
	}

	for k := 1; k < len(times); k++ {
		tEnd := times[k]
		for t < tEnd {
			if stat.Steps+stat.Rejected >= r.MaxSteps {
				return nil, stat, &StepError{Time: t, Step: stat.Steps, Size: h}
			}

			hTry := math.Min(h, tEnd-t)
			yNew, errRatio := r.attempt(fn, y, t, hTry, &stat)

			if errRatio <= 1 {
				t += hTry
				y = yNew
				stat.Steps++
				stat.LastStep = hTry
				if errRatio > 0 {
					h = hTry * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
				} else {
					h = hTry * r.maxScale
				}
				continue
			}

			stat.Rejected++
			h = hTry * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
			if h < r.MinStep {
				return nil, stat, &StepError{Time: t, Step: stat.Steps, Size: h}
			}
		}
		for i := range y {
			out[i][k] = y[i]
		}
	}
	return out, stat, nil
}

// attempt takes one trial step of size h and returns the candidate state
// with its error estimate scaled against tolerance (<=1 means accept).
func (r *RK45) attempt(fn Func, y []float64, t, h float64, stat *Statistics) ([]float64, float64) {
	n := len(y)
	stat.Evaluations += 7

	k1 := fn(t, y)

	y2 := make([]float64, n)
	for i := 0; i < n; i++ {
		y2[i] = y[i] + h*b21*k1[i]
	}
	k2 := fn(t+a2*h, y2)

	y3 := make([]float64, n)
	for i := 0; i < n; i++ {
		y3[i] = y[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := fn(t+a3*h, y3)

	y4 := make([]float64, n)
	for i := 0; i < n; i++ {
		y4[i] = y[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := fn(t+a4*h, y4)

	y5 := make([]float64, n)
	for i := 0; i < n; i++ {
		y5[i] = y[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := fn(t+a5*h, y5)

	y6 := make([]float64, n)
	for i := 0; i < n; i++ {
		y6[i] = y[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := fn(t+h, y6)

	yNew := make([]float64, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	k7 := fn(t+h, yNew)

	errRatio := 0.0
	for i := 0; i < n; i++ {
		est := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		tol := r.AbsTol + r.RelTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		errRatio = math.Max(errRatio, math.Abs(est)/tol)
	}
	if math.IsNaN(errRatio) {
		// NaN in the right-hand side; force a rejection so the step
		// shrinks toward MinStep and the solve fails cleanly.
		errRatio = math.Inf(1)
	}
	return yNew, errRatio
}
