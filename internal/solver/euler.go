package solver

// Euler is the fixed-step explicit integrator: one forward step per
// declared time interval, derivative evaluated at the interval start.
// No internal step-size control, so a run is deterministic bit-for-bit
// and state updates land exactly on the routing time grid.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Solve(fn Func, y0 []float64, times []float64) ([][]float64, error) {
	if err := checkTimes(times); err != nil {
		return nil, err
	}

	out := trajectory(y0, len(times))
	y := append([]float64(nil), y0...)
	for k := 1; k < len(times); k++ {
		dt := times[k] - times[k-1]
		dy := fn(times[k-1], y)
		for i := range y {
			y[i] += dt * dy[i]
			out[i][k] = y[i]
		}
	}
	return out, nil
}
