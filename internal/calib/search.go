package calib

import (
	"context"
	"math"
	"math/rand"
)

// Result of a search: the best tunable vector found and its cost.
type Result struct {
	Params map[string]float64
	Vector []float64
	Cost   float64
	Evals  int
}

// RandomSearch samples the bounded parameter space uniformly with a
// seeded generator, so a search is reproducible. Progress, when set, is
// called after every evaluation with the running best cost.
type RandomSearch struct {
	Iterations int
	Seed       int64
	Progress   func(iter int, best float64)
}

func NewRandomSearch(iterations int, seed int64) *RandomSearch {
	return &RandomSearch{Iterations: iterations, Seed: seed}
}

// Search minimizes the problem's objective. It returns the best point
// seen even when the context cancels early.
func (s *RandomSearch) Search(ctx context.Context, p *Problem) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.Seed))
	res := &Result{Cost: math.Inf(1)}

	for i := 0; i < s.Iterations; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		x := make([]float64, len(p.Tunable))
		for k, b := range p.Bounds {
			x[k] = b[0] + rng.Float64()*(b[1]-b[0])
		}

		cost := p.Objective(x)
		res.Evals++
		if cost < res.Cost {
			res.Cost = cost
			res.Vector = x
		}
		if s.Progress != nil {
			s.Progress(i, res.Cost)
		}
	}

	res.Params = make(map[string]float64, len(p.Tunable))
	for i, name := range p.Tunable {
		if res.Vector != nil {
			res.Params[name] = res.Vector[i]
		}
	}
	return res, nil
}
