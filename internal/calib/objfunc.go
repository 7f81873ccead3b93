// Package calib provides the forward-simulation objective a parameter
// optimizer drives: goodness-of-fit measures, a calibration problem
// binding bucket + forcing + observations + bounds, and a seeded random
// search. Each objective evaluation is an independent, side-effect-free
// bucket call.
package calib

import "math"

// NSE is the Nash-Sutcliffe efficiency: 1 is a perfect fit, 0 matches
// the observed mean, negative is worse than the mean.
func NSE(obs, sim []float64) float64 {
	mean := 0.0
	for _, o := range obs {
		mean += o
	}
	mean /= float64(len(obs))

	num, den := 0.0, 0.0
	for i := range obs {
		d := obs[i] - sim[i]
		num += d * d
		m := obs[i] - mean
		den += m * m
	}
	if den == 0 {
		return math.Inf(-1)
	}
	return 1 - num/den
}

// KGE is the Kling-Gupta efficiency built from correlation, variability
// ratio and bias ratio; 1 is a perfect fit.
func KGE(obs, sim []float64) float64 {
	n := float64(len(obs))
	var mo, ms float64
	for i := range obs {
		mo += obs[i]
		ms += sim[i]
	}
	mo /= n
	ms /= n

	var so, ss, cov float64
	for i := range obs {
		do, ds := obs[i]-mo, sim[i]-ms
		so += do * do
		ss += ds * ds
		cov += do * ds
	}
	so = math.Sqrt(so / n)
	ss = math.Sqrt(ss / n)

	if so == 0 || ss == 0 || mo == 0 {
		return math.Inf(-1)
	}
	r := cov / (n * so * ss)
	alpha := ss / so
	beta := ms / mo
	return 1 - math.Sqrt((r-1)*(r-1)+(alpha-1)*(alpha-1)+(beta-1)*(beta-1))
}

// RMSE is the root mean square error.
func RMSE(obs, sim []float64) float64 {
	sum := 0.0
	for i := range obs {
		d := obs[i] - sim[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(obs)))
}

// Bias is the mean simulated minus mean observed value.
func Bias(obs, sim []float64) float64 {
	var mo, ms float64
	for i := range obs {
		mo += obs[i]
		ms += sim[i]
	}
	return (ms - mo) / float64(len(obs))
}
