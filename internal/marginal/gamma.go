// Package marginal fits the per-variable parametric distributions used as
// copula marginals.
package marginal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrBadSample reports a sample no gamma fit can be computed from.
var ErrBadSample = errors.New("marginal: bad sample")

// Gamma is a fitted two-parameter gamma distribution with location zero.
type Gamma struct {
	Shape float64 `json:"shape"`
	Scale float64 `json:"scale"`
}

// FitGamma estimates shape and scale by maximum likelihood with location
// fixed at zero. The shape k solves ln(k) - psi(k) = ln(mean x) - mean(ln x);
// the left side is strictly decreasing in k, so Newton iteration from the
// standard closed-form starting point converges in a few steps.
func FitGamma(sample []float64) (Gamma, error) {
	if len(sample) == 0 {
		return Gamma{}, fmt.Errorf("%w: empty sample", ErrBadSample)
	}

	var sum, sumLog float64
	for _, x := range sample {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Gamma{}, fmt.Errorf("%w: non-finite value %v", ErrBadSample, x)
		}
		if x < 0 {
			return Gamma{}, fmt.Errorf("%w: negative value %v", ErrBadSample, x)
		}
		if x == 0 {
			// ln(0) sinks the likelihood; a zero snow year cannot be fit
			// by a zero-location gamma.
			return Gamma{}, fmt.Errorf("%w: zero value", ErrBadSample)
		}
		sum += x
		sumLog += math.Log(x)
	}

	n := float64(len(sample))
	mean := sum / n
	s := math.Log(mean) - sumLog/n
	// By Jensen s >= 0, with equality only for a constant sample.
	if s <= 0 {
		return Gamma{}, fmt.Errorf("%w: zero variance", ErrBadSample)
	}

	k := (3 - s + math.Sqrt((s-3)*(s-3)+24*s)) / (12 * s)
	for i := 0; i < 100; i++ {
		f := math.Log(k) - mathext.Digamma(k) - s
		next := k - f/(1/k-trigamma(k))
		if next <= 0 {
			next = k / 2
		}
		if math.Abs(next-k) < 1e-12*k {
			k = next
			break
		}
		k = next
	}

	return Gamma{Shape: k, Scale: mean / k}, nil
}

// trigamma approximates psi'(x) by a central difference of the digamma,
// which is plenty for a Newton step.
func trigamma(x float64) float64 {
	const h = 1e-5
	return (mathext.Digamma(x+h) - mathext.Digamma(x-h)) / (2 * h)
}

func (g Gamma) dist() distuv.Gamma {
	// distuv parameterizes by rate, not scale.
	return distuv.Gamma{Alpha: g.Shape, Beta: 1 / g.Scale}
}

// Quantile returns the value at cumulative probability p.
func (g Gamma) Quantile(p float64) float64 {
	return g.dist().Quantile(p)
}

// CDF returns the cumulative probability at x.
func (g Gamma) CDF(x float64) float64 {
	return g.dist().CDF(x)
}

// Mean returns shape times scale.
func (g Gamma) Mean() float64 {
	return g.Shape * g.Scale
}
