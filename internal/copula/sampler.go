// Package copula couples the fitted SWE marginals through a bivariate
// Gaussian copula and provides the rank-based diagnostics used to check
// the fit against the historical record.
package copula

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"hydro_simulator/internal/marginal"
	"hydro_simulator/internal/model"
)

// KendallTau returns Kendall's rank correlation of two paired samples.
func KendallTau(x, y []float64) float64 {
	return stat.Kendall(x, y, nil)
}

// NormalEquivalent converts Kendall's tau to the Pearson correlation of the
// underlying bivariate normal: rho = sin(tau*pi/2).
func NormalEquivalent(tau float64) float64 {
	return math.Sin(tau * math.Pi / 2)
}

// Sampler draws correlated (Feb, Apr) SWE pairs: bivariate standard normal
// draws at the tau-equivalent correlation, pushed through the normal CDF to
// uniforms and through the fitted gamma quantiles to inches of SWE.
type Sampler struct {
	Feb marginal.Gamma
	Apr marginal.Gamma
	Tau float64
	Rho float64

	dist *distmv.Normal
}

// NewSampler builds a seeded sampler. The correlation must leave the
// 2x2 matrix positive definite, so |rho| = 1 is rejected.
func NewSampler(feb, apr marginal.Gamma, tau float64, seed uint64) (*Sampler, error) {
	rho := NormalEquivalent(tau)
	if rho <= -1 || rho >= 1 {
		return nil, fmt.Errorf("copula: normal-equivalent correlation %v out of (-1, 1)", rho)
	}

	cov := mat.NewSymDense(2, []float64{1, rho, rho, 1})
	dist, ok := distmv.NewNormal([]float64{0, 0}, cov, rand.NewSource(seed))
	if !ok {
		return nil, errors.New("copula: correlation matrix not positive definite")
	}

	return &Sampler{Feb: feb, Apr: apr, Tau: tau, Rho: rho, dist: dist}, nil
}

// Draw returns n correlated SWE pairs. Fixed seed and inputs give an
// identical table on every run.
func (s *Sampler) Draw(n int) []model.SWEPair {
	pairs := make([]model.SWEPair, n)
	z := make([]float64, 2)
	for i := range pairs {
		z = s.dist.Rand(z)
		pairs[i] = model.SWEPair{
			Feb: s.Feb.Quantile(distuv.UnitNormal.CDF(z[0])),
			Apr: s.Apr.Quantile(distuv.UnitNormal.CDF(z[1])),
		}
	}
	return pairs
}
