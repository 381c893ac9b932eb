package residual

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrShortSeries reports a whitened series too short for the lag
// structure.
var ErrShortSeries = errors.New("residual: series too short for lag-3 autoregression")

// ARModel is a two-coefficient autoregression on lags 1 and 3 with no
// intercept. Lag 3 reaches back a season in monthly data.
type ARModel struct {
	Phi1     float64 `json:"phi1"`
	Phi3     float64 `json:"phi3"`
	InnovStd float64 `json:"innov_std"`
}

// FitAR estimates the coefficients by least squares over rows 3..n-1 of
// the whitened series. The innovation std is the sample std of the fit
// residuals.
func FitAR(series []float64) (ARModel, error) {
	if len(series) < 8 {
		return ARModel{}, fmt.Errorf("%w: %d observations", ErrShortSeries, len(series))
	}

	var s11, s13, s33, s1y, s3y float64
	for i := 3; i < len(series); i++ {
		x1, x3, y := series[i-1], series[i-3], series[i]
		s11 += x1 * x1
		s13 += x1 * x3
		s33 += x3 * x3
		s1y += x1 * y
		s3y += x3 * y
	}

	a := mat.NewDense(2, 2, []float64{s11, s13, s13, s33})
	b := mat.NewVecDense(2, []float64{s1y, s3y})
	var phi mat.VecDense
	if err := phi.SolveVec(a, b); err != nil {
		return ARModel{}, fmt.Errorf("residual: autoregression normal equations: %w", err)
	}

	m := ARModel{Phi1: phi.AtVec(0), Phi3: phi.AtVec(1)}
	m.InnovStd = stat.StdDev(m.Innovations(series), nil)
	return m, nil
}

// Innovations returns the one-step fit residuals for rows 3..n-1.
func (m ARModel) Innovations(series []float64) []float64 {
	if len(series) < 4 {
		return nil
	}
	out := make([]float64, 0, len(series)-3)
	for i := 3; i < len(series); i++ {
		out = append(out, series[i]-m.Phi1*series[i-1]-m.Phi3*series[i-3])
	}
	return out
}
