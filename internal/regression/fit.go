package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"hydro_simulator/internal/model"
)

// ErrDegenerate reports a month whose sample cannot support its regime.
var ErrDegenerate = errors.New("regression: degenerate month sample")

// ceilingStart is the simplex starting point for the melt-season fit:
// intercept, slope per inch of April SWE, and the saturation level.
var ceilingStart = []float64{92, 3.8, 226}

// MonthFit bundles a fitted model with its in-sample diagnostics, both
// aligned with the input rows.
type MonthFit struct {
	Model     MonthModel
	Predicted []float64
	Residuals []float64
}

// FitMonth fits one water month's regime to its historical rows.
func FitMonth(month int, rows []model.GenerationMonth) (MonthFit, error) {
	if month < 1 || month > 12 {
		return MonthFit{}, fmt.Errorf("regression: water month %d out of range", month)
	}
	if len(rows) < 3 {
		return MonthFit{}, fmt.Errorf("%w: month %d has %d rows", ErrDegenerate, month, len(rows))
	}

	kind, predictor := regimeFor(month)
	y := make([]float64, len(rows))
	x := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.Total
		switch predictor {
		case PredictorFeb:
			x[i] = r.FebSWE
		case PredictorApr:
			x[i] = r.AprSWE
		}
	}

	m := MonthModel{Month: month, Kind: kind, Predictor: predictor}
	switch kind {
	case RegimeConstant:
		m.Intercept = stat.Mean(y, nil)
	case RegimeLinear:
		if stat.Variance(x, nil) == 0 {
			return MonthFit{}, fmt.Errorf("%w: month %d has a constant %s predictor", ErrDegenerate, month, predictor)
		}
		m.Intercept, m.Slope = stat.LinearRegression(x, y, nil, false)
	case RegimeCeiling:
		if stat.Variance(x, nil) == 0 {
			return MonthFit{}, fmt.Errorf("%w: month %d has a constant %s predictor", ErrDegenerate, month, predictor)
		}
		var err error
		m.Intercept, m.Slope, m.Ceiling, err = fitCeiling(x, y)
		if err != nil {
			return MonthFit{}, fmt.Errorf("regression: ceiling fit for month %d: %w", month, err)
		}
	}

	fit := MonthFit{
		Model:     m,
		Predicted: make([]float64, len(rows)),
		Residuals: make([]float64, len(rows)),
	}
	for i := range rows {
		fit.Predicted[i] = m.Predict(rows[i].FebSWE, rows[i].AprSWE)
		fit.Residuals[i] = y[i] - fit.Predicted[i]
	}
	fit.Model.ResidStd = stat.StdDev(fit.Residuals, nil)
	if !finite(fit.Model.Intercept, fit.Model.Slope, fit.Model.Ceiling, fit.Model.ResidStd) {
		return MonthFit{}, fmt.Errorf("%w: month %d fit is not finite", ErrDegenerate, month)
	}
	return fit, nil
}

// FitAllMonths groups chronological rows by water month and fits each
// regime. Every month must be present.
func FitAllMonths(rows []model.GenerationMonth) (map[int]MonthFit, error) {
	byMonth := make(map[int][]model.GenerationMonth)
	for _, r := range rows {
		byMonth[r.WaterMonth] = append(byMonth[r.WaterMonth], r)
	}

	fits := make(map[int]MonthFit, 12)
	for month := 1; month <= 12; month++ {
		fit, err := FitMonth(month, byMonth[month])
		if err != nil {
			return nil, err
		}
		fits[month] = fit
	}
	return fits, nil
}

// fitCeiling minimizes the squared error of min(a + b*x, c) with a
// Nelder-Mead simplex.
func fitCeiling(x, y []float64) (intercept, slope, ceiling float64, err error) {
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			sum := 0.0
			for i := range x {
				pred := p[0] + p[1]*x[i]
				if pred > p[2] {
					pred = p[2]
				}
				d := y[i] - pred
				sum += d * d
			}
			return sum
		},
	}

	start := append([]float64(nil), ceilingStart...)
	result, err := optimize.Minimize(problem, start, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, 0, err
	}
	return result.X[0], result.X[1], result.X[2], nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
