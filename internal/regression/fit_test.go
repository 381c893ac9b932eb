package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydro_simulator/internal/model"
)

func monthRows(month int, totals, feb, apr []float64) []model.GenerationMonth {
	rows := make([]model.GenerationMonth, len(totals))
	for i := range totals {
		rows[i] = model.GenerationMonth{
			WaterYear:  1990 + i,
			WaterMonth: month,
			Total:      totals[i],
			FebSWE:     feb[i],
			AprSWE:     apr[i],
		}
	}
	return rows
}

func TestFitMonthConstant(t *testing.T) {
	rows := monthRows(1,
		[]float64{500, 520, 480, 500},
		[]float64{10, 12, 8, 11},
		[]float64{15, 18, 12, 16},
	)

	fit, err := FitMonth(1, rows)
	require.NoError(t, err)

	assert.Equal(t, RegimeConstant, fit.Model.Kind)
	assert.InDelta(t, 500.0, fit.Model.Intercept, 0.001)
	assert.InDelta(t, 0.0, fit.Model.Slope, 0.001)
	// Residuals 0, 20, -20, 0: sample std = sqrt(800/3) = 16.330.
	assert.InDelta(t, 16.330, fit.Model.ResidStd, 0.001)
	assert.Equal(t, []float64{0, 20, -20, 0}, fit.Residuals)
}

func TestFitMonthLinearFeb(t *testing.T) {
	feb := []float64{8, 10, 12, 14, 16}
	apr := []float64{99, 99, 99, 99, 99}
	totals := make([]float64, len(feb))
	for i, f := range feb {
		totals[i] = 100 + 5*f
	}

	fit, err := FitMonth(2, monthRows(2, totals, feb, apr))
	require.NoError(t, err)

	assert.Equal(t, RegimeLinear, fit.Model.Kind)
	assert.Equal(t, PredictorFeb, fit.Model.Predictor)
	assert.InDelta(t, 100.0, fit.Model.Intercept, 1e-9)
	assert.InDelta(t, 5.0, fit.Model.Slope, 1e-9)
	assert.InDelta(t, 0.0, fit.Model.ResidStd, 1e-9)
}

func TestFitMonthLinearApr(t *testing.T) {
	feb := []float64{7, 7, 7, 7, 7}
	apr := []float64{10, 14, 18, 22, 26}
	totals := make([]float64, len(apr))
	for i, a := range apr {
		totals[i] = 40 + 2*a
	}

	// Month 10 regresses on April SWE, so the flat February column is fine.
	fit, err := FitMonth(10, monthRows(10, totals, feb, apr))
	require.NoError(t, err)

	assert.Equal(t, PredictorApr, fit.Model.Predictor)
	assert.InDelta(t, 40.0, fit.Model.Intercept, 1e-9)
	assert.InDelta(t, 2.0, fit.Model.Slope, 1e-9)
}

func TestFitMonthCeiling(t *testing.T) {
	apr := []float64{10, 15, 20, 25, 30, 33, 36, 40, 45, 50, 55, 60}
	feb := make([]float64, len(apr))
	totals := make([]float64, len(apr))
	for i, a := range apr {
		feb[i] = a * 0.7
		totals[i] = math.Min(90+4*a, 230)
	}

	fit, err := FitMonth(7, monthRows(7, totals, feb, apr))
	require.NoError(t, err)

	assert.Equal(t, RegimeCeiling, fit.Model.Kind)
	assert.InDelta(t, 90.0, fit.Model.Intercept, 1.5)
	assert.InDelta(t, 4.0, fit.Model.Slope, 0.05)
	assert.InDelta(t, 230.0, fit.Model.Ceiling, 1.5)
	assert.InDelta(t, 0.0, fit.Model.ResidStd, 0.5)

	x, ok := fit.Model.CrossingPoint()
	require.True(t, ok)
	assert.InDelta(t, 35.0, x, 1.0)

	// Predictions clamp above the crossing point.
	assert.InDelta(t, 230.0, fit.Model.Predict(0, 55), 1.5)
}

func TestFitMonthErrors(t *testing.T) {
	rows := monthRows(2,
		[]float64{100, 110, 120},
		[]float64{9, 9, 9},
		[]float64{12, 13, 14},
	)

	_, err := FitMonth(0, rows)
	assert.Error(t, err)
	_, err = FitMonth(13, rows)
	assert.Error(t, err)

	_, err = FitMonth(2, rows[:2])
	assert.ErrorIs(t, err, ErrDegenerate)

	// Month 2 regresses on February SWE, which is constant here.
	_, err = FitMonth(2, rows)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestFitAllMonths(t *testing.T) {
	var rows []model.GenerationMonth
	for i := 0; i < 8; i++ {
		feb := 10 + 1.3*float64(i)
		apr := 14 + 1.7*float64(i)
		for month := 1; month <= 12; month++ {
			var total float64
			kind, _ := regimeFor(month)
			switch kind {
			case RegimeConstant:
				total = 480 + 3*float64(i)
			case RegimeLinear:
				if month <= 4 {
					total = 50 + 10*float64(month) + 4*feb
				} else {
					total = 30 + 5*float64(month) + 3*apr
				}
			case RegimeCeiling:
				total = math.Min(60+6*apr, 160)
			}
			rows = append(rows, model.GenerationMonth{
				WaterYear: 1990 + i, WaterMonth: month,
				Total: total, FebSWE: feb, AprSWE: apr,
			})
		}
	}

	fits, err := FitAllMonths(rows)
	require.NoError(t, err)
	require.Len(t, fits, 12)

	for month := 1; month <= 12; month++ {
		fit, ok := fits[month]
		require.True(t, ok, "month %d", month)
		kind, predictor := regimeFor(month)
		assert.Equal(t, kind, fit.Model.Kind)
		assert.Equal(t, predictor, fit.Model.Predictor)
		assert.Len(t, fit.Residuals, 8)
	}

	// The linear fits see exact lines.
	assert.InDelta(t, 4.0, fits[2].Model.Slope, 1e-6)
	assert.InDelta(t, 3.0, fits[10].Model.Slope, 1e-6)

	// The ceiling months reproduce the clamped curve even where the
	// individual parameters trade off against each other.
	for _, month := range []int{6, 7, 8, 9} {
		for i := 0; i < 8; i++ {
			feb := 10 + 1.3*float64(i)
			apr := 14 + 1.7*float64(i)
			want := math.Min(60+6*apr, 160)
			assert.InDelta(t, want, fits[month].Model.Predict(feb, apr), 2.0, "month %d year %d", month, i)
		}
	}
}

func TestFitAllMonthsMissingMonth(t *testing.T) {
	rows := monthRows(1,
		[]float64{500, 520, 480},
		[]float64{10, 12, 8},
		[]float64{15, 18, 12},
	)

	_, err := FitAllMonths(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "month 2")
}
