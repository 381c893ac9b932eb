package regression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegimeForMonth(t *testing.T) {
	cases := []struct {
		month     int
		kind      RegimeKind
		predictor Predictor
	}{
		{1, RegimeConstant, PredictorNone},
		{2, RegimeLinear, PredictorFeb},
		{3, RegimeLinear, PredictorFeb},
		{4, RegimeLinear, PredictorFeb},
		{5, RegimeLinear, PredictorApr},
		{6, RegimeCeiling, PredictorApr},
		{7, RegimeCeiling, PredictorApr},
		{8, RegimeCeiling, PredictorApr},
		{9, RegimeCeiling, PredictorApr},
		{10, RegimeLinear, PredictorApr},
		{11, RegimeLinear, PredictorApr},
		{12, RegimeConstant, PredictorNone},
	}

	for _, c := range cases {
		kind, predictor := regimeFor(c.month)
		assert.Equal(t, c.kind, kind, "month %d", c.month)
		assert.Equal(t, c.predictor, predictor, "month %d", c.month)
	}
}

func TestMonthModelPredict(t *testing.T) {
	ceiling := MonthModel{
		Month: 7, Kind: RegimeCeiling, Predictor: PredictorApr,
		Intercept: 90, Slope: 4, Ceiling: 230,
	}
	// 90 + 4*20 = 170, below the limit.
	assert.InDelta(t, 170.0, ceiling.Predict(5, 20), 0.001)
	// 90 + 4*50 = 290 clamps to 230.
	assert.InDelta(t, 230.0, ceiling.Predict(5, 50), 0.001)

	linFeb := MonthModel{
		Month: 2, Kind: RegimeLinear, Predictor: PredictorFeb,
		Intercept: 100, Slope: 5,
	}
	// Uses the February column only: 100 + 5*10 = 150.
	assert.InDelta(t, 150.0, linFeb.Predict(10, 999), 0.001)

	linApr := MonthModel{
		Month: 10, Kind: RegimeLinear, Predictor: PredictorApr,
		Intercept: 40, Slope: 2,
	}
	assert.InDelta(t, 80.0, linApr.Predict(999, 20), 0.001)

	flat := MonthModel{Month: 1, Kind: RegimeConstant, Intercept: 500}
	assert.InDelta(t, 500.0, flat.Predict(12, 34), 0.001)
}

func TestCrossingPoint(t *testing.T) {
	ceiling := MonthModel{
		Month: 7, Kind: RegimeCeiling, Predictor: PredictorApr,
		Intercept: 90, Slope: 4, Ceiling: 230,
	}
	x, ok := ceiling.CrossingPoint()
	assert.True(t, ok)
	// (230 - 90) / 4 = 35 inches.
	assert.InDelta(t, 35.0, x, 0.001)

	_, ok = MonthModel{Month: 2, Kind: RegimeLinear, Slope: 5}.CrossingPoint()
	assert.False(t, ok)

	_, ok = MonthModel{Month: 7, Kind: RegimeCeiling, Slope: 0}.CrossingPoint()
	assert.False(t, ok)
}

func TestRegimeNames(t *testing.T) {
	assert.Equal(t, "ceiling", RegimeCeiling.String())
	assert.Equal(t, "linear", RegimeLinear.String())
	assert.Equal(t, "constant", RegimeConstant.String())
	assert.Equal(t, "feb_swe", PredictorFeb.String())
	assert.Equal(t, "apr_swe", PredictorApr.String())
	assert.Equal(t, "none", PredictorNone.String())
}
