// Package regression fits the per-month generation models. The melt
// season saturates at the turbine limit, so those months get a ceiling
// curve on April SWE. Early winter follows February SWE linearly, late
// summer follows April SWE, and the two shoulder months run flat.
package regression

// RegimeKind tags the functional form a water month is fit with.
type RegimeKind int

const (
	RegimeConstant RegimeKind = iota
	RegimeLinear
	RegimeCeiling
)

func (k RegimeKind) String() string {
	switch k {
	case RegimeConstant:
		return "constant"
	case RegimeLinear:
		return "linear"
	case RegimeCeiling:
		return "ceiling"
	}
	return "unknown"
}

// Predictor selects which SWE column drives a month's model.
type Predictor int

const (
	PredictorNone Predictor = iota
	PredictorFeb
	PredictorApr
)

func (p Predictor) String() string {
	switch p {
	case PredictorFeb:
		return "feb_swe"
	case PredictorApr:
		return "apr_swe"
	}
	return "none"
}

// MonthModel is one water month's fitted generation model.
type MonthModel struct {
	Month     int        `json:"month"`
	Kind      RegimeKind `json:"kind"`
	Predictor Predictor  `json:"predictor"`
	Intercept float64    `json:"intercept"`
	Slope     float64    `json:"slope"`
	Ceiling   float64    `json:"ceiling,omitempty"`
	ResidStd  float64    `json:"resid_std"`
}

// Predict evaluates the month's model at the given SWE pair, clamping
// ceiling months at the fitted limit.
func (m MonthModel) Predict(feb, apr float64) float64 {
	x := 0.0
	switch m.Predictor {
	case PredictorFeb:
		x = feb
	case PredictorApr:
		x = apr
	}

	v := m.Intercept + m.Slope*x
	if m.Kind == RegimeCeiling && v > m.Ceiling {
		v = m.Ceiling
	}
	return v
}

// CrossingPoint returns the SWE value at which the fitted line reaches
// the ceiling. It reports false for non-ceiling months and flat slopes.
func (m MonthModel) CrossingPoint() (float64, bool) {
	if m.Kind != RegimeCeiling || m.Slope == 0 {
		return 0, false
	}
	return (m.Ceiling - m.Intercept) / m.Slope, true
}

// regimeFor maps a water month to its regime. Water months run from
// October, so 6 through 9 are March through June.
func regimeFor(month int) (RegimeKind, Predictor) {
	switch month {
	case 6, 7, 8, 9:
		return RegimeCeiling, PredictorApr
	case 2, 3, 4:
		return RegimeLinear, PredictorFeb
	case 5, 10, 11:
		return RegimeLinear, PredictorApr
	default:
		return RegimeConstant, PredictorNone
	}
}
