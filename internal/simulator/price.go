package simulator

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"hydro_simulator/internal/model"
)

// priceBurnYears is how many simulated years are discarded before the
// first output row. The first seeded year plus three more washes out
// the dependence on the historical tail.
const priceBurnYears = 4

// ErrPriceHistory reports a price record the seasonal model cannot be
// fit on.
var ErrPriceHistory = errors.New("simulator: unusable price history")

// PriceModel is the fitted log-price process: per-month seasonal
// statistics and a lag-1 autoregression with a seasonal moving-average
// term at lag 12. The historical tail seeds the simulation so the chain
// continues the record instead of starting cold.
type PriceModel struct {
	Phi       float64     `json:"phi"`
	Theta     float64     `json:"theta"`
	InnovStd  float64     `json:"innov_std"`
	MonthMean [12]float64 `json:"month_mean"`
	MonthStd  [12]float64 `json:"month_std"`
	TailZ     []float64   `json:"tail_z"`
	TailE     []float64   `json:"tail_e"`
}

// FitPrice deseasonalizes the log of a chronological monthly price
// record and fits the process by conditional least squares.
func FitPrice(rows []model.PriceMonth) (PriceModel, error) {
	if len(rows) < 24 {
		return PriceModel{}, fmt.Errorf("%w: %d rows, need at least two full years", ErrPriceHistory, len(rows))
	}
	if len(rows)%12 != 0 {
		return PriceModel{}, fmt.Errorf("%w: %d rows do not cover whole water years", ErrPriceHistory, len(rows))
	}
	// The simulation seeds itself from the last twelve rows and indexes
	// months by position, so the record must cycle October through
	// September without gaps.
	for i, r := range rows {
		if r.WaterMonth != i%12+1 {
			return PriceModel{}, fmt.Errorf("%w: row %d is month %d, want %d", ErrPriceHistory, i, r.WaterMonth, i%12+1)
		}
	}

	logp := make([]float64, len(rows))
	byMonth := make(map[int][]float64)
	for i, r := range rows {
		logp[i] = math.Log(r.Price)
		byMonth[r.WaterMonth] = append(byMonth[r.WaterMonth], logp[i])
	}

	var m PriceModel
	for month := 1; month <= 12; month++ {
		vals := byMonth[month]
		if len(vals) < 2 {
			return PriceModel{}, fmt.Errorf("%w: month %d has %d rows", ErrPriceHistory, month, len(vals))
		}
		std := stat.StdDev(vals, nil)
		if std == 0 {
			return PriceModel{}, fmt.Errorf("%w: month %d has zero log-price spread", ErrPriceHistory, month)
		}
		m.MonthMean[month-1] = stat.Mean(vals, nil)
		m.MonthStd[month-1] = std
	}

	z := make([]float64, len(rows))
	for i, r := range rows {
		z[i] = (logp[i] - m.MonthMean[r.WaterMonth-1]) / m.MonthStd[r.WaterMonth-1]
	}

	phi, theta, err := fitSeasonalARMA(z)
	if err != nil {
		return PriceModel{}, fmt.Errorf("simulator: price process fit: %w", err)
	}
	m.Phi, m.Theta = phi, theta

	e := seasonalInnovations(z, phi, theta)
	// Population std, not sample: the innovation scale feeds the
	// simulation directly rather than an unbiased estimator.
	m.InnovStd = stat.PopStdDev(e, nil)
	m.TailZ = append([]float64(nil), z[len(z)-12:]...)
	m.TailE = append([]float64(nil), e[len(e)-12:]...)
	return m, nil
}

// fitSeasonalARMA minimizes the conditional sum of squared innovations
// over (phi, theta), with earlier innovations treated as zero.
func fitSeasonalARMA(z []float64) (phi, theta float64, err error) {
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			sum := 0.0
			for _, e := range seasonalInnovations(z, p[0], p[1]) {
				sum += e * e
			}
			// Keep the simplex inside the invertible region.
			for _, v := range p {
				if excess := math.Abs(v) - 0.999; excess > 0 {
					sum += 1e6 * excess * excess
				}
			}
			return sum
		},
	}

	result, err := optimize.Minimize(problem, []float64{0.5, 0.5}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, err
	}
	return result.X[0], result.X[1], nil
}

// seasonalInnovations runs the innovation recursion
// e[i] = z[i] - phi*z[i-1] - theta*e[i-12] with missing terms zero.
func seasonalInnovations(z []float64, phi, theta float64) []float64 {
	e := make([]float64, len(z))
	for i := range z {
		v := z[i]
		if i >= 1 {
			v -= phi * z[i-1]
		}
		if i >= 12 {
			v -= theta * e[i-12]
		}
		e[i] = v
	}
	return e
}

// SimulatePrice continues the fitted process for n synthetic years. The
// first simulated year is seeded from the historical tail and the burn-in
// years are dropped from the output.
func SimulatePrice(n int, m PriceModel, seed uint64, progress func(done, total int)) ([]model.SyntheticPrice, error) {
	if n <= 0 {
		return nil, fmt.Errorf("simulator: %d synthetic years requested", n)
	}
	if len(m.TailZ) != 12 || len(m.TailE) != 12 {
		return nil, fmt.Errorf("simulator: price model tail has %d/%d rows, want 12", len(m.TailZ), len(m.TailE))
	}

	total := (n + priceBurnYears) * 12
	z := make([]float64, total)
	e := make([]float64, total)
	copy(z, m.TailZ)
	copy(e, m.TailE)

	noise := distuv.Normal{Mu: 0, Sigma: m.InnovStd, Src: rand.NewSource(seed)}
	for i := 12; i < total; i++ {
		e[i] = noise.Rand()
		z[i] = m.Phi*z[i-1] + m.Theta*e[i-12] + e[i]
	}

	out := make([]model.SyntheticPrice, 0, n*12)
	for i := priceBurnYears * 12; i < total; i++ {
		year := i/12 - priceBurnYears + 1
		month := i%12 + 1
		logp := z[i]*m.MonthStd[month-1] + m.MonthMean[month-1]
		out = append(out, model.SyntheticPrice{
			WaterYear:  year,
			WaterMonth: month,
			Price:      math.Exp(logp),
		})
		if progress != nil && month == 12 {
			progress(year, n)
		}
	}
	return out, nil
}
