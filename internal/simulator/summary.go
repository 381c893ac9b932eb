package simulator

import (
	"math"
	"time"

	"hydro_simulator/internal/copula"
	"hydro_simulator/internal/store"
)

// tauSubsample caps the pairs used for the synthetic tau check so the
// summary stays cheap at a million samples.
const tauSubsample = 20000

// MonthStats compares one month's historical and synthetic spread.
type MonthStats struct {
	Month     int     `json:"month"`
	HistMean  float64 `json:"hist_mean"`
	HistStd   float64 `json:"hist_std"`
	SynthMean float64 `json:"synth_mean"`
	SynthStd  float64 `json:"synth_std"`
}

// RunSummary condenses a run for logs and stream clients. Annual
// generation figures are means of per-year totals; price figures are
// overall monthly means.
type RunSummary struct {
	Samples       int           `json:"samples"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	SWE           SWEParams     `json:"swe"`
	TauHistorical float64       `json:"tau_historical"`
	TauSynthetic  float64       `json:"tau_synthetic"`
	Generation    []MonthStats  `json:"generation"`
	Price         []MonthStats  `json:"price"`

	AnnualGenerationHist  float64 `json:"annual_generation_hist"`
	AnnualGenerationSynth float64 `json:"annual_generation_synth"`
	MeanPriceHist         float64 `json:"mean_price_hist"`
	MeanPriceSynth        float64 `json:"mean_price_synth"`
}

// accum tracks running moments without keeping the rows.
type accum struct {
	n          int
	sum, sumSq float64
}

func (a *accum) add(v float64) {
	a.n++
	a.sum += v
	a.sumSq += v * v
}

func (a *accum) mean() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

func (a *accum) std() float64 {
	if a.n < 2 {
		return 0
	}
	m := a.mean()
	v := (a.sumSq - float64(a.n)*m*m) / float64(a.n-1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// Summarize compares one run's synthetic tables against the historical
// record it was fitted on.
func Summarize(s *store.Store, result *Result, elapsed time.Duration) RunSummary {
	summary := RunSummary{
		Samples: len(result.SWE),
		Elapsed: elapsed,
	}
	if result.Params != nil {
		summary.SWE = result.Params.SWE
	}

	febHist, aprHist := s.SWEColumns()
	if len(febHist) > 1 {
		summary.TauHistorical = copula.KendallTau(febHist, aprHist)
	}

	nTau := len(result.SWE)
	if nTau > tauSubsample {
		nTau = tauSubsample
	}
	if nTau > 1 {
		feb := make([]float64, nTau)
		apr := make([]float64, nTau)
		for i := 0; i < nTau; i++ {
			feb[i] = result.SWE[i].Feb
			apr[i] = result.SWE[i].Apr
		}
		summary.TauSynthetic = copula.KendallTau(feb, apr)
	}

	var genSynth, priceSynth [12]accum
	var annualSynth, priceSynthAll accum
	yearSum := 0.0
	for i, r := range result.Generation {
		genSynth[r.WaterMonth-1].add(r.Generation)
		yearSum += r.Generation
		if (i+1)%12 == 0 {
			annualSynth.add(yearSum)
			yearSum = 0
		}
	}
	for _, r := range result.Price {
		priceSynth[r.WaterMonth-1].add(r.Price)
		priceSynthAll.add(r.Price)
	}

	var annualHist, priceHistAll accum
	yearTotals := make(map[int]float64)
	for _, r := range s.Generation() {
		yearTotals[r.WaterYear] += r.Total
	}
	for _, total := range yearTotals {
		annualHist.add(total)
	}
	for _, r := range s.Price() {
		priceHistAll.add(r.Price)
	}
	summary.AnnualGenerationHist = annualHist.mean()
	summary.AnnualGenerationSynth = annualSynth.mean()
	summary.MeanPriceHist = priceHistAll.mean()
	summary.MeanPriceSynth = priceSynthAll.mean()

	for month := 1; month <= 12; month++ {
		var genHist, priceHist accum
		for _, r := range s.GenerationByMonth(month) {
			genHist.add(r.Total)
		}
		for _, r := range s.PriceByMonth(month) {
			priceHist.add(r.Price)
		}

		summary.Generation = append(summary.Generation, MonthStats{
			Month:     month,
			HistMean:  genHist.mean(),
			HistStd:   genHist.std(),
			SynthMean: genSynth[month-1].mean(),
			SynthStd:  genSynth[month-1].std(),
		})
		summary.Price = append(summary.Price, MonthStats{
			Month:     month,
			HistMean:  priceHist.mean(),
			HistStd:   priceHist.std(),
			SynthMean: priceSynth[month-1].mean(),
			SynthStd:  priceSynth[month-1].std(),
		})
	}
	return summary
}
