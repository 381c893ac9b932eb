// Package simulator runs the Monte Carlo stages: correlated SWE draws,
// monthly generation built from the regression and autoregression fits,
// and the seasonal price process. The engine wires the stages together
// over a historical store.
package simulator

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"hydro_simulator/internal/model"
	"hydro_simulator/internal/regression"
	"hydro_simulator/internal/residual"
)

// GenBounds clips simulated generation to the historical range so a
// deep residual draw cannot push a month outside anything ever observed.
type GenBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// GenerationInputs bundles the fitted pieces the generation stage needs.
type GenerationInputs struct {
	Models   map[int]regression.MonthModel
	Whitener *residual.Whitener
	AR       residual.ARModel
	Bounds   GenBounds
}

// SimulateGeneration produces twelve monthly rows per SWE pair. The
// whitened residual chain runs one warmup year before the first output
// row so the lag-3 recursion starts from its stationary behavior rather
// than from the initial draws.
func SimulateGeneration(pairs []model.SWEPair, in GenerationInputs, seed uint64, progress func(done, total int)) ([]model.SyntheticGeneration, error) {
	if len(pairs) == 0 {
		return nil, errors.New("simulator: no SWE pairs to simulate from")
	}
	for month := 1; month <= 12; month++ {
		if _, ok := in.Models[month]; !ok {
			return nil, fmt.Errorf("simulator: no generation model for month %d", month)
		}
	}
	if in.Whitener == nil {
		return nil, errors.New("simulator: nil whitener")
	}
	if in.Bounds.Min > in.Bounds.Max {
		return nil, fmt.Errorf("simulator: bounds inverted: %v > %v", in.Bounds.Min, in.Bounds.Max)
	}

	n := len(pairs)
	total := (n + 1) * 12
	noise := distuv.Normal{Mu: 0, Sigma: in.AR.InnovStd, Src: rand.NewSource(seed)}

	// All innovations are drawn before the three chain seeds, so the
	// stream consumed per run depends only on n.
	innov := make([]float64, total)
	for i := range innov {
		innov[i] = noise.Rand()
	}
	whitened := make([]float64, total)
	for i := 0; i < 3; i++ {
		whitened[i] = noise.Rand()
	}
	for i := 3; i < total; i++ {
		whitened[i] = in.AR.Phi1*whitened[i-1] + in.AR.Phi3*whitened[i-3] + innov[i]
	}

	out := make([]model.SyntheticGeneration, 0, n*12)
	for i := 12; i < total; i++ {
		year := i/12 - 1
		month := i%12 + 1
		pair := pairs[year]

		predicted := in.Models[month].Predict(pair.Feb, pair.Apr)
		resid, err := in.Whitener.Inverse(month, predicted, whitened[i])
		if err != nil {
			return nil, fmt.Errorf("simulator: year %d month %d: %w", year+1, month, err)
		}

		gen := predicted + resid
		if gen < in.Bounds.Min {
			gen = in.Bounds.Min
		} else if gen > in.Bounds.Max {
			gen = in.Bounds.Max
		}

		out = append(out, model.SyntheticGeneration{
			WaterYear:  year + 1,
			WaterMonth: month,
			FebSWE:     pair.Feb,
			AprSWE:     pair.Apr,
			Predicted:  predicted,
			Generation: gen,
		})
		if progress != nil && month == 12 {
			progress(year+1, n)
		}
	}
	return out, nil
}
