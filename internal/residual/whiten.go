// Package residual standardizes the per-month regression residuals and
// fits the autoregression that carries persistence between months.
// Whitening is per month, and melt-season months are split into an
// at-ceiling and a below-ceiling group before standardizing, since the
// clamp leaves the two groups with different spreads.
package residual

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"hydro_simulator/internal/model"
	"hydro_simulator/internal/regression"
)

// ceilingEps pads the at-limit test so float noise in a clamped
// prediction does not misfile it.
const ceilingEps = 1e-13

// ErrDegenerateGroup reports a residual group too small or too flat to
// standardize.
var ErrDegenerateGroup = errors.New("residual: degenerate group")

// Group identifies which standardization a residual belongs to.
type Group int

const (
	GroupWhole Group = iota
	GroupAtCeiling
	GroupBelowCeiling
)

func (g Group) String() string {
	switch g {
	case GroupAtCeiling:
		return "at_ceiling"
	case GroupBelowCeiling:
		return "below_ceiling"
	}
	return "whole"
}

// GroupStats is the historical mean and sample std of one residual group.
type GroupStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	N    int     `json:"n"`
}

// MonthWhitener standardizes one month's residuals. Split months
// classify by the predicted value against the fitted ceiling.
type MonthWhitener struct {
	Split   bool                 `json:"split"`
	Ceiling float64              `json:"ceiling,omitempty"`
	Stats   map[Group]GroupStats `json:"stats"`
}

// Classify picks the group for a predicted generation value.
func (w MonthWhitener) Classify(predicted float64) Group {
	if !w.Split {
		return GroupWhole
	}
	if predicted > w.Ceiling-ceilingEps {
		return GroupAtCeiling
	}
	return GroupBelowCeiling
}

// Whitener standardizes residuals for all twelve water months.
type Whitener struct {
	Months map[int]MonthWhitener `json:"months"`
}

// NewWhitener derives group statistics from the fitted month models.
// Only groups observed in the historical record get statistics; groups
// that would need at least two members or a nonzero spread fail here
// rather than at simulation time.
func NewWhitener(fits map[int]regression.MonthFit) (*Whitener, error) {
	months := make(map[int]MonthWhitener, len(fits))
	for month, fit := range fits {
		mw := MonthWhitener{
			Split:   fit.Model.Kind == regression.RegimeCeiling,
			Ceiling: fit.Model.Ceiling,
			Stats:   make(map[Group]GroupStats),
		}

		grouped := make(map[Group][]float64)
		for i, r := range fit.Residuals {
			g := mw.Classify(fit.Predicted[i])
			grouped[g] = append(grouped[g], r)
		}
		for g, resid := range grouped {
			if len(resid) < 2 {
				return nil, fmt.Errorf("%w: month %d group %s has %d residuals", ErrDegenerateGroup, month, g, len(resid))
			}
			std := stat.StdDev(resid, nil)
			if std == 0 {
				return nil, fmt.Errorf("%w: month %d group %s has zero spread", ErrDegenerateGroup, month, g)
			}
			mw.Stats[g] = GroupStats{Mean: stat.Mean(resid, nil), Std: std, N: len(resid)}
		}
		months[month] = mw
	}
	return &Whitener{Months: months}, nil
}

func (w *Whitener) stats(month int, predicted float64) (GroupStats, error) {
	mw, ok := w.Months[month]
	if !ok {
		return GroupStats{}, fmt.Errorf("residual: no whitener for month %d", month)
	}
	g := mw.Classify(predicted)
	s, ok := mw.Stats[g]
	if !ok {
		return GroupStats{}, fmt.Errorf("%w: month %d group %s never observed", ErrDegenerateGroup, month, g)
	}
	return s, nil
}

// Whiten standardizes a residual by its month and group statistics.
func (w *Whitener) Whiten(month int, predicted, residual float64) (float64, error) {
	s, err := w.stats(month, predicted)
	if err != nil {
		return 0, err
	}
	return (residual - s.Mean) / s.Std, nil
}

// Inverse maps a whitened residual back onto the month's historical
// scale, using the group the predicted value falls into.
func (w *Whitener) Inverse(month int, predicted, whitened float64) (float64, error) {
	s, err := w.stats(month, predicted)
	if err != nil {
		return 0, err
	}
	return whitened*s.Std + s.Mean, nil
}

// WhitenSeries whitens chronological generation rows into the series the
// autoregression is fit on.
func (w *Whitener) WhitenSeries(rows []model.GenerationMonth, fits map[int]regression.MonthFit) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, r := range rows {
		fit, ok := fits[r.WaterMonth]
		if !ok {
			return nil, fmt.Errorf("residual: no fit for month %d", r.WaterMonth)
		}
		predicted := fit.Model.Predict(r.FebSWE, r.AprSWE)
		wv, err := w.Whiten(r.WaterMonth, predicted, r.Total-predicted)
		if err != nil {
			return nil, fmt.Errorf("residual: year %d month %d: %w", r.WaterYear, r.WaterMonth, err)
		}
		out[i] = wv
	}
	return out, nil
}
