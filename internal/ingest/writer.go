package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"hydro_simulator/internal/copula"
	"hydro_simulator/internal/model"
)

var (
	syntheticSWEHeader        = []string{"sample", "feb_swe_in", "apr_swe_in"}
	syntheticGenerationHeader = []string{"water_year", "water_month", "feb_swe_in", "apr_swe_in", "generation_pred_gwh", "generation_gwh"}
	syntheticPriceHeader      = []string{"water_year", "water_month", "price_usd_mwh"}
	copulaCurvesHeader        = []string{"order_stat", "fitted_mean", "fitted_q5", "fitted_q95", "data", "independent_mean", "comonotone_mean"}
)

// WriteSyntheticSWE writes sampled SWE pairs as CSV, numbering samples
// from 1.
func WriteSyntheticSWE(w io.Writer, pairs []model.SWEPair) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(syntheticSWEHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, p := range pairs {
		rec := []string{strconv.Itoa(i + 1), formatFloat(p.Feb), formatFloat(p.Apr)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSyntheticGeneration writes simulated monthly generation as CSV.
func WriteSyntheticGeneration(w io.Writer, rows []model.SyntheticGeneration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(syntheticGenerationHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		rec := []string{
			strconv.Itoa(r.WaterYear),
			strconv.Itoa(r.WaterMonth),
			formatFloat(r.FebSWE),
			formatFloat(r.AprSWE),
			formatFloat(r.Predicted),
			formatFloat(r.Generation),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSyntheticPrice writes simulated monthly prices as CSV.
func WriteSyntheticPrice(w io.Writer, rows []model.SyntheticPrice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(syntheticPriceHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		rec := []string{
			strconv.Itoa(r.WaterYear),
			strconv.Itoa(r.WaterMonth),
			formatFloat(r.Price),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCopulaCurves writes the validation curve table, one row per order
// statistic, for plotting by an external consumer.
func WriteCopulaCurves(w io.Writer, v *copula.Validation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(copulaCurvesHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, c := range v.Curves {
		rec := []string{
			strconv.Itoa(i + 1),
			formatFloat(c.FittedMean),
			formatFloat(c.FittedQ5),
			formatFloat(c.FittedQ95),
			formatFloat(c.Data),
			formatFloat(c.IndependenceMean),
			formatFloat(c.ComonotoneMean),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat keeps full round-trip precision without trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
