package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydro_simulator/internal/copula"
	"hydro_simulator/internal/model"
)

func TestReadSyntheticSWE(t *testing.T) {
	input := "sample,feb_swe_in,apr_swe_in\n1,10.25,14.5\n2,8,12.125\n"

	pairs, err := ReadSyntheticSWE(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []model.SWEPair{
		{Feb: 10.25, Apr: 14.5},
		{Feb: 8, Apr: 12.125},
	}, pairs)
}

func TestReadSyntheticGenerationRoundTrip(t *testing.T) {
	rows := []model.SyntheticGeneration{
		{WaterYear: 1, WaterMonth: 7, FebSWE: 10.5, AprSWE: 15.5, Predicted: 180, Generation: 178.25},
		{WaterYear: 1, WaterMonth: 8, FebSWE: 10.5, AprSWE: 15.5, Predicted: 175.5, Generation: 176},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSyntheticGeneration(&buf, rows))

	loaded, err := ReadSyntheticGeneration(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)
}

func TestReadSyntheticPrice(t *testing.T) {
	input := "water_year,water_month,price_usd_mwh\n0,1,42.75\n0,2,39.5\n"

	rows, err := ReadSyntheticPrice(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.SyntheticPrice{WaterYear: 0, WaterMonth: 1, Price: 42.75}, rows[0])
}

func TestReadSyntheticErrors(t *testing.T) {
	// Wrong header.
	_, err := ReadSyntheticSWE(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.Error(t, err)

	// Empty table.
	_, err = ReadSyntheticPrice(strings.NewReader("water_year,water_month,price_usd_mwh\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")

	// Month out of range.
	_, err = ReadSyntheticPrice(strings.NewReader("water_year,water_month,price_usd_mwh\n0,13,42\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	// Non-numeric field, reported with its line number.
	_, err = ReadSyntheticSWE(strings.NewReader("sample,feb_swe_in,apr_swe_in\n1,10,14\n2,x,12\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestWriteCopulaCurves(t *testing.T) {
	v := &copula.Validation{
		N: 2,
		Curves: []copula.CurvePoint{
			{Data: 0.25, FittedMean: 0.3, FittedQ5: 0.1, FittedQ95: 0.5, IndependenceMean: 0.2, ComonotoneMean: 0.45},
			{Data: 0.75, FittedMean: 0.7, FittedQ5: 0.55, FittedQ95: 0.9, IndependenceMean: 0.5, ComonotoneMean: 0.85},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCopulaCurves(&buf, v))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "order_stat,fitted_mean,fitted_q5,fitted_q95,data,independent_mean,comonotone_mean", lines[0])
	assert.Equal(t, "1,0.3,0.1,0.5,0.25,0.2,0.45", lines[1])
	assert.Equal(t, "2,0.7,0.55,0.9,0.75,0.5,0.85", lines[2])
}
