package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationParser_Parse(t *testing.T) {
	input := `water_year,water_month,generation_gwh,feb_swe_in,apr_swe_in
2011,6,198.2,31.2,44.8
2011,7,224.5,31.2,44.8
2011,8,203.9,31.2,44.8`

	parser := &GenerationParser{}
	months, err := parser.Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, months, 3)

	assert.Equal(t, 2011, months[0].WaterYear)
	assert.Equal(t, 6, months[0].WaterMonth)
	assert.InDelta(t, 198.2, months[0].Total, 0.001)
	assert.InDelta(t, 31.2, months[0].FebSWE, 0.001)
	assert.InDelta(t, 44.8, months[0].AprSWE, 0.001)

	assert.Equal(t, 8, months[2].WaterMonth)
	assert.InDelta(t, 203.9, months[2].Total, 0.001)
}

func TestGenerationParser_InvalidHeader(t *testing.T) {
	input := `wyr,wmnth,tot,sweFeb,sweApr
2011,6,198.2,31.2,44.8`

	parser := &GenerationParser{}
	_, err := parser.Parse(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "water_year")
}

func TestGenerationParser_MonthOutOfRange(t *testing.T) {
	input := `water_year,water_month,generation_gwh,feb_swe_in,apr_swe_in
2011,13,198.2,31.2,44.8`

	parser := &GenerationParser{}
	_, err := parser.Parse(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestGenerationParser_NegativeGeneration(t *testing.T) {
	input := `water_year,water_month,generation_gwh,feb_swe_in,apr_swe_in
2011,6,-5.0,31.2,44.8`

	parser := &GenerationParser{}
	_, err := parser.Parse(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative generation")
}

func TestGenerationParser_HeaderOnly(t *testing.T) {
	input := "water_year,water_month,generation_gwh,feb_swe_in,apr_swe_in\n"

	parser := &GenerationParser{}
	_, err := parser.Parse(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generation months")
}
