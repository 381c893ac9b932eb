package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceParser_Parse(t *testing.T) {
	input := `water_year,water_month,price_usd_mwh
2011,6,36.43
2011,7,41.02
2011,8,39.75`

	parser := &PriceParser{}
	months, err := parser.Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, months, 3)

	assert.Equal(t, 2011, months[0].WaterYear)
	assert.Equal(t, 6, months[0].WaterMonth)
	assert.InDelta(t, 36.43, months[0].Price, 0.001)
	assert.InDelta(t, 39.75, months[2].Price, 0.001)
}

func TestPriceParser_InvalidHeader(t *testing.T) {
	input := `year,month,price
2011,6,36.43`

	parser := &PriceParser{}
	_, err := parser.Parse(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "water_year")
}

func TestPriceParser_NonPositivePrice(t *testing.T) {
	input := `water_year,water_month,price_usd_mwh
2011,6,0.0`

	parser := &PriceParser{}
	_, err := parser.Parse(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-positive price")
}

func TestPriceParser_MonthOutOfRange(t *testing.T) {
	input := `water_year,water_month,price_usd_mwh
2011,0,36.43`

	parser := &PriceParser{}
	_, err := parser.Parse(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestPriceParser_HeaderOnly(t *testing.T) {
	parser := &PriceParser{}
	_, err := parser.Parse(strings.NewReader("water_year,water_month,price_usd_mwh\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price months")
}
