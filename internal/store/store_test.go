package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydro_simulator/internal/model"
)

func makeGeneration(startYear int, totals []float64) []model.GenerationMonth {
	months := make([]model.GenerationMonth, len(totals))
	for i, v := range totals {
		months[i] = model.GenerationMonth{
			WaterYear:  startYear + i/12,
			WaterMonth: i%12 + 1,
			Total:      v,
			FebSWE:     20,
			AprSWE:     30,
		}
	}
	return months
}

func TestStore_AddSWE(t *testing.T) {
	s := New()
	s.AddSWE([]model.SWEObservation{
		{WaterYear: 1955, Feb: 9.1, Apr: 14.9},
		{WaterYear: 1953, Feb: 18.8, Apr: 29.7},
		{WaterYear: 1954, Feb: 12.4, Apr: 15.6},
	})

	assert.Equal(t, 3, s.SWECount())

	// Sorted by water year regardless of insertion order.
	obs := s.SWE()
	require.Len(t, obs, 3)
	assert.Equal(t, 1953, obs[0].WaterYear)
	assert.Equal(t, 1955, obs[2].WaterYear)

	feb, apr := s.SWEColumns()
	require.Len(t, feb, 3)
	assert.InDelta(t, 18.8, feb[0], 0.001)
	assert.InDelta(t, 14.9, apr[2], 0.001)

	yr, ok := s.SWEYears()
	require.True(t, ok)
	assert.Equal(t, 1953, yr.First)
	assert.Equal(t, 1955, yr.Last)
}

func TestStore_GenerationChronological(t *testing.T) {
	s := New()

	// Insert the second year first.
	months := makeGeneration(2011, []float64{100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210})
	later := makeGeneration(2012, []float64{105, 115, 125, 135, 145, 155, 165, 175, 185, 195, 205, 215})
	s.AddGeneration(later)
	s.AddGeneration(months)

	all := s.Generation()
	require.Len(t, all, 24)
	assert.Equal(t, 2011, all[0].WaterYear)
	assert.Equal(t, 1, all[0].WaterMonth)
	assert.Equal(t, 2012, all[23].WaterYear)
	assert.Equal(t, 12, all[23].WaterMonth)
}

func TestStore_GenerationByMonth(t *testing.T) {
	s := New()
	s.AddGeneration(makeGeneration(2011, []float64{100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210}))
	s.AddGeneration(makeGeneration(2012, []float64{105, 115, 125, 135, 145, 155, 165, 175, 185, 195, 205, 215}))

	rows := s.GenerationByMonth(3)
	require.Len(t, rows, 2)
	assert.InDelta(t, 120.0, rows[0].Total, 0.001)
	assert.InDelta(t, 125.0, rows[1].Total, 0.001)

	assert.Empty(t, s.GenerationByMonth(13))
}

func TestStore_GenerationForYear(t *testing.T) {
	s := New()
	s.AddGeneration(makeGeneration(2011, []float64{100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210}))
	s.AddGeneration(makeGeneration(2012, []float64{105, 115, 125, 135, 145, 155, 165, 175, 185, 195, 205, 215}))

	rows := s.GenerationForYear(2012)
	require.Len(t, rows, 12)
	assert.Equal(t, 1, rows[0].WaterMonth)
	assert.InDelta(t, 105.0, rows[0].Total, 0.001)
	assert.InDelta(t, 215.0, rows[11].Total, 0.001)

	assert.Empty(t, s.GenerationForYear(1999))
}

func TestStore_GenerationBounds(t *testing.T) {
	s := New()

	_, _, ok := s.GenerationBounds()
	assert.False(t, ok)

	s.AddGeneration(makeGeneration(2011, []float64{100, 35.2, 120, 130, 140, 150, 160, 170, 180, 190, 231.8, 210}))

	min, max, ok := s.GenerationBounds()
	require.True(t, ok)
	assert.InDelta(t, 35.2, min, 0.001)
	assert.InDelta(t, 231.8, max, 0.001)
}

func TestStore_PriceByMonth(t *testing.T) {
	s := New()
	s.AddPrice([]model.PriceMonth{
		{WaterYear: 2011, WaterMonth: 1, Price: 30.5},
		{WaterYear: 2012, WaterMonth: 1, Price: 28.1},
		{WaterYear: 2011, WaterMonth: 2, Price: 32.0},
	})

	rows := s.PriceByMonth(1)
	require.Len(t, rows, 2)
	assert.Equal(t, 2011, rows[0].WaterYear)
	assert.Equal(t, 2012, rows[1].WaterYear)
}

func TestStore_LastPriceMonths(t *testing.T) {
	s := New()

	var months []model.PriceMonth
	for y := 2010; y <= 2012; y++ {
		for m := 1; m <= 12; m++ {
			months = append(months, model.PriceMonth{WaterYear: y, WaterMonth: m, Price: float64(y-2000) + float64(m)})
		}
	}
	s.AddPrice(months)

	tail := s.LastPriceMonths(12)
	require.Len(t, tail, 12)
	assert.Equal(t, 2012, tail[0].WaterYear)
	assert.Equal(t, 1, tail[0].WaterMonth)
	assert.Equal(t, 12, tail[11].WaterMonth)

	// Asking for more than exists returns the full record.
	assert.Len(t, s.LastPriceMonths(100), 36)
	assert.Nil(t, s.LastPriceMonths(0))
}

func TestStore_YearRanges(t *testing.T) {
	s := New()

	_, ok := s.GenerationYears()
	assert.False(t, ok)
	_, ok = s.PriceYears()
	assert.False(t, ok)

	s.AddGeneration(makeGeneration(2011, []float64{100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210}))
	s.AddPrice([]model.PriceMonth{{WaterYear: 2011, WaterMonth: 1, Price: 30.5}})

	gy, ok := s.GenerationYears()
	require.True(t, ok)
	assert.Equal(t, 2011, gy.First)
	assert.Equal(t, 2011, gy.Last)

	py, ok := s.PriceYears()
	require.True(t, ok)
	assert.Equal(t, 2011, py.First)
}
