package store

import (
	"math"
	"sort"
	"sync"

	"hydro_simulator/internal/model"
)

// Store holds the historical record tables in memory. Generation and price
// rows are kept in chronological (water year, water month) order; the AR
// fits downstream assume contiguous monthly spacing, so order matters.
type Store struct {
	mu         sync.RWMutex
	swe        []model.SWEObservation
	generation []model.GenerationMonth
	price      []model.PriceMonth
}

func New() *Store {
	return &Store{}
}

// AddSWE adds SWE observations, then sorts by water year.
func (s *Store) AddSWE(obs []model.SWEObservation) {
	if len(obs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.swe = append(s.swe, obs...)
	sort.Slice(s.swe, func(i, j int) bool {
		return s.swe[i].WaterYear < s.swe[j].WaterYear
	})
}

// AddGeneration adds generation months, then sorts chronologically.
func (s *Store) AddGeneration(months []model.GenerationMonth) {
	if len(months) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation = append(s.generation, months...)
	sort.Slice(s.generation, func(i, j int) bool {
		return genKey(s.generation[i]) < genKey(s.generation[j])
	})
}

// AddPrice adds price months, then sorts chronologically.
func (s *Store) AddPrice(months []model.PriceMonth) {
	if len(months) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.price = append(s.price, months...)
	sort.Slice(s.price, func(i, j int) bool {
		return priceKey(s.price[i]) < priceKey(s.price[j])
	})
}

func genKey(m model.GenerationMonth) int { return m.WaterYear*12 + m.WaterMonth }

func priceKey(m model.PriceMonth) int { return m.WaterYear*12 + m.WaterMonth }

// SWE returns the SWE record in water-year order.
func (s *Store) SWE() []model.SWEObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]model.SWEObservation, len(s.swe))
	copy(cp, s.swe)
	return cp
}

// SWEColumns returns the Feb and Apr SWE samples as parallel slices.
func (s *Store) SWEColumns() (feb, apr []float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feb = make([]float64, len(s.swe))
	apr = make([]float64, len(s.swe))
	for i, o := range s.swe {
		feb[i] = o.Feb
		apr[i] = o.Apr
	}
	return feb, apr
}

// Generation returns the generation record in chronological order.
func (s *Store) Generation() []model.GenerationMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]model.GenerationMonth, len(s.generation))
	copy(cp, s.generation)
	return cp
}

// GenerationByMonth returns all rows for one water month, chronological.
func (s *Store) GenerationByMonth(waterMonth int) []model.GenerationMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []model.GenerationMonth
	for _, m := range s.generation {
		if m.WaterMonth == waterMonth {
			rows = append(rows, m)
		}
	}
	return rows
}

// GenerationForYear returns the rows of one water year, in month order.
func (s *Store) GenerationForYear(waterYear int) []model.GenerationMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo := sort.Search(len(s.generation), func(i int) bool {
		return genKey(s.generation[i]) >= waterYear*12+1
	})
	hi := sort.Search(len(s.generation), func(i int) bool {
		return genKey(s.generation[i]) > waterYear*12+12
	})

	if lo >= hi {
		return nil
	}

	rows := make([]model.GenerationMonth, hi-lo)
	copy(rows, s.generation[lo:hi])
	return rows
}

// GenerationBounds returns the min and max observed monthly generation.
func (s *Store) GenerationBounds() (min, max float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.generation) == 0 {
		return 0, 0, false
	}

	min = math.Inf(1)
	max = math.Inf(-1)
	for _, m := range s.generation {
		if m.Total < min {
			min = m.Total
		}
		if m.Total > max {
			max = m.Total
		}
	}
	return min, max, true
}

// Price returns the price record in chronological order.
func (s *Store) Price() []model.PriceMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]model.PriceMonth, len(s.price))
	copy(cp, s.price)
	return cp
}

// PriceByMonth returns all rows for one water month, chronological.
func (s *Store) PriceByMonth(waterMonth int) []model.PriceMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []model.PriceMonth
	for _, m := range s.price {
		if m.WaterMonth == waterMonth {
			rows = append(rows, m)
		}
	}
	return rows
}

// LastPriceMonths returns the final n rows of the price record, or fewer if
// the record is shorter.
func (s *Store) LastPriceMonths(n int) []model.PriceMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.price) {
		n = len(s.price)
	}
	if n <= 0 {
		return nil
	}

	cp := make([]model.PriceMonth, n)
	copy(cp, s.price[len(s.price)-n:])
	return cp
}

// SWECount returns the number of SWE observations.
func (s *Store) SWECount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.swe)
}

// GenerationCount returns the number of generation rows.
func (s *Store) GenerationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.generation)
}

// PriceCount returns the number of price rows.
func (s *Store) PriceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.price)
}

// SWEYears returns the span of water years covered by the SWE record.
func (s *Store) SWEYears() (model.YearRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.swe) == 0 {
		return model.YearRange{}, false
	}
	return model.YearRange{
		First: s.swe[0].WaterYear,
		Last:  s.swe[len(s.swe)-1].WaterYear,
	}, true
}

// GenerationYears returns the span of water years covered by the generation record.
func (s *Store) GenerationYears() (model.YearRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.generation) == 0 {
		return model.YearRange{}, false
	}
	return model.YearRange{
		First: s.generation[0].WaterYear,
		Last:  s.generation[len(s.generation)-1].WaterYear,
	}, true
}

// PriceYears returns the span of water years covered by the price record.
func (s *Store) PriceYears() (model.YearRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.price) == 0 {
		return model.YearRange{}, false
	}
	return model.YearRange{
		First: s.price[0].WaterYear,
		Last:  s.price[len(s.price)-1].WaterYear,
	}, true
}
