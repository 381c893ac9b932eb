package model

type SeriesKind string

const (
	SeriesSWE        SeriesKind = "swe"
	SeriesGeneration SeriesKind = "generation"
	SeriesPrice      SeriesKind = "price"
)

// SeriesInfo holds display name and unit for a series kind.
type SeriesInfo struct {
	Name string
	Unit string
}

// SeriesCatalog maps every known SeriesKind to its display name and unit.
var SeriesCatalog = map[SeriesKind]SeriesInfo{
	SeriesSWE:        {Name: "Snow Water Equivalent", Unit: "in"},
	SeriesGeneration: {Name: "Hydropower Generation", Unit: "GWh/month"},
	SeriesPrice:      {Name: "Wholesale Power Price", Unit: "$/MWh"},
}

// SWEObservation is one water year's paired snow measurements:
// snow water equivalent on Feb 1 and Apr 1, in inches.
type SWEObservation struct {
	WaterYear int
	Feb       float64
	Apr       float64
}

// SWEPair is a (Feb, Apr) SWE pair without a year attached; synthetic
// draws are identified by position, not calendar year.
type SWEPair struct {
	Feb float64
	Apr float64
}

// GenerationMonth is one historical month of hydropower output together
// with the snow predictors valid for its water year.
type GenerationMonth struct {
	WaterYear  int
	WaterMonth int // 1 (Oct) .. 12 (Sep)
	Total      float64
	FebSWE     float64
	AprSWE     float64
}

// PriceMonth is one historical month's mean wholesale price.
type PriceMonth struct {
	WaterYear  int
	WaterMonth int
	Price      float64
}

// SyntheticGeneration is one simulated month of the generation table.
type SyntheticGeneration struct {
	WaterYear  int
	WaterMonth int
	FebSWE     float64
	AprSWE     float64
	Predicted  float64
	Generation float64
}

// SyntheticPrice is one simulated month of the price table.
type SyntheticPrice struct {
	WaterYear  int
	WaterMonth int
	Price      float64
}

// YearRange is an inclusive span of water years.
type YearRange struct {
	First int
	Last  int
}

var waterMonthNames = [12]string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep"}

// WaterMonthName returns the short month name for water month m (1=Oct .. 12=Sep),
// or "" if m is out of range.
func WaterMonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return waterMonthNames[m-1]
}

// CalendarMonth converts a water month (1=Oct) to a calendar month (1=Jan).
func CalendarMonth(waterMonth int) int {
	return (waterMonth+8)%12 + 1
}

// WaterMonth converts a calendar month (1=Jan) to a water month (1=Oct).
func WaterMonth(calendarMonth int) int {
	return (calendarMonth+2)%12 + 1
}
