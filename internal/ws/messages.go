package ws

import (
	"encoding/json"
	"time"

	"hydro_simulator/internal/copula"
	"hydro_simulator/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeRunStart  = "run:start"
	TypeRunCancel = "run:cancel"

	// Server -> Client
	TypeSimState      = "sim:state"
	TypeRunStage      = "run:stage"
	TypeRunProgress   = "run:progress"
	TypeRunError      = "run:error"
	TypeSummaryUpdate = "summary:update"
	TypeCopulaCurves  = "copula:curves"
	TypeDataLoaded    = "data:loaded"
)

// Client -> Server messages

// RunStartPayload optionally overrides the sample count for the run it
// starts. Zero keeps the server's configured default.
type RunStartPayload struct {
	Samples int `json:"samples"`
}

// Server -> Client messages

type SimStatePayload struct {
	Stage   string `json:"stage"`
	Running bool   `json:"running"`
}

type StagePayload struct {
	Stage string `json:"stage"`
}

type ProgressPayload struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type SeriesRangeInfo struct {
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Rows      int    `json:"rows"`
	FirstYear int    `json:"first_year"`
	LastYear  int    `json:"last_year"`
}

type DataLoadedPayload struct {
	SWE        SeriesRangeInfo `json:"swe"`
	Generation SeriesRangeInfo `json:"generation"`
	Price      SeriesRangeInfo `json:"price"`
	Samples    int             `json:"samples"`
	Validate   bool            `json:"validate"`
}

type SWEFitPayload struct {
	FebShape float64 `json:"feb_shape"`
	FebScale float64 `json:"feb_scale"`
	AprShape float64 `json:"apr_shape"`
	AprScale float64 `json:"apr_scale"`
	Tau      float64 `json:"tau"`
	Rho      float64 `json:"rho"`
}

type MonthStatsPayload struct {
	Month     int     `json:"month"`
	HistMean  float64 `json:"hist_mean"`
	HistStd   float64 `json:"hist_std"`
	SynthMean float64 `json:"synth_mean"`
	SynthStd  float64 `json:"synth_std"`
}

type SummaryPayload struct {
	Samples               int                 `json:"samples"`
	ElapsedMS             float64             `json:"elapsed_ms"`
	SWE                   SWEFitPayload       `json:"swe"`
	TauHistorical         float64             `json:"tau_historical"`
	TauSynthetic          float64             `json:"tau_synthetic"`
	AnnualGenerationHist  float64             `json:"annual_generation_hist"`
	AnnualGenerationSynth float64             `json:"annual_generation_synth"`
	MeanPriceHist         float64             `json:"mean_price_hist"`
	MeanPriceSynth        float64             `json:"mean_price_synth"`
	Generation            []MonthStatsPayload `json:"generation"`
	Price                 []MonthStatsPayload `json:"price"`
}

type CurvePointPayload struct {
	Data             float64 `json:"data"`
	FittedMean       float64 `json:"fitted_mean"`
	FittedQ5         float64 `json:"fitted_q5"`
	FittedQ95        float64 `json:"fitted_q95"`
	IndependenceMean float64 `json:"independence_mean"`
	ComonotoneMean   float64 `json:"comonotone_mean"`
}

type CopulaCurvesPayload struct {
	N       int                 `json:"n"`
	Tau     float64             `json:"tau"`
	TauRank float64             `json:"tau_rank"`
	Curves  []CurvePointPayload `json:"curves"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SimStateFromEngine(s simulator.State) SimStatePayload {
	return SimStatePayload{
		Stage:   s.Stage,
		Running: s.Running,
	}
}

func ProgressFromEngine(p simulator.Progress) ProgressPayload {
	return ProgressPayload{
		Stage: p.Stage,
		Done:  p.Done,
		Total: p.Total,
	}
}

func SummaryFromEngine(s simulator.RunSummary) SummaryPayload {
	payload := SummaryPayload{
		Samples:   s.Samples,
		ElapsedMS: float64(s.Elapsed) / float64(time.Millisecond),
		SWE: SWEFitPayload{
			FebShape: s.SWE.Feb.Shape,
			FebScale: s.SWE.Feb.Scale,
			AprShape: s.SWE.Apr.Shape,
			AprScale: s.SWE.Apr.Scale,
			Tau:      s.SWE.Tau,
			Rho:      s.SWE.Rho,
		},
		TauHistorical:         s.TauHistorical,
		TauSynthetic:          s.TauSynthetic,
		AnnualGenerationHist:  s.AnnualGenerationHist,
		AnnualGenerationSynth: s.AnnualGenerationSynth,
		MeanPriceHist:         s.MeanPriceHist,
		MeanPriceSynth:        s.MeanPriceSynth,
	}
	for _, m := range s.Generation {
		payload.Generation = append(payload.Generation, monthStatsPayload(m))
	}
	for _, m := range s.Price {
		payload.Price = append(payload.Price, monthStatsPayload(m))
	}
	return payload
}

func monthStatsPayload(m simulator.MonthStats) MonthStatsPayload {
	return MonthStatsPayload{
		Month:     m.Month,
		HistMean:  m.HistMean,
		HistStd:   m.HistStd,
		SynthMean: m.SynthMean,
		SynthStd:  m.SynthStd,
	}
}

func CurvesFromValidation(v *copula.Validation) CopulaCurvesPayload {
	payload := CopulaCurvesPayload{
		N:       v.N,
		Tau:     v.Tau,
		TauRank: v.TauRank,
	}
	for _, c := range v.Curves {
		payload.Curves = append(payload.Curves, CurvePointPayload{
			Data:             c.Data,
			FittedMean:       c.FittedMean,
			FittedQ5:         c.FittedQ5,
			FittedQ95:        c.FittedQ95,
			IndependenceMean: c.IndependenceMean,
			ComonotoneMean:   c.ComonotoneMean,
		})
	}
	return payload
}
