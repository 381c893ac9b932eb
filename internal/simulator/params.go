package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hydro_simulator/internal/marginal"
	"hydro_simulator/internal/regression"
	"hydro_simulator/internal/residual"
)

// SWEParams is the fitted marginal-plus-copula description of the SWE
// record.
type SWEParams struct {
	Feb marginal.Gamma `json:"feb"`
	Apr marginal.Gamma `json:"apr"`
	Tau float64        `json:"tau"`
	Rho float64        `json:"rho"`
}

// Params is everything a simulation needs, detached from the historical
// rows so a fit can be saved once and reused across runs.
type Params struct {
	FittedAt time.Time `json:"fitted_at"`

	SWE      SWEParams                     `json:"swe"`
	Months   map[int]regression.MonthModel `json:"months"`
	Whitener residual.Whitener             `json:"whitener"`
	AR       residual.ARModel              `json:"ar"`
	Bounds   GenBounds                     `json:"generation_bounds"`
	Price    PriceModel                    `json:"price"`
}

// Save serializes the parameters as indented JSON.
func (p *Params) Save() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// LoadParams deserializes saved parameters and checks them for use.
func LoadParams(data []byte) (*Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("simulator: parse saved parameters: %w", err)
	}
	if err := p.Check(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Check verifies the parameter set is complete enough to simulate from.
func (p *Params) Check() error {
	if p == nil {
		return errors.New("simulator: nil parameters")
	}
	if p.SWE.Feb.Shape <= 0 || p.SWE.Feb.Scale <= 0 || p.SWE.Apr.Shape <= 0 || p.SWE.Apr.Scale <= 0 {
		return errors.New("simulator: SWE marginals not fitted")
	}
	if p.SWE.Rho <= -1 || p.SWE.Rho >= 1 {
		return fmt.Errorf("simulator: SWE correlation %v out of (-1, 1)", p.SWE.Rho)
	}
	for month := 1; month <= 12; month++ {
		if _, ok := p.Months[month]; !ok {
			return fmt.Errorf("simulator: no month model for month %d", month)
		}
		if _, ok := p.Whitener.Months[month]; !ok {
			return fmt.Errorf("simulator: no whitener for month %d", month)
		}
	}
	if p.AR.InnovStd < 0 {
		return errors.New("simulator: negative innovation std")
	}
	if p.Bounds.Min > p.Bounds.Max {
		return fmt.Errorf("simulator: generation bounds inverted: %v > %v", p.Bounds.Min, p.Bounds.Max)
	}
	if len(p.Price.TailZ) != 12 || len(p.Price.TailE) != 12 {
		return errors.New("simulator: price model tail incomplete")
	}
	for m := 0; m < 12; m++ {
		if p.Price.MonthStd[m] <= 0 {
			return fmt.Errorf("simulator: price month %d has nonpositive seasonal std", m+1)
		}
	}
	return nil
}
