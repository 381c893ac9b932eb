package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hydro_simulator/internal/copula"
	"hydro_simulator/internal/marginal"
	"hydro_simulator/internal/model"
	"hydro_simulator/internal/regression"
	"hydro_simulator/internal/residual"
	"hydro_simulator/internal/store"
)

// Pipeline stages in execution order.
const (
	StageFitSWE        = "fit_swe"
	StageFitGeneration = "fit_generation"
	StageFitPrice      = "fit_price"
	StageSWE           = "simulate_swe"
	StageGeneration    = "simulate_generation"
	StagePrice         = "simulate_price"
	StageValidate      = "validate_copula"
)

// Options configure a pipeline run.
type Options struct {
	Samples          int
	SWESeed          uint64
	GenerationSeed   uint64
	PriceSeed        uint64
	Validate         bool
	CopulaReplicates int
}

// State reports what the engine is currently doing.
type State struct {
	Stage   string `json:"stage"`
	Running bool   `json:"running"`
}

// Progress is emitted as a simulation stage advances.
type Progress struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// Callback receives pipeline events.
type Callback interface {
	OnStage(stage string)
	OnProgress(p Progress)
	OnSummary(s RunSummary)
}

// Result carries everything one run produces.
type Result struct {
	Params     *Params
	SWE        []model.SWEPair
	Generation []model.SyntheticGeneration
	Price      []model.SyntheticPrice
	Validation *copula.Validation
	Summary    RunSummary
}

// Engine fits the pipeline on a historical store and simulates from the
// fit. Each stage draws from its own seeded source, so the three
// synthetic tables are reproducible independently of each other.
type Engine struct {
	mu       sync.Mutex
	store    *store.Store
	opts     Options
	callback Callback

	stage   string
	running bool
}

func New(s *store.Store, opts Options, cb Callback) *Engine {
	return &Engine{store: s, opts: opts, callback: cb}
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Stage: e.stage, Running: e.running}
}

// Options returns the options the next run will use.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetSamples changes how many synthetic years the next run draws. It is
// ignored while a run is in progress or when n is not positive.
func (e *Engine) SetSamples(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || n <= 0 {
		return
	}
	e.opts.Samples = n
}

// Run fits every model on the store and simulates the synthetic tables.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	params, err := e.Fit(ctx)
	if err != nil {
		return nil, err
	}
	return e.Simulate(ctx, params)
}

// Fit estimates all pipeline parameters from the historical record.
func (e *Engine) Fit(ctx context.Context) (*Params, error) {
	e.setRunning(true)
	defer e.setRunning(false)

	params := &Params{FittedAt: time.Now().UTC()}

	if err := e.enterStage(ctx, StageFitSWE); err != nil {
		return nil, err
	}
	if err := e.fitSWE(params); err != nil {
		return nil, err
	}

	if err := e.enterStage(ctx, StageFitGeneration); err != nil {
		return nil, err
	}
	if err := e.fitGeneration(params); err != nil {
		return nil, err
	}

	if err := e.enterStage(ctx, StageFitPrice); err != nil {
		return nil, err
	}
	price, err := FitPrice(e.store.Price())
	if err != nil {
		return nil, err
	}
	params.Price = price

	return params, nil
}

// Simulate draws the synthetic tables from previously fitted parameters.
func (e *Engine) Simulate(ctx context.Context, params *Params) (*Result, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}
	opts := e.Options()
	if opts.Samples <= 0 {
		return nil, fmt.Errorf("simulator: %d samples requested", opts.Samples)
	}
	e.setRunning(true)
	defer e.setRunning(false)

	started := time.Now()
	n := opts.Samples
	result := &Result{Params: params}

	if err := e.enterStage(ctx, StageSWE); err != nil {
		return nil, err
	}
	sampler, err := copula.NewSampler(params.SWE.Feb, params.SWE.Apr, params.SWE.Tau, opts.SWESeed)
	if err != nil {
		return nil, err
	}
	result.SWE = make([]model.SWEPair, 0, n)
	chunk := stepFor(n)
	for len(result.SWE) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remain := n - len(result.SWE)
		if remain > chunk {
			remain = chunk
		}
		result.SWE = append(result.SWE, sampler.Draw(remain)...)
		e.emitProgress(StageSWE, len(result.SWE), n)
	}

	if err := e.enterStage(ctx, StageGeneration); err != nil {
		return nil, err
	}
	result.Generation, err = SimulateGeneration(result.SWE, GenerationInputs{
		Models:   params.Months,
		Whitener: &params.Whitener,
		AR:       params.AR,
		Bounds:   params.Bounds,
	}, opts.GenerationSeed, e.throttled(StageGeneration, n))
	if err != nil {
		return nil, err
	}

	if err := e.enterStage(ctx, StagePrice); err != nil {
		return nil, err
	}
	result.Price, err = SimulatePrice(n, params.Price, opts.PriceSeed, e.throttled(StagePrice, n))
	if err != nil {
		return nil, err
	}

	if opts.Validate {
		if err := e.enterStage(ctx, StageValidate); err != nil {
			return nil, err
		}
		feb, apr := e.store.SWEColumns()
		validator := &copula.Validator{Replicates: opts.CopulaReplicates, Seed: opts.SWESeed}
		result.Validation, err = validator.Validate(feb, apr, params.SWE.Rho)
		if err != nil {
			return nil, err
		}
	}

	result.Summary = Summarize(e.store, result, time.Since(started))
	if e.callback != nil {
		e.callback.OnSummary(result.Summary)
	}
	return result, nil
}

func (e *Engine) fitSWE(params *Params) error {
	feb, apr := e.store.SWEColumns()
	if len(feb) < 3 {
		return fmt.Errorf("simulator: %d SWE years, need at least 3", len(feb))
	}

	var err error
	if params.SWE.Feb, err = marginal.FitGamma(feb); err != nil {
		return fmt.Errorf("simulator: February SWE: %w", err)
	}
	if params.SWE.Apr, err = marginal.FitGamma(apr); err != nil {
		return fmt.Errorf("simulator: April SWE: %w", err)
	}

	params.SWE.Tau = copula.KendallTau(feb, apr)
	params.SWE.Rho = copula.NormalEquivalent(params.SWE.Tau)
	if params.SWE.Rho <= -1 || params.SWE.Rho >= 1 {
		return fmt.Errorf("simulator: SWE record is perfectly dependent (tau %v)", params.SWE.Tau)
	}
	return nil
}

func (e *Engine) fitGeneration(params *Params) error {
	rows := e.store.Generation()
	if err := checkMonthlyCycle(rows); err != nil {
		return err
	}

	fits, err := regression.FitAllMonths(rows)
	if err != nil {
		return err
	}
	params.Months = make(map[int]regression.MonthModel, len(fits))
	for month, fit := range fits {
		params.Months[month] = fit.Model
	}

	whitener, err := residual.NewWhitener(fits)
	if err != nil {
		return err
	}
	params.Whitener = *whitener

	series, err := whitener.WhitenSeries(rows, fits)
	if err != nil {
		return err
	}
	params.AR, err = residual.FitAR(series)
	if err != nil {
		return err
	}

	min, max, ok := e.store.GenerationBounds()
	if !ok {
		return errors.New("simulator: no generation record to bound the simulation")
	}
	params.Bounds = GenBounds{Min: min, Max: max}
	return nil
}

// checkMonthlyCycle verifies the record runs October through September
// without gaps. The lag-3 recursion reads across year boundaries, so a
// missing month would silently couple the wrong rows.
func checkMonthlyCycle(rows []model.GenerationMonth) error {
	if len(rows) == 0 {
		return errors.New("simulator: empty generation record")
	}
	if len(rows)%12 != 0 {
		return fmt.Errorf("simulator: %d generation rows do not cover whole water years", len(rows))
	}
	for i, r := range rows {
		if r.WaterMonth != i%12+1 {
			return fmt.Errorf("simulator: generation record breaks the monthly cycle at year %d month %d", r.WaterYear, r.WaterMonth)
		}
	}
	return nil
}

func (e *Engine) enterStage(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	e.stage = stage
	e.mu.Unlock()
	if e.callback != nil {
		e.callback.OnStage(stage)
	}
	return nil
}

func (e *Engine) setRunning(running bool) {
	e.mu.Lock()
	e.running = running
	if !running {
		e.stage = ""
	}
	e.mu.Unlock()
}

func (e *Engine) emitProgress(stage string, done, total int) {
	if e.callback == nil {
		return
	}
	e.callback.OnProgress(Progress{Stage: stage, Done: done, Total: total})
}

// throttled wraps progress reporting so a million-year run does not
// flood the callback: one report per five percent, plus the final one.
func (e *Engine) throttled(stage string, total int) func(done, total int) {
	step := stepFor(total)
	return func(done, t int) {
		if done%step == 0 || done == t {
			e.emitProgress(stage, done, t)
		}
	}
}

func stepFor(total int) int {
	step := total / 20
	if step < 1 {
		step = 1
	}
	return step
}
