// simulate runs the scenario pipeline end to end: fit the hydrology
// models on the historical record, draw the synthetic SWE, generation
// and price tables, validate the copula fit, and persist whatever the
// persist switches ask for.
//
// Usage:
//
//	simulate
//	simulate -samples 10000 -out-dir out
//	simulate -params out/params.json
//
// Environment variables under the HYDROSIM prefix set the defaults for
// every flag, including the per-stage recompute and persist switches.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"hydro_simulator/internal/config"
	"hydro_simulator/internal/copula"
	"hydro_simulator/internal/ingest"
	"hydro_simulator/internal/model"
	"hydro_simulator/internal/regression"
	"hydro_simulator/internal/simulator"
	"hydro_simulator/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	dataDir := flag.String("data-dir", cfg.DataDir, "directory containing the historical CSV files")
	outDir := flag.String("out-dir", cfg.OutDir, "directory for synthetic tables and the fitted parameters")
	samples := flag.Int("samples", cfg.Samples, "number of synthetic water years")
	paramsFile := flag.String("params", cfg.ParamsFile, "saved fit to reuse instead of refitting")
	validate := flag.Bool("validate", cfg.Validate, "run the empirical copula validation")
	flag.Parse()

	cfg.DataDir = *dataDir
	cfg.OutDir = *outDir
	cfg.Samples = *samples
	cfg.ParamsFile = *paramsFile
	cfg.Validate = *validate

	if err := run(cfg); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
}

func run(cfg config.Config) error {
	started := time.Now()

	st, err := loadStore(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.OutDir, err)
	}

	params, err := fitOrLoad(cfg, st)
	if err != nil {
		return err
	}
	printFit(params)

	result := &simulator.Result{Params: params}

	// Synthetic SWE pairs drive both downstream stages, so their count
	// wins over the configured sample count when a cached table loads.
	if cfg.RecomputeSWE {
		log.Printf("Drawing %d SWE pairs...", cfg.Samples)
		sampler, err := copula.NewSampler(params.SWE.Feb, params.SWE.Apr, params.SWE.Tau, cfg.SWESeed)
		if err != nil {
			return err
		}
		result.SWE = sampler.Draw(cfg.Samples)
	} else {
		if result.SWE, err = loadSyntheticSWE(cfg.SyntheticSWEPath()); err != nil {
			return err
		}
		if len(result.SWE) != cfg.Samples {
			log.Printf("Cached SWE table has %d pairs, overriding the configured %d samples", len(result.SWE), cfg.Samples)
		}
	}
	if cfg.PersistSWE {
		if err := writeCSV(cfg.SyntheticSWEPath(), func(w io.Writer) error {
			return ingest.WriteSyntheticSWE(w, result.SWE)
		}); err != nil {
			return err
		}
	}
	n := len(result.SWE)

	if cfg.RecomputeGeneration {
		log.Printf("Simulating %d years of generation...", n)
		result.Generation, err = simulator.SimulateGeneration(result.SWE, simulator.GenerationInputs{
			Models:   params.Months,
			Whitener: &params.Whitener,
			AR:       params.AR,
			Bounds:   params.Bounds,
		}, cfg.GenerationSeed, progressLogger("generation", n))
		if err != nil {
			return err
		}
	} else {
		if result.Generation, err = loadSyntheticGeneration(cfg.SyntheticGenerationPath()); err != nil {
			return err
		}
	}
	if cfg.PersistGeneration {
		if err := writeCSV(cfg.SyntheticGenerationPath(), func(w io.Writer) error {
			return ingest.WriteSyntheticGeneration(w, result.Generation)
		}); err != nil {
			return err
		}
	}

	if cfg.RecomputePrice {
		log.Printf("Simulating %d years of prices...", n)
		result.Price, err = simulator.SimulatePrice(n, params.Price, cfg.PriceSeed, progressLogger("price", n))
		if err != nil {
			return err
		}
	} else {
		if result.Price, err = loadSyntheticPrice(cfg.SyntheticPricePath()); err != nil {
			return err
		}
	}
	if cfg.PersistPrice {
		if err := writeCSV(cfg.SyntheticPricePath(), func(w io.Writer) error {
			return ingest.WriteSyntheticPrice(w, result.Price)
		}); err != nil {
			return err
		}
	}

	if cfg.Validate {
		log.Printf("Validating copula fit with %d replicates...", cfg.CopulaReplicates)
		feb, apr := st.SWEColumns()
		validator := &copula.Validator{Replicates: cfg.CopulaReplicates, Seed: cfg.SWESeed}
		result.Validation, err = validator.Validate(feb, apr, params.SWE.Rho)
		if err != nil {
			return err
		}
		if err := writeCSV(cfg.CopulaCurvesPath(), func(w io.Writer) error {
			return ingest.WriteCopulaCurves(w, result.Validation)
		}); err != nil {
			return err
		}
		log.Printf("Wrote %d curve rows to %s", len(result.Validation.Curves), cfg.CopulaCurvesPath())
	}

	printSummary(simulator.Summarize(st, result, time.Since(started)))
	return nil
}

// fitOrLoad refits on the historical record, or reuses a saved fit when
// one was named. A fresh fit is always saved next to the outputs.
func fitOrLoad(cfg config.Config, st *store.Store) (*simulator.Params, error) {
	if cfg.ParamsFile != "" {
		data, err := os.ReadFile(cfg.ParamsFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", cfg.ParamsFile, err)
		}
		params, err := simulator.LoadParams(data)
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded parameters from %s (fitted at %s)", cfg.ParamsFile, params.FittedAt.Format(time.RFC3339))
		return params, nil
	}

	log.Printf("Fitting pipeline on the historical record...")
	engine := simulator.New(st, simulator.Options{Samples: cfg.Samples}, nil)
	params, err := engine.Fit(context.Background())
	if err != nil {
		return nil, err
	}

	data, err := params.Save()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(cfg.ParamsPath(), data, 0o644); err != nil {
		return nil, fmt.Errorf("saving parameters: %w", err)
	}
	log.Printf("Saved parameters to %s", cfg.ParamsPath())
	return params, nil
}

// loadStore reads the three historical tables under cfg.DataDir.
func loadStore(cfg config.Config) (*store.Store, error) {
	st := store.New()

	obs, err := parseFile(cfg.SWEPath(), (&ingest.SWEParser{}).Parse)
	if err != nil {
		return nil, err
	}
	st.AddSWE(obs)
	log.Printf("Loaded %d SWE years from %s", len(obs), cfg.SWEPath())

	gen, err := parseFile(cfg.GenerationPath(), (&ingest.GenerationParser{}).Parse)
	if err != nil {
		return nil, err
	}
	st.AddGeneration(gen)
	log.Printf("Loaded %d generation months from %s", len(gen), cfg.GenerationPath())

	price, err := parseFile(cfg.PricePath(), (&ingest.PriceParser{}).Parse)
	if err != nil {
		return nil, err
	}
	st.AddPrice(price)
	log.Printf("Loaded %d price months from %s", len(price), cfg.PricePath())

	return st, nil
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

func loadSyntheticSWE(path string) ([]model.SWEPair, error) {
	log.Printf("Loading cached SWE table from %s", path)
	return parseFile(path, ingest.ReadSyntheticSWE)
}

func loadSyntheticGeneration(path string) ([]model.SyntheticGeneration, error) {
	log.Printf("Loading cached generation table from %s", path)
	return parseFile(path, ingest.ReadSyntheticGeneration)
}

func loadSyntheticPrice(path string) ([]model.SyntheticPrice, error) {
	log.Printf("Loading cached price table from %s", path)
	return parseFile(path, ingest.ReadSyntheticPrice)
}

func writeCSV(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("Wrote %s", path)
	return nil
}

// progressLogger reports a long simulation stage every ten percent.
func progressLogger(stage string, total int) func(done, total int) {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return func(done, t int) {
		if done%step == 0 || done == t {
			log.Printf("  %s: %d%% (%d/%d years)", stage, done*100/t, done, t)
		}
	}
}

func printFit(p *simulator.Params) {
	fmt.Println()
	fmt.Println("=== Fitted Parameters ===")
	fmt.Printf("  Feb SWE: gamma(shape %.3f, scale %.3f)   mean %.2f in\n",
		p.SWE.Feb.Shape, p.SWE.Feb.Scale, p.SWE.Feb.Mean())
	fmt.Printf("  Apr SWE: gamma(shape %.3f, scale %.3f)   mean %.2f in\n",
		p.SWE.Apr.Shape, p.SWE.Apr.Scale, p.SWE.Apr.Mean())
	fmt.Printf("  Kendall tau %.4f   normal-equivalent rho %.4f\n", p.SWE.Tau, p.SWE.Rho)
	fmt.Printf("  Whitened residual AR: lag1 %.4f   lag3 %.4f   innov std %.4f\n",
		p.AR.Phi1, p.AR.Phi3, p.AR.InnovStd)
	fmt.Printf("  Price SARMA: phi %.4f   theta %.4f   innov std %.4f\n",
		p.Price.Phi, p.Price.Theta, p.Price.InnovStd)
	fmt.Println()

	fmt.Printf("  %-5s %-9s %-9s %10s %9s %9s %10s\n",
		"Month", "Regime", "Predictor", "Intercept", "Slope", "Ceiling", "Crossing")
	for month := 1; month <= 12; month++ {
		m := p.Months[month]
		crossing := "-"
		ceiling := "-"
		if m.Kind == regression.RegimeCeiling {
			ceiling = fmt.Sprintf("%.1f", m.Ceiling)
			if x, ok := m.CrossingPoint(); ok {
				crossing = fmt.Sprintf("%.1f in", x)
			}
		}
		fmt.Printf("  %-5s %-9s %-9s %10.2f %9.3f %9s %10s\n",
			model.WaterMonthName(month), m.Kind, m.Predictor, m.Intercept, m.Slope, ceiling, crossing)
	}
	fmt.Println()
}

func printSummary(s simulator.RunSummary) {
	fmt.Println()
	fmt.Println("=== Run Summary ===")
	fmt.Printf("  Samples: %d   Elapsed: %s\n", s.Samples, s.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Kendall tau: historical %.4f   synthetic %.4f\n", s.TauHistorical, s.TauSynthetic)
	fmt.Printf("  Annual generation: historical %.0f GWh   synthetic %.0f GWh\n",
		s.AnnualGenerationHist, s.AnnualGenerationSynth)
	fmt.Printf("  Mean price: historical %.2f $/MWh   synthetic %.2f $/MWh\n",
		s.MeanPriceHist, s.MeanPriceSynth)
	fmt.Println()

	fmt.Printf("  %-5s %18s %18s %16s %16s\n",
		"Month", "Gen hist GWh", "Gen synth GWh", "Price hist $", "Price synth $")
	for i := range s.Generation {
		g := s.Generation[i]
		p := s.Price[i]
		fmt.Printf("  %-5s %10.1f/%6.1f %10.1f/%6.1f %9.2f/%5.2f %9.2f/%5.2f\n",
			model.WaterMonthName(g.Month),
			g.HistMean, g.HistStd, g.SynthMean, g.SynthStd,
			p.HistMean, p.HistStd, p.SynthMean, p.SynthStd)
	}
	fmt.Println()
}
