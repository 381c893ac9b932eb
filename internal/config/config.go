// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime settings. Every field is read from the
// environment under the HYDROSIM prefix, e.g. HYDROSIM_SAMPLES or
// HYDROSIM_DATA_DIR.
type Config struct {
	Addr    string `default:":8080"`
	DataDir string `split_words:"true" default:"data"`
	OutDir  string `split_words:"true" default:"out"`

	Samples          int    `default:"1000000"`
	SWESeed          uint64 `envconfig:"SWE_SEED" default:"1"`
	GenerationSeed   uint64 `split_words:"true" default:"2"`
	PriceSeed        uint64 `split_words:"true" default:"3"`
	Validate         bool   `default:"true"`
	CopulaReplicates int    `split_words:"true" default:"10000"`

	// Recompute switches: when off, the stage loads its previously
	// persisted synthetic table from OutDir instead of drawing it.
	RecomputeSWE        bool `envconfig:"RECOMPUTE_SWE" default:"true"`
	RecomputeGeneration bool `split_words:"true" default:"true"`
	RecomputePrice      bool `split_words:"true" default:"true"`

	// Persist switches: whether each synthetic table is written out. At
	// the default million samples the tables are large, so writing is
	// opt-in.
	PersistSWE        bool `envconfig:"PERSIST_SWE" default:"false"`
	PersistGeneration bool `split_words:"true" default:"false"`
	PersistPrice      bool `split_words:"true" default:"false"`

	// ParamsFile points at a saved fit to reuse. Empty means refit.
	ParamsFile string `split_words:"true"`
}

// Load reads HYDROSIM_* environment variables over the defaults.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("hydrosim", &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.check(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) check() error {
	if c.Samples <= 0 {
		return fmt.Errorf("config: samples must be positive, got %d", c.Samples)
	}
	if c.CopulaReplicates <= 0 {
		return fmt.Errorf("config: copula replicates must be positive, got %d", c.CopulaReplicates)
	}
	return nil
}

// Historical input files under DataDir.

func (c Config) SWEPath() string        { return filepath.Join(c.DataDir, "swe.csv") }
func (c Config) GenerationPath() string { return filepath.Join(c.DataDir, "generation.csv") }
func (c Config) PricePath() string      { return filepath.Join(c.DataDir, "price.csv") }

// Synthetic output files under OutDir.

func (c Config) SyntheticSWEPath() string { return filepath.Join(c.OutDir, "swe_synthetic.csv") }
func (c Config) SyntheticGenerationPath() string {
	return filepath.Join(c.OutDir, "generation_synthetic.csv")
}
func (c Config) SyntheticPricePath() string { return filepath.Join(c.OutDir, "price_synthetic.csv") }
func (c Config) CopulaCurvesPath() string   { return filepath.Join(c.OutDir, "copula_curves.csv") }

// ParamsPath is where a fit is saved to or loaded from.
func (c Config) ParamsPath() string {
	if c.ParamsFile != "" {
		return c.ParamsFile
	}
	return filepath.Join(c.OutDir, "params.json")
}
