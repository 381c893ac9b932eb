package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "data", c.DataDir)
	assert.Equal(t, "out", c.OutDir)
	assert.Equal(t, 1000000, c.Samples)
	assert.Equal(t, uint64(1), c.SWESeed)
	assert.Equal(t, uint64(2), c.GenerationSeed)
	assert.Equal(t, uint64(3), c.PriceSeed)
	assert.True(t, c.Validate)
	assert.Equal(t, 10000, c.CopulaReplicates)
	assert.True(t, c.RecomputeSWE)
	assert.True(t, c.RecomputeGeneration)
	assert.True(t, c.RecomputePrice)
	assert.False(t, c.PersistSWE)
	assert.False(t, c.PersistGeneration)
	assert.False(t, c.PersistPrice)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HYDROSIM_ADDR", ":9000")
	t.Setenv("HYDROSIM_DATA_DIR", "/var/hydro")
	t.Setenv("HYDROSIM_SAMPLES", "5000")
	t.Setenv("HYDROSIM_SWE_SEED", "11")
	t.Setenv("HYDROSIM_GENERATION_SEED", "12")
	t.Setenv("HYDROSIM_VALIDATE", "false")
	t.Setenv("HYDROSIM_RECOMPUTE_PRICE", "false")
	t.Setenv("HYDROSIM_PERSIST_SWE", "true")
	t.Setenv("HYDROSIM_PARAMS_FILE", "/tmp/fit.json")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, "/var/hydro", c.DataDir)
	assert.Equal(t, 5000, c.Samples)
	assert.Equal(t, uint64(11), c.SWESeed)
	assert.Equal(t, uint64(12), c.GenerationSeed)
	assert.False(t, c.Validate)
	assert.False(t, c.RecomputePrice)
	assert.True(t, c.RecomputeSWE)
	assert.True(t, c.PersistSWE)
	assert.Equal(t, "/tmp/fit.json", c.ParamsPath())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("HYDROSIM_SAMPLES", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	c := Config{DataDir: "data", OutDir: "out"}

	assert.Equal(t, filepath.Join("data", "swe.csv"), c.SWEPath())
	assert.Equal(t, filepath.Join("data", "generation.csv"), c.GenerationPath())
	assert.Equal(t, filepath.Join("data", "price.csv"), c.PricePath())
	assert.Equal(t, filepath.Join("out", "swe_synthetic.csv"), c.SyntheticSWEPath())
	assert.Equal(t, filepath.Join("out", "generation_synthetic.csv"), c.SyntheticGenerationPath())
	assert.Equal(t, filepath.Join("out", "price_synthetic.csv"), c.SyntheticPricePath())
	assert.Equal(t, filepath.Join("out", "params.json"), c.ParamsPath())

	c.ParamsFile = "/tmp/fit.json"
	assert.Equal(t, "/tmp/fit.json", c.ParamsPath())
}
