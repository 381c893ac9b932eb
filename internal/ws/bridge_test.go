package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydro_simulator/internal/marginal"
	"hydro_simulator/internal/simulator"
)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	bridge := NewBridge(hub)
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_OnStage(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnStage(simulator.StageFitSWE)

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeRunStage, env.Type)

	var p StagePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "fit_swe", p.Stage)
}

func TestBridge_OnProgress(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnProgress(simulator.Progress{
		Stage: simulator.StagePrice,
		Done:  250,
		Total: 1000,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeRunProgress, env.Type)

	var p ProgressPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "simulate_price", p.Stage)
	assert.Equal(t, 250, p.Done)
	assert.Equal(t, 1000, p.Total)
}

func TestBridge_OnSummary(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnSummary(simulator.RunSummary{
		Samples: 500,
		Elapsed: 1500 * time.Millisecond,
		SWE: simulator.SWEParams{
			Feb: marginal.Gamma{Shape: 2.5, Scale: 4.0},
			Apr: marginal.Gamma{Shape: 3.1, Scale: 5.5},
			Tau: 0.55,
			Rho: 0.76,
		},
		TauHistorical:         0.55,
		TauSynthetic:          0.54,
		AnnualGenerationHist:  3200.0,
		AnnualGenerationSynth: 3180.0,
		MeanPriceHist:         31.5,
		MeanPriceSynth:        31.9,
		Generation: []simulator.MonthStats{
			{Month: 1, HistMean: 480, HistStd: 2.1, SynthMean: 479, SynthStd: 2.3},
		},
		Price: []simulator.MonthStats{
			{Month: 1, HistMean: 28, HistStd: 1.5, SynthMean: 28.2, SynthStd: 1.6},
		},
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSummaryUpdate, env.Type)

	var p SummaryPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 500, p.Samples)
	assert.InDelta(t, 1500.0, p.ElapsedMS, 0.001)
	assert.InDelta(t, 2.5, p.SWE.FebShape, 0.001)
	assert.InDelta(t, 5.5, p.SWE.AprScale, 0.001)
	assert.InDelta(t, 0.76, p.SWE.Rho, 0.001)
	assert.InDelta(t, 0.55, p.TauHistorical, 0.001)
	assert.InDelta(t, 0.54, p.TauSynthetic, 0.001)
	assert.InDelta(t, 3200.0, p.AnnualGenerationHist, 0.001)
	assert.InDelta(t, 31.9, p.MeanPriceSynth, 0.001)

	require.Len(t, p.Generation, 1)
	assert.Equal(t, 1, p.Generation[0].Month)
	assert.InDelta(t, 480.0, p.Generation[0].HistMean, 0.001)
	require.Len(t, p.Price, 1)
	assert.InDelta(t, 28.2, p.Price[0].SynthMean, 0.001)
}
