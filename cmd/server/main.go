package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"hydro_simulator/internal/config"
	"hydro_simulator/internal/ingest"
	"hydro_simulator/internal/simulator"
	"hydro_simulator/internal/store"
	"hydro_simulator/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	dataDir := flag.String("data-dir", cfg.DataDir, "directory containing the historical CSV files")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	addr := flag.String("addr", cfg.Addr, "listen address")
	samples := flag.Int("samples", cfg.Samples, "default number of synthetic water years per run")
	flag.Parse()

	cfg.DataDir = *dataDir
	cfg.Samples = *samples

	// Load CSV data
	dataStore, err := loadStore(cfg)
	if err != nil {
		log.Fatalf("Failed to load CSV data: %v", err)
	}

	years, ok := dataStore.SWEYears()
	if !ok {
		log.Fatal("No data loaded")
	}
	log.Printf("Data loaded: water years %d to %d (%d SWE years, %d generation months, %d price months)",
		years.First, years.Last, dataStore.SWECount(), dataStore.GenerationCount(), dataStore.PriceCount())

	// Set up WebSocket hub and simulation engine
	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)
	engine := simulator.New(dataStore, simulator.Options{
		Samples:          cfg.Samples,
		SWESeed:          cfg.SWESeed,
		GenerationSeed:   cfg.GenerationSeed,
		PriceSeed:        cfg.PriceSeed,
		Validate:         cfg.Validate,
		CopulaReplicates: cfg.CopulaReplicates,
	}, bridge)

	handler := ws.NewHandler(hub, engine, dataStore)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)

	// Serve frontend static files
	if _, err := os.Stat(*frontendDir); err == nil {
		log.Printf("Serving frontend from %s", *frontendDir)
		mux.Handle("/", http.FileServer(http.Dir(*frontendDir)))
	}

	log.Printf("Starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}

// loadStore reads the three historical tables under cfg.DataDir into a
// fresh store.
func loadStore(cfg config.Config) (*store.Store, error) {
	st := store.New()

	obs, err := parseFile(cfg.SWEPath(), (&ingest.SWEParser{}).Parse)
	if err != nil {
		return nil, err
	}
	st.AddSWE(obs)
	log.Printf("  Loaded %d SWE years from %s", len(obs), cfg.SWEPath())

	gen, err := parseFile(cfg.GenerationPath(), (&ingest.GenerationParser{}).Parse)
	if err != nil {
		return nil, err
	}
	st.AddGeneration(gen)
	log.Printf("  Loaded %d generation months from %s", len(gen), cfg.GenerationPath())

	price, err := parseFile(cfg.PricePath(), (&ingest.PriceParser{}).Parse)
	if err != nil {
		return nil, err
	}
	st.AddPrice(price)
	log.Printf("  Loaded %d price months from %s", len(price), cfg.PricePath())

	return st, nil
}

// parseFile opens path and runs one table parser over it.
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
