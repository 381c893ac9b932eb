package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"hydro_simulator/internal/copula"
	"hydro_simulator/internal/model"
	"hydro_simulator/internal/simulator"
	"hydro_simulator/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes run commands to the
// engine. Each run executes in its own goroutine; the synthetic tables
// stay server-side and only the summary and validation curves go out.
type Handler struct {
	hub    *Hub
	engine *simulator.Engine
	store  *store.Store

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewHandler(hub *Hub, engine *simulator.Engine, st *store.Store) *Handler {
	return &Handler{hub: hub, engine: engine, store: st}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	// Send initial data:loaded message
	h.sendDataLoaded(client)

	// Send current engine state
	h.sendSimState(client)

	// Read messages from client
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("Invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeRunStart:
		var p RunStartPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				log.Printf("Invalid run:start payload: %v", err)
				return
			}
		}
		if p.Samples > 0 {
			h.engine.SetSamples(p.Samples)
		}
		h.startRun()

	case TypeRunCancel:
		h.cancelRun()

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

// startRun launches one pipeline run in its own goroutine. A second
// start while one is in progress is rejected.
func (h *Handler) startRun() {
	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		h.broadcastError("a run is already in progress")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			h.mu.Lock()
			h.cancel = nil
			h.mu.Unlock()
			h.broadcastSimState()
		}()

		result, err := h.engine.Run(ctx)
		if err != nil {
			log.Printf("Pipeline run failed: %v", err)
			h.broadcastError(err.Error())
			return
		}
		if result.Validation != nil {
			h.broadcastCurves(result.Validation)
		}
	}()
}

func (h *Handler) cancelRun() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Handler) broadcastError(text string) {
	msg, err := NewEnvelope(TypeRunError, ErrorPayload{Error: text})
	if err != nil {
		log.Printf("Error marshaling run error: %v", err)
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) broadcastSimState() {
	msg, err := NewEnvelope(TypeSimState, SimStateFromEngine(h.engine.State()))
	if err != nil {
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) broadcastCurves(v *copula.Validation) {
	msg, err := NewEnvelope(TypeCopulaCurves, CurvesFromValidation(v))
	if err != nil {
		log.Printf("Error marshaling copula curves: %v", err)
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) dataLoadedMessage() ([]byte, error) {
	opts := h.engine.Options()
	sweYears, _ := h.store.SWEYears()
	genYears, _ := h.store.GenerationYears()
	priceYears, _ := h.store.PriceYears()

	payload := DataLoadedPayload{
		SWE:        seriesInfo(model.SeriesSWE, h.store.SWECount(), sweYears),
		Generation: seriesInfo(model.SeriesGeneration, h.store.GenerationCount(), genYears),
		Price:      seriesInfo(model.SeriesPrice, h.store.PriceCount(), priceYears),
		Samples:    opts.Samples,
		Validate:   opts.Validate,
	}

	return NewEnvelope(TypeDataLoaded, payload)
}

func seriesInfo(kind model.SeriesKind, rows int, years model.YearRange) SeriesRangeInfo {
	info := model.SeriesCatalog[kind]
	return SeriesRangeInfo{
		Name:      info.Name,
		Unit:      info.Unit,
		Rows:      rows,
		FirstYear: years.First,
		LastYear:  years.Last,
	}
}

func (h *Handler) sendDataLoaded(c *Client) {
	msg, err := h.dataLoadedMessage()
	if err != nil {
		log.Printf("Error creating data:loaded message: %v", err)
		return
	}
	c.trySend(msg)
}

func (h *Handler) sendSimState(c *Client) {
	state := h.engine.State()
	msg, err := NewEnvelope(TypeSimState, SimStateFromEngine(state))
	if err != nil {
		return
	}
	c.trySend(msg)
}
