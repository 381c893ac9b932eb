package ws

import (
	"log"

	"hydro_simulator/internal/simulator"
)

// Bridge implements simulator.Callback and broadcasts pipeline events to
// the WebSocket hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		log.Printf("Error marshaling %s: %v", msgType, err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnStage(stage string) {
	b.broadcast(TypeRunStage, StagePayload{Stage: stage})
}

func (b *Bridge) OnProgress(p simulator.Progress) {
	b.broadcast(TypeRunProgress, ProgressFromEngine(p))
}

func (b *Bridge) OnSummary(s simulator.RunSummary) {
	b.broadcast(TypeSummaryUpdate, SummaryFromEngine(s))
}
