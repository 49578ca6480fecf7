package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hsakai/skillview/backend/events"
	ws "github.com/hsakai/skillview/backend/websocket"
)

// WebSocketHandler bridges the event bus to connected clients: every
// transcription, progress, and error event is pushed to the clients
// watching that session.
type WebSocketHandler struct {
	hub *ws.Hub
	bus *events.Bus
}

type wsEnvelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewWebSocketHandler(hub *ws.Hub, bus *events.Bus) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		bus: bus,
	}
}

// Run pumps bus events into the hub until ctx is cancelled
func (h *WebSocketHandler) Run(ctx context.Context) {
	transcriptions, cancelTranscriptions := h.bus.SubscribeTranscription()
	progress, cancelProgress := h.bus.SubscribeProgress()
	errors, cancelErrors := h.bus.SubscribeErrors()

	defer cancelTranscriptions()
	defer cancelProgress()
	defer cancelErrors()

	for {
		select {
		case event := <-transcriptions:
			h.push(event.SessionID, "transcription", event)
		case event := <-progress:
			h.push(event.SessionID, "progress", event)
		case event := <-errors:
			h.push(event.SessionID, "error", event)
		case <-ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandler) push(sessionID, eventType string, payload interface{}) {
	data, err := json.Marshal(wsEnvelope{Type: eventType, Payload: payload})
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "type", eventType)
		return
	}

	h.hub.BroadcastToSession(sessionID, data)
}
