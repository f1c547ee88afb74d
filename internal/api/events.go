package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"awarego/pkg/engine"
	"awarego/pkg/model"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local companion server, no cross-origin policy to enforce.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler pushes transcript events to WebSocket clients as they are
// emitted. Each frame carries the phase the event belongs to, so a client
// can drive all three transcript views off one connection.
type EventsHandler struct {
	coord *engine.Coordinator
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(coord *engine.Coordinator) *EventsHandler {
	return &EventsHandler{coord: coord}
}

// StreamFrame is one pushed transcript event.
type StreamFrame struct {
	Phase model.Phase `json:"phase"`
	Event model.Event `json:"event"`
}

// HandleEvents handles GET /api/session/events.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	textCh, cancelText := h.coord.TextScene().Transcript().Subscribe()
	defer cancelText()
	encCh, cancelEnc := h.coord.Encounter().Transcript().Subscribe()
	defer cancelEnc()
	epiCh, cancelEpi := h.coord.EpilogueTranscript().Subscribe()
	defer cancelEpi()

	// Reader goroutine: drains pongs and notices the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev := <-textCh:
			if !h.writeFrame(conn, model.PhaseTextScene, ev) {
				return
			}
		case ev := <-encCh:
			if !h.writeFrame(conn, model.PhaseEncounter, ev) {
				return
			}
		case ev := <-epiCh:
			if !h.writeFrame(conn, model.PhaseEpilogue, ev) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) writeFrame(conn *websocket.Conn, phase model.Phase, ev model.Event) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(StreamFrame{Phase: phase, Event: ev}); err != nil {
		slog.Debug("WebSocket write failed, dropping client", "error", err)
		return false
	}
	return true
}
