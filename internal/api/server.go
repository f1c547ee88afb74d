// Package api is the engine's HTTP and WebSocket surface. It exposes the
// session transcript read-only and routes player input to the coordinator.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"awarego/pkg/version"
)

// NewServer creates and configures the HTTP server.
// shutdown is called after a /api/shutdown request has been answered.
func NewServer(addr string, session *SessionHandler, settings *SettingsHandler, events *EventsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Session Endpoints
	mux.HandleFunc("GET /api/session", session.HandleStatus)
	mux.HandleFunc("POST /api/session/start", session.HandleStart)
	mux.HandleFunc("POST /api/session/choice", session.HandleChoice)
	mux.HandleFunc("POST /api/session/advance", session.HandleAdvance)
	mux.HandleFunc("POST /api/session/restart", session.HandleRestart)

	// 3. Event Stream
	mux.HandleFunc("GET /api/session/events", events.HandleEvents)

	// 4. Settings Endpoints
	mux.HandleFunc("GET /api/settings", settings.HandleGet)
	mux.HandleFunc("PUT /api/settings", settings.HandlePut)

	// 5. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"version": version.Version})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
