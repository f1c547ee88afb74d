package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"awarego/pkg/config"
	"awarego/pkg/model"
	"awarego/pkg/pacing"
)

// SettingsHandler handles the playback preference endpoints.
type SettingsHandler struct {
	provider *config.Provider
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(provider *config.Provider) *SettingsHandler {
	return &SettingsHandler{provider: provider}
}

// SettingsResponse is the effective playback preferences.
type SettingsResponse struct {
	Language model.Language `json:"language"`
	Pacing   pacing.Mode    `json:"pacing"`
}

// SettingsUpdate carries a partial preference update. Omitted fields keep
// their current value.
type SettingsUpdate struct {
	Language *string `json:"language,omitempty"`
	Pacing   *string `json:"pacing,omitempty"`
}

// HandleGet handles GET /api/settings.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, SettingsResponse{
		Language: h.provider.Language(ctx),
		Pacing:   h.provider.Pacing(ctx),
	})
}

// HandlePut handles PUT /api/settings. Unknown language or pacing values
// fall back to the defaults rather than erroring, matching how the engine
// interprets them.
func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if req.Language != nil {
		lang := model.ParseLanguage(*req.Language)
		if err := h.provider.SetLanguage(ctx, lang); err != nil {
			slog.Error("Failed to persist language setting", "error", err)
			http.Error(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
	}
	if req.Pacing != nil {
		mode := pacing.Parse(*req.Pacing)
		if err := h.provider.SetPacing(ctx, mode); err != nil {
			slog.Error("Failed to persist pacing setting", "error", err)
			http.Error(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, SettingsResponse{
		Language: h.provider.Language(ctx),
		Pacing:   h.provider.Pacing(ctx),
	})
}
