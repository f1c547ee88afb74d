package api

import (
	"encoding/json"
	"net/http"

	"awarego/pkg/engine"
	"awarego/pkg/model"
)

// SessionHandler handles session control and status endpoints.
type SessionHandler struct {
	coord *engine.Coordinator
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(coord *engine.Coordinator) *SessionHandler {
	return &SessionHandler{coord: coord}
}

// ChoiceRequest selects an option while a runner awaits one.
type ChoiceRequest struct {
	OptionID string `json:"option_id"`
}

// EndingInfo describes the resolved ending during the epilogue.
type EndingInfo struct {
	Tier           model.Tier `json:"tier"`
	PostSceneLabel string     `json:"post_scene_label"`
}

// SessionStatusResponse is the read-only session snapshot.
type SessionStatusResponse struct {
	Phase           model.Phase    `json:"phase"`
	Score           int            `json:"score"`
	State           engine.State   `json:"state"`
	Thinking        bool           `json:"thinking"`
	TransitionReady bool           `json:"transition_ready"`
	Events          []model.Event  `json:"events"`
	Choices         []model.Choice `json:"choices,omitempty"`
	Location        string         `json:"location,omitempty"`
	Atmosphere      string         `json:"atmosphere,omitempty"`
	EpilogueDone    bool           `json:"epilogue_done,omitempty"`
	Ending          *EndingInfo    `json:"ending,omitempty"`
}

// HandleStatus handles GET /api/session.
func (h *SessionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	c := h.coord
	resp := SessionStatusResponse{
		Phase: c.Phase(),
		Score: c.Score(),
	}

	switch resp.Phase {
	case model.PhaseTextScene:
		tr := c.TextScene().Transcript()
		resp.State = c.TextScene().State()
		resp.Thinking = tr.Thinking()
		resp.TransitionReady = c.TextScene().TransitionReady()
		resp.Events = tr.Events()
		resp.Choices = tr.Choices()

	case model.PhaseTransition:
		lang := currentLanguage(r, c)
		resp.State = engine.StateIdle
		resp.Location = c.Encounter().Scene().Location.Resolve(lang)
		resp.Atmosphere = c.Encounter().Scene().Atmosphere.Resolve(lang)

	case model.PhaseEncounter:
		tr := c.Encounter().Transcript()
		resp.State = c.Encounter().State()
		resp.Thinking = tr.Thinking()
		resp.Events = tr.Events()
		resp.Choices = tr.Choices()

	case model.PhaseEpilogue:
		resp.State = engine.StateTerminal
		resp.Events = c.EpilogueTranscript().Events()
		resp.EpilogueDone = c.EpilogueDone()
		tier, ending := c.EarnedEnding()
		lang := currentLanguage(r, c)
		resp.Ending = &EndingInfo{
			Tier:           tier,
			PostSceneLabel: ending.PostSceneLabel.Resolve(lang),
		}
	}

	writeJSON(w, resp)
}

// HandleStart handles POST /api/session/start.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, _ *http.Request) {
	h.coord.Start()
	writeJSON(w, map[string]string{"status": "started"})
}

// HandleChoice handles POST /api/session/choice.
func (h *SessionHandler) HandleChoice(w http.ResponseWriter, r *http.Request) {
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OptionID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.coord.SelectChoice(req.OptionID)
	writeJSON(w, map[string]string{"status": "selected"})
}

// HandleAdvance handles POST /api/session/advance: it confirms whichever
// suspension the session is in (leaving a ready text scene, or starting the
// encounter from the transition screen).
func (h *SessionHandler) HandleAdvance(w http.ResponseWriter, _ *http.Request) {
	h.coord.Advance()
	writeJSON(w, map[string]string{"status": "advanced"})
}

// HandleRestart handles POST /api/session/restart.
func (h *SessionHandler) HandleRestart(w http.ResponseWriter, _ *http.Request) {
	h.coord.Restart()
	writeJSON(w, map[string]string{"status": "restarted"})
}

// currentLanguage resolves the session language for snapshot text.
func currentLanguage(r *http.Request, c *engine.Coordinator) model.Language {
	return c.Settings().Language(r.Context())
}
