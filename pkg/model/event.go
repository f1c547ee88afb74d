package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies the kind of a transcript event.
type EventKind string

const (
	EventNPCLine     EventKind = "npc_line"
	EventPlayerLine  EventKind = "player_line"
	EventNarrative   EventKind = "narrative"
	EventAction      EventKind = "action"
	EventSystemLabel EventKind = "system_label"
	EventEndingLine  EventKind = "ending_line"
)

// Event is one entry of the presentation-facing transcript. Text is already
// resolved to the session language.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Text      string    `json:"text"`
	Tier      Tier      `json:"tier,omitempty"` // set on ending_line events
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent builds a transcript event with a fresh id.
func NewEvent(kind EventKind, text string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// Choice is a presentation-facing selectable option with resolved label text.
type Choice struct {
	Tag    string `json:"tag"`
	Text   string `json:"text"`
	Points int    `json:"points"`
}

// Phase is the coordinator's current position in the scene sequence.
type Phase string

const (
	PhaseTextScene  Phase = "text_scene"
	PhaseTransition Phase = "transition"
	PhaseEncounter  Phase = "encounter"
	PhaseEpilogue   Phase = "epilogue"
)
