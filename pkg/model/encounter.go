package model

import "encoding/json"

// Encounter is an in-person interaction scene document.
type Encounter struct {
	Chapter    int             `json:"chapter"`
	SceneID    string          `json:"scene_id"`
	SceneType  string          `json:"scene_type"`
	Location   LText           `json:"location"`
	Atmosphere LText           `json:"atmosphere"`
	Nodes      []EncounterNode `json:"nodes"`
	Endings    Endings         `json:"endings"`
}

// EncounterNode is one step of an encounter.
type EncounterNode struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	Speaker         string            `json:"speaker,omitempty"`
	Description     *LText            `json:"description,omitempty"`
	Lines           []LText           `json:"lines,omitempty"`
	NarrativeAction *LText            `json:"narrative_action,omitempty"`
	ReactionDelayMs int               `json:"reaction_delay_ms,omitempty"`
	Options         []EncounterOption `json:"options,omitempty"`
	Event           string            `json:"event,omitempty"`

	// Kind is resolved from Type at load time.
	Kind NodeKind `json:"-"`
}

// UnmarshalJSON decodes the external snake_case document and resolves the
// node kind in the same pass.
func (n *EncounterNode) UnmarshalJSON(data []byte) error {
	type alias EncounterNode
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*n = EncounterNode(a)
	n.Kind = ParseNodeKind(n.Type)
	return nil
}

// EncounterOption is a selectable branch on an encounter player_choice node.
type EncounterOption struct {
	OptionID        string  `json:"option_id"`
	Text            LText   `json:"text"`
	Points          int     `json:"points"`
	ReactionDelayMs int     `json:"reaction_delay_ms,omitempty"`
	BranchNarrative *LText  `json:"branch_narrative,omitempty"`
	BranchLines     []LText `json:"branch_lines,omitempty"`
}

// Option returns the option with the given id, or nil.
func (n *EncounterNode) Option(id string) *EncounterOption {
	for i := range n.Options {
		if n.Options[i].OptionID == id {
			return &n.Options[i]
		}
	}
	return nil
}

// Tier is one of the three ending categories.
type Tier string

const (
	TierGood    Tier = "good"
	TierNeutral Tier = "neutral"
	TierBad     Tier = "bad"
)

// Endings holds the three ending tiers of an encounter.
type Endings struct {
	Good    Ending `json:"good"`
	Neutral Ending `json:"neutral"`
	Bad     Ending `json:"bad"`
}

// Ending is one tier of an encounter's ending table.
type Ending struct {
	Threshold      int     `json:"threshold"`
	PostSceneLabel LText   `json:"post_scene_label"`
	FinalTexts     []LText `json:"final_texts"`
}

// Resolve picks the highest tier whose threshold the score reaches,
// checking good, then neutral, with bad as the guaranteed fallback.
func (e Endings) Resolve(score int) (Tier, Ending) {
	switch {
	case score >= e.Good.Threshold:
		return TierGood, e.Good
	case score >= e.Neutral.Threshold:
		return TierNeutral, e.Neutral
	default:
		return TierBad, e.Bad
	}
}

// Ordered reports whether thresholds decrease from good to bad. Authored
// data is expected to satisfy this; it is not enforced.
func (e Endings) Ordered() bool {
	return e.Good.Threshold >= e.Neutral.Threshold && e.Neutral.Threshold >= e.Bad.Threshold
}
