package model

import "encoding/json"

// NodeKind identifies the kind of a scene node. The external JSON carries
// string tags; they are resolved to this closed enum once at load time so
// the runners dispatch over values, not strings.
type NodeKind int

const (
	NodeKindUnknown NodeKind = iota
	NodeKindNarrative
	NodeKindDialogue
	NodeKindMessage
	NodeKindPlayerChoice
	NodeKindSystemEvent
)

// External type tags.
const (
	tagNarrativeBlock = "narrative_block"
	tagDialogueBlock  = "dialogue_block"
	tagMessageBlock   = "message_block"
	tagPlayerChoice   = "player_choice"
	tagSystemEvent    = "system_event"
)

// ParseNodeKind resolves an external type tag. Unrecognized tags map to
// NodeKindUnknown, which the runners skip.
func ParseNodeKind(tag string) NodeKind {
	switch tag {
	case tagNarrativeBlock:
		return NodeKindNarrative
	case tagDialogueBlock:
		return NodeKindDialogue
	case tagMessageBlock:
		return NodeKindMessage
	case tagPlayerChoice:
		return NodeKindPlayerChoice
	case tagSystemEvent:
		return NodeKindSystemEvent
	default:
		return NodeKindUnknown
	}
}

func (k NodeKind) String() string {
	switch k {
	case NodeKindNarrative:
		return tagNarrativeBlock
	case NodeKindDialogue:
		return tagDialogueBlock
	case NodeKindMessage:
		return tagMessageBlock
	case NodeKindPlayerChoice:
		return tagPlayerChoice
	case NodeKindSystemEvent:
		return tagSystemEvent
	default:
		return "unknown"
	}
}

// EventTransitionToEncounter is the authored system_event marker that ends a
// text scene and hands control to the encounter phase.
const EventTransitionToEncounter = "transition_to_encounter"

// PlayerSpeaker is the reserved sender/speaker name for the player.
const PlayerSpeaker = "Player"

// TextScene is a text-message thread scene document.
type TextScene struct {
	Chapter    int        `json:"chapter"`
	SceneID    string     `json:"scene_id"`
	SceneType  string     `json:"scene_type"`
	Characters []string   `json:"characters"`
	Nodes      []TextNode `json:"nodes"`
}

// TextNode is one step of a text-message thread.
type TextNode struct {
	ID              string       `json:"id"`
	Type            string       `json:"type"`
	Sender          string       `json:"sender,omitempty"`
	Messages        []LText      `json:"messages,omitempty"`
	ResponseDelayMs int          `json:"response_delay_ms,omitempty"`
	SystemEvent     string       `json:"system_event,omitempty"`
	Options         []TextOption `json:"options,omitempty"`
	Event           string       `json:"event,omitempty"`
	Label           *LText       `json:"label,omitempty"`

	// Kind is resolved from Type at load time.
	Kind NodeKind `json:"-"`
}

// UnmarshalJSON decodes the external snake_case document and resolves the
// node kind in the same pass.
func (n *TextNode) UnmarshalJSON(data []byte) error {
	type alias TextNode
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*n = TextNode(a)
	n.Kind = ParseNodeKind(n.Type)
	return nil
}

// TextOption is a selectable branch on a text-thread player_choice node.
type TextOption struct {
	OptionID        string  `json:"option_id"`
	Text            LText   `json:"text"`
	Points          int     `json:"points"`
	ResponseDelayMs int     `json:"response_delay_ms,omitempty"`
	BranchMessages  []LText `json:"branch_messages,omitempty"`
}

// Option returns the option with the given id, or nil.
func (n *TextNode) Option(id string) *TextOption {
	for i := range n.Options {
		if n.Options[i].OptionID == id {
			return &n.Options[i]
		}
	}
	return nil
}
