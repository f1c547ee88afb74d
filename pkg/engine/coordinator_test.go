package engine

import (
	"errors"
	"testing"
	"time"

	"awarego/pkg/model"
	"awarego/pkg/pacing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource serves fixed scene documents.
type stubSource struct {
	text *model.TextScene
	enc  *model.Encounter
}

func (s *stubSource) LoadTextScene(string) (*model.TextScene, error) {
	if s.text == nil {
		return nil, errors.New("missing")
	}
	return s.text, nil
}

func (s *stubSource) LoadEncounter(string) (*model.Encounter, error) {
	if s.enc == nil {
		return nil, errors.New("missing")
	}
	return s.enc, nil
}

// sessionScenes builds a small full session: a thread with one choice and a
// transition marker, and an encounter with one choice and a terminal node.
func sessionScenes() *stubSource {
	return &stubSource{
		text: threadScene(
			textNode(model.NodeKindMessage, model.TextNode{ID: "m1", Sender: "Andreas", Messages: []model.LText{en("hey")}}),
			choiceNode(
				model.TextOption{OptionID: "warm", Text: en("Tell me"), Points: 2},
				model.TextOption{OptionID: "cold", Text: en("Go away"), Points: -1},
			),
			textNode(model.NodeKindMessage, model.TextNode{
				ID: "m2", Sender: "Andreas",
				SystemEvent: model.EventTransitionToEncounter,
				Messages:    []model.LText{en("come outside")},
			}),
		),
		enc: encounterScene(
			encChoice(
				model.EncounterOption{OptionID: "steady", Text: en("Of course"), Points: 12},
				model.EncounterOption{OptionID: "guarded", Text: en("Five minutes"), Points: -2},
			),
			encNode(model.NodeKindSystemEvent, model.EncounterNode{ID: "end", Event: "encounter_end"}),
		),
	}
}

func newTestCoordinator(src SceneSource, s Settings) *Coordinator {
	c := NewCoordinator(src, s, "text_scene_01", "encounter_01")
	c.wait = instantWait
	c.text.wait = instantWait
	c.enc.wait = instantWait
	return c
}

func waitPhase(t *testing.T, c *Coordinator, want model.Phase) {
	t.Helper()
	assert.Eventually(t, func() bool { return c.Phase() == want }, 2*time.Second, 2*time.Millisecond,
		"never reached phase %s (now %s)", want, c.Phase())
}

func playThrough(t *testing.T, c *Coordinator, textTag string) {
	t.Helper()
	c.Start()
	waitState(t, c.text, StateAwaitingChoice)
	c.SelectChoice(textTag)
	waitState(t, c.text, StateTransitionReady)
	c.Advance() // leave the ready text scene
}

func TestCoordinatorFullSession(t *testing.T) {
	c := newTestCoordinator(sessionScenes(), testSettings())
	playThrough(t, c, "warm")

	// Medium pacing keeps the transition screen.
	waitPhase(t, c, model.PhaseTransition)
	c.Advance() // confirm the transition
	waitPhase(t, c, model.PhaseEncounter)

	waitState(t, c.enc, StateAwaitingChoice)
	c.SelectChoice("steady")
	waitPhase(t, c, model.PhaseEpilogue)

	assert.Equal(t, 14, c.Score())
	tier, _ := c.EarnedEnding()
	assert.Equal(t, model.TierGood, tier)

	assert.Eventually(t, c.EpilogueDone, 2*time.Second, 2*time.Millisecond)
	evs := c.epilogue.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, model.EventSystemLabel, evs[0].Kind)
	for _, ev := range evs[1:] {
		assert.Equal(t, model.EventEndingLine, ev.Kind)
		assert.Equal(t, model.TierGood, ev.Tier)
	}
}

func TestCoordinatorFastPacingElidesTransition(t *testing.T) {
	c := newTestCoordinator(sessionScenes(), StaticSettings{Lang: model.LangEnglish, Mode: pacing.ModeFast})
	playThrough(t, c, "cold")

	// Fast mode goes straight to the encounter.
	waitPhase(t, c, model.PhaseEncounter)
	waitState(t, c.enc, StateAwaitingChoice)
	c.SelectChoice("guarded")
	waitPhase(t, c, model.PhaseEpilogue)

	assert.Equal(t, -3, c.Score(), "deltas sum unconditionally, negatives included")
	tier, _ := c.EarnedEnding()
	assert.Equal(t, model.TierBad, tier, "below every threshold resolves to the bad fallback")
}

func TestCoordinatorNeutralEnding(t *testing.T) {
	src := sessionScenes()
	src.enc.Nodes[0].Options[0].Points = 6 // 2 + 6 = 8, exactly the neutral threshold
	c := newTestCoordinator(src, testSettings())
	playThrough(t, c, "warm")
	waitPhase(t, c, model.PhaseTransition)
	c.Advance()
	waitState(t, c.enc, StateAwaitingChoice)
	c.SelectChoice("steady")
	waitPhase(t, c, model.PhaseEpilogue)

	assert.Equal(t, 8, c.Score())
	tier, _ := c.EarnedEnding()
	assert.Equal(t, model.TierNeutral, tier)
}

func TestCoordinatorRestart(t *testing.T) {
	c := newTestCoordinator(sessionScenes(), testSettings())
	c.Start()
	waitState(t, c.text, StateAwaitingChoice)
	firstRun := eventTexts(c.text.transcript)

	c.SelectChoice("warm")
	waitState(t, c.text, StateTransitionReady)
	require.Equal(t, 2, c.Score())

	c.Restart()
	waitState(t, c.text, StateAwaitingChoice)

	assert.Zero(t, c.Score(), "restart resets the score")
	assert.Equal(t, model.PhaseTextScene, c.Phase())
	assert.False(t, c.EpilogueDone())
	assert.Equal(t, firstRun, eventTexts(c.text.transcript),
		"a restarted session replays the identical opening sequence")
}

func TestCoordinatorMissingScenesFallBack(t *testing.T) {
	c := newTestCoordinator(&stubSource{}, testSettings())
	c.Start()

	// The empty fallback thread is immediately transition-ready…
	waitState(t, c.text, StateTransitionReady)
	c.Advance()
	waitPhase(t, c, model.PhaseTransition)
	c.Advance()

	// …and the empty fallback encounter terminates straight into the epilogue.
	waitPhase(t, c, model.PhaseEpilogue)
	tier, _ := c.EarnedEnding()
	assert.Equal(t, model.TierBad, tier)
}

func TestCoordinatorAdvanceOutOfPhaseIsNoop(t *testing.T) {
	c := newTestCoordinator(sessionScenes(), testSettings())
	c.Start()
	waitState(t, c.text, StateAwaitingChoice)

	// Not transition-ready yet: advancing must not move the phase.
	c.Advance()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, model.PhaseTextScene, c.Phase())

	// Choice input for the wrong runner is ignored too.
	c.enc.SelectChoice("steady")
	assert.Zero(t, c.Score())
}
