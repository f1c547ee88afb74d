package engine

import (
	"testing"
	"time"

	"awarego/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textNode(kind model.NodeKind, n model.TextNode) model.TextNode {
	n.Kind = kind
	return n
}

func threadScene(nodes ...model.TextNode) *model.TextScene {
	return &model.TextScene{Chapter: 1, SceneID: "test", SceneType: "text_message_thread", Nodes: nodes}
}

func choiceNode(opts ...model.TextOption) model.TextNode {
	return textNode(model.NodeKindPlayerChoice, model.TextNode{ID: "choice", Options: opts})
}

func TestTextSceneWalkToChoice(t *testing.T) {
	sc := threadScene(
		textNode(model.NodeKindMessage, model.TextNode{ID: "m1", Sender: "Andreas", Messages: []model.LText{en("hi")}}),
		choiceNode(
			model.TextOption{OptionID: "a", Text: en("Option A"), Points: 1},
			model.TextOption{OptionID: "b", Text: en("Option B"), Points: -1},
		),
	)

	r := NewTextSceneRunner(sc, testSettings(), func(int) {}, func() {})
	r.wait = instantWait
	r.Start()
	waitState(t, r, StateAwaitingChoice)

	require.Equal(t, []model.EventKind{model.EventNPCLine}, eventKinds(r.transcript))
	assert.Equal(t, []string{"hi"}, eventTexts(r.transcript))

	cs := r.transcript.Choices()
	require.Len(t, cs, 2)
	assert.Equal(t, "a", cs[0].Tag)
	assert.Equal(t, "Option A", cs[0].Text)
	assert.Equal(t, 1, cs[0].Points)
	assert.Equal(t, "b", cs[1].Tag)
}

func TestTextSceneSelectChoiceNoBranch(t *testing.T) {
	sc := threadScene(
		textNode(model.NodeKindMessage, model.TextNode{ID: "m1", Sender: "Andreas", Messages: []model.LText{en("hi")}}),
		choiceNode(model.TextOption{OptionID: "a", Text: en("Option A"), Points: 1}),
	)

	points := &pointsRecorder{}
	r := NewTextSceneRunner(sc, testSettings(), points.add, func() {})
	r.wait = instantWait
	r.Start()
	waitState(t, r, StateAwaitingChoice)

	r.SelectChoice("a")
	waitState(t, r, StateTransitionReady)

	assert.Equal(t, 1, points.total())
	assert.Equal(t, []model.EventKind{model.EventNPCLine, model.EventPlayerLine}, eventKinds(r.transcript))
	assert.Equal(t, "Option A", r.transcript.Events()[1].Text)
	assert.Empty(t, r.transcript.Choices())

	// No further events after the scene settled.
	n := r.transcript.Len()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, r.transcript.Len())
}

func TestTextSceneSelectChoiceWithBranch(t *testing.T) {
	sc := threadScene(
		choiceNode(model.TextOption{
			OptionID:       "a",
			Text:           en("Tell me"),
			Points:         2,
			BranchMessages: []model.LText{en("so."), en("listen.")},
		}),
		textNode(model.NodeKindMessage, model.TextNode{ID: "m2", Sender: "Andreas", Messages: []model.LText{en("done")}}),
	)

	points := &pointsRecorder{}
	r := NewTextSceneRunner(sc, testSettings(), points.add, func() {})
	r.wait = instantWait
	r.Start()
	waitState(t, r, StateAwaitingChoice)

	r.SelectChoice("a")
	waitState(t, r, StateTransitionReady)

	assert.Equal(t, 2, points.total())
	assert.Equal(t, []string{"Tell me", "so.", "listen.", "done"}, eventTexts(r.transcript))
	assert.Equal(t,
		[]model.EventKind{model.EventPlayerLine, model.EventNPCLine, model.EventNPCLine, model.EventNPCLine},
		eventKinds(r.transcript))
}

func TestTextSceneDanglingChoiceAdvances(t *testing.T) {
	sc := threadScene(
		choiceNode(model.TextOption{OptionID: "a", Text: en("A"), Points: 1}),
		textNode(model.NodeKindMessage, model.TextNode{ID: "m2", Sender: "Andreas", Messages: []model.LText{en("after")}}),
	)

	points := &pointsRecorder{}
	r := NewTextSceneRunner(sc, testSettings(), points.add, func() {})
	r.wait = instantWait
	r.Start()
	waitState(t, r, StateAwaitingChoice)

	// Tag matches nothing: recover by advancing one node, no points.
	r.SelectChoice("ghost")
	waitState(t, r, StateTransitionReady)

	assert.Zero(t, points.total())
	assert.Equal(t, []string{"after"}, eventTexts(r.transcript))
}

func TestTextSceneDoubleStartSuppressesFirstRun(t *testing.T) {
	sc := threadScene(
		textNode(model.NodeKindMessage, model.TextNode{ID: "m1", Sender: "Andreas", Messages: []model.LText{en("hi")}}),
		choiceNode(model.TextOption{OptionID: "a", Text: en("A"), Points: 1}),
	)

	r := NewTextSceneRunner(sc, testSettings(), func(int) {}, func() {})
	// First run freezes in its opening typing delay and emits nothing.
	r.wait = gateWait(1)
	r.Start()

	// Second start cancels and awaits the first driver before resetting.
	r.Start()
	waitState(t, r, StateAwaitingChoice)

	assert.Equal(t, []string{"hi"}, eventTexts(r.transcript), "only the second run's events may appear")

	n := r.transcript.Len()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, r.transcript.Len(), "first driver must stay silent after restart")
}

func TestTextSceneCancelMidWait(t *testing.T) {
	sc := threadScene(
		textNode(model.NodeKindMessage, model.TextNode{ID: "m1", Sender: "Andreas", Messages: []model.LText{en("hi")}}),
	)

	r := NewTextSceneRunner(sc, testSettings(), func(int) {}, func() {})
	r.wait = gateWait(1)
	r.Start()

	// The driver is frozen in the typing delay before the first message.
	assert.Eventually(t, func() bool { return r.transcript.Thinking() }, 2*time.Second, 2*time.Millisecond)

	r.Stop()

	assert.False(t, r.transcript.Thinking(), "cancellation must clear the typing flag")
	r.mu.Lock()
	idx := r.idx
	r.mu.Unlock()
	assert.Zero(t, idx, "cancellation must not advance the node index")
	assert.Zero(t, r.transcript.Len(), "no event may be emitted after cancellation")
}

func TestTextSceneTransitionMarker(t *testing.T) {
	sc := threadScene(
		textNode(model.NodeKindSystemEvent, model.TextNode{ID: "s1", Event: "time_skip", Label: &model.LText{EN: "— later —"}}),
		textNode(model.NodeKindMessage, model.TextNode{
			ID: "m1", Sender: "Andreas",
			SystemEvent: model.EventTransitionToEncounter,
			Messages:    []model.LText{en("come outside")},
		}),
	)

	fired := make(chan struct{}, 1)
	r := NewTextSceneRunner(sc, testSettings(), func(int) {}, func() { fired <- struct{}{} })
	r.wait = instantWait
	r.Start()
	waitState(t, r, StateTransitionReady)

	assert.Equal(t, []string{"— later —", "come outside"}, eventTexts(r.transcript))
	assert.Equal(t,
		[]model.EventKind{model.EventSystemLabel, model.EventNPCLine},
		eventKinds(r.transcript))

	// The ready state waits for the explicit trigger; nothing fires on its own.
	select {
	case <-fired:
		t.Fatal("transition fired without an explicit trigger")
	default:
	}

	r.TriggerTransition()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("transition trigger did not fire")
	}
}

func TestTextSceneUnknownKindSkipped(t *testing.T) {
	sc := threadScene(
		textNode(model.NodeKindUnknown, model.TextNode{ID: "x1", Type: "hologram_block"}),
		textNode(model.NodeKindMessage, model.TextNode{ID: "m1", Sender: "Andreas", Messages: []model.LText{en("hi")}}),
	)

	r := NewTextSceneRunner(sc, testSettings(), func(int) {}, func() {})
	r.wait = instantWait
	r.Start()
	waitState(t, r, StateTransitionReady)

	assert.Equal(t, []string{"hi"}, eventTexts(r.transcript))
}

func TestTextSceneEmptySceneImmediatelyReady(t *testing.T) {
	r := NewTextSceneRunner(threadScene(), testSettings(), func(int) {}, func() {})
	r.wait = instantWait
	r.Start()
	waitState(t, r, StateTransitionReady)
	assert.Zero(t, r.transcript.Len())
}

func TestTextSceneRestartReplayIdentical(t *testing.T) {
	sc := threadScene(
		textNode(model.NodeKindMessage, model.TextNode{ID: "m1", Sender: "Andreas", Messages: []model.LText{en("hi"), en("you there?")}}),
		choiceNode(model.TextOption{OptionID: "a", Text: en("A"), Points: 1}),
	)

	r := NewTextSceneRunner(sc, testSettings(), func(int) {}, func() {})
	r.wait = instantWait

	r.Start()
	waitState(t, r, StateAwaitingChoice)
	first := eventTexts(r.transcript)

	r.Start()
	waitState(t, r, StateAwaitingChoice)
	assert.Equal(t, first, eventTexts(r.transcript), "a clean restart must replay the identical sequence")
}
