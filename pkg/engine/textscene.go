package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"awarego/pkg/model"
	"awarego/pkg/pacing"
)

// TextSceneRunner walks a text-message thread scene. It owns the scene's
// transcript, keeps at most one drive loop live at a time, and suspends at
// player choices and at the transition-ready marker.
type TextSceneRunner struct {
	scene      *model.TextScene
	settings   Settings
	transcript *Transcript
	wait       WaitFunc

	onPoints     func(int)
	onTransition func()

	mu    sync.Mutex
	idx   int
	state State
	drv   *driver
}

// NewTextSceneRunner creates a runner over an immutable scene document.
// onPoints receives the point value of every selection; onTransition fires
// when the player confirms the transition out of a ready scene.
func NewTextSceneRunner(scene *model.TextScene, settings Settings, onPoints func(int), onTransition func()) *TextSceneRunner {
	return &TextSceneRunner{
		scene:        scene,
		settings:     settings,
		transcript:   NewTranscript(),
		wait:         Wait,
		onPoints:     onPoints,
		onTransition: onTransition,
		state:        StateIdle,
	}
}

// Transcript returns the runner's transcript for read-only consumption.
func (r *TextSceneRunner) Transcript() *Transcript { return r.transcript }

// Scene returns the immutable scene document.
func (r *TextSceneRunner) Scene() *model.TextScene { return r.scene }

// State returns the runner's current lifecycle state.
func (r *TextSceneRunner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// TransitionReady reports whether the scene is suspended waiting for the
// transition trigger.
func (r *TextSceneRunner) TransitionReady() bool {
	return r.State() == StateTransitionReady
}

// TriggerTransition fires the transition callback. Valid only while the
// runner is suspended at the transition marker.
func (r *TextSceneRunner) TriggerTransition() {
	if r.State() != StateTransitionReady {
		return
	}
	r.onTransition()
}

// Start resets the scene to node 0 and begins the drive loop. Any in-flight
// driver is cancelled and awaited first, so no event from a previous run
// can appear after Start returns.
func (r *TextSceneRunner) Start() {
	r.stopDriver()

	r.mu.Lock()
	r.idx = 0
	r.state = StateRunning
	r.transcript.Reset()
	d := newDriver()
	r.drv = d
	r.mu.Unlock()

	d.run(r.drive)
}

// Stop cancels any in-flight driver and awaits its exit.
func (r *TextSceneRunner) Stop() {
	r.stopDriver()
}

func (r *TextSceneRunner) stopDriver() {
	r.mu.Lock()
	d := r.drv
	r.drv = nil
	r.mu.Unlock()
	if d != nil {
		d.stop()
	}
}

// SelectChoice handles the player picking an option while the runner is
// suspended at a choice. Unknown tags are recovered by advancing one node.
func (r *TextSceneRunner) SelectChoice(tag string) {
	r.mu.Lock()
	if r.state != StateAwaitingChoice {
		r.mu.Unlock()
		return
	}
	d := r.drv
	r.drv = nil
	r.mu.Unlock()
	if d != nil {
		d.stop()
	}

	r.mu.Lock()
	picked := r.transcript.Choice(tag)
	r.transcript.ClearChoices()
	if picked != nil {
		r.transcript.Append(model.NewEvent(model.EventPlayerLine, picked.Text))
		r.onPoints(picked.Points)
	}

	node := &r.scene.Nodes[r.idx]
	opt := node.Option(tag)
	if opt == nil {
		if picked != nil {
			slog.Warn("Choice tag has no matching option, advancing", "scene", r.scene.SceneID, "node", node.ID, "tag", tag)
		}
		r.idx++
		r.state = StateRunning
		nd := newDriver()
		r.drv = nd
		r.mu.Unlock()
		nd.run(r.drive)
		return
	}

	r.state = StateRunning
	nd := newDriver()
	r.drv = nd
	r.mu.Unlock()
	nd.run(func(ctx context.Context) { r.runBranch(ctx, opt) })
}

// runBranch plays an option's follow-up messages, then decides where the
// walk resumes.
func (r *TextSceneRunner) runBranch(ctx context.Context, opt *model.TextOption) {
	mode := r.settings.Pacing(ctx)
	lang := r.settings.Language(ctx)

	if len(opt.BranchMessages) > 0 {
		total := 0
		for _, m := range opt.BranchMessages {
			total += len([]rune(m.Resolve(lang)))
		}
		r.transcript.SetThinking(true)
		err := r.wait(ctx, pacing.ForText(mode, total))
		r.transcript.SetThinking(false)
		if err != nil {
			return
		}
		for _, m := range opt.BranchMessages {
			if r.wait(ctx, pacing.BeatBranchMessage) != nil {
				return
			}
			r.transcript.Append(model.NewEvent(model.EventNPCLine, m.Resolve(lang)))
		}
	}

	if r.wait(ctx, pacing.BeatResume) != nil {
		return
	}

	r.mu.Lock()
	r.idx++
	idx := r.idx
	r.mu.Unlock()

	if idx >= len(r.scene.Nodes) {
		r.becomeReady(ctx, 0)
		return
	}

	// An upcoming transition marker suspends the scene without emitting the
	// block it is attached to.
	next := &r.scene.Nodes[idx]
	if next.Kind == model.NodeKindMessage && next.SystemEvent == model.EventTransitionToEncounter {
		r.becomeReady(ctx, pacing.ForTransitionReady(mode))
		return
	}

	r.drive(ctx)
}

// drive walks nodes from the current index until it suspends, finishes or
// is cancelled.
func (r *TextSceneRunner) drive(ctx context.Context) {
	nodes := r.scene.Nodes
	for {
		if ctx.Err() != nil {
			return
		}
		mode := r.settings.Pacing(ctx)

		r.mu.Lock()
		idx := r.idx
		r.mu.Unlock()
		if idx >= len(nodes) {
			// Exhausting the node sequence is an implicit end.
			r.becomeReady(ctx, 0)
			return
		}

		node := &nodes[idx]
		switch node.Kind {
		case model.NodeKindMessage:
			if !r.emitMessages(ctx, node) {
				return
			}
			if node.SystemEvent == model.EventTransitionToEncounter {
				r.becomeReady(ctx, pacing.ForTransitionReady(mode))
				return
			}
			if r.wait(ctx, pacing.BeatChoiceLookahead) != nil {
				return
			}
			if idx+1 < len(nodes) && nodes[idx+1].Kind == model.NodeKindPlayerChoice && len(nodes[idx+1].Options) > 0 {
				r.setIndex(idx + 1)
				r.presentChoices(ctx, &nodes[idx+1])
				return
			}
			r.setIndex(idx + 1)

		case model.NodeKindPlayerChoice:
			if len(node.Options) == 0 {
				slog.Warn("Choice node has no options, skipping", "scene", r.scene.SceneID, "node", node.ID)
				r.setIndex(idx + 1)
				continue
			}
			r.presentChoices(ctx, node)
			return

		case model.NodeKindSystemEvent:
			if node.Label != nil {
				before, after := pacing.ForSystemLabel(mode)
				if r.wait(ctx, before) != nil {
					return
				}
				lang := r.settings.Language(ctx)
				r.transcript.Append(model.NewEvent(model.EventSystemLabel, node.Label.Resolve(lang)))
				if r.wait(ctx, after) != nil {
					return
				}
			}
			r.setIndex(idx + 1)

		default:
			// Forward-compatible skip.
			r.setIndex(idx + 1)
		}
	}
}

// emitMessages plays one message block. Returns false if cancelled.
func (r *TextSceneRunner) emitMessages(ctx context.Context, node *model.TextNode) bool {
	if len(node.Messages) == 0 {
		return true
	}
	mode := r.settings.Pacing(ctx)
	lang := r.settings.Language(ctx)

	sender := node.Sender
	if sender == "" {
		sender = "Andreas"
	}
	isPlayer := sender == model.PlayerSpeaker
	kind := model.EventNPCLine
	if isPlayer {
		kind = model.EventPlayerLine
	}

	if !isPlayer {
		total := 0
		for _, m := range node.Messages {
			total += len([]rune(m.Resolve(lang)))
		}
		r.transcript.SetThinking(true)
		err := r.wait(ctx, pacing.ForText(mode, total))
		r.transcript.SetThinking(false)
		if err != nil {
			return false
		}
	}

	for i, m := range node.Messages {
		if ctx.Err() != nil {
			return false
		}
		r.transcript.Append(model.NewEvent(kind, m.Resolve(lang)))
		if i < len(node.Messages)-1 {
			beat := pacing.BeatNPCLine
			if isPlayer {
				beat = pacing.BeatPlayerLine
			}
			if r.wait(ctx, beat) != nil {
				return false
			}
		}
	}

	// Scripted pause after a player block, native pacing only.
	if isPlayer && node.ResponseDelayMs > 0 && mode == pacing.ModeNative {
		d := time.Duration(node.ResponseDelayMs) * time.Millisecond
		if d > pacing.MaxScriptedDelay {
			d = pacing.MaxScriptedDelay
		}
		r.transcript.SetThinking(true)
		err := r.wait(ctx, d)
		r.transcript.SetThinking(false)
		if err != nil {
			return false
		}
	}
	return true
}

// presentChoices publishes a node's options and suspends. Callers must have
// checked that the node has options.
func (r *TextSceneRunner) presentChoices(ctx context.Context, node *model.TextNode) {
	if r.wait(ctx, pacing.BeatChoicesAppear) != nil {
		return
	}
	lang := r.settings.Language(ctx)

	cs := make([]model.Choice, 0, len(node.Options))
	for _, o := range node.Options {
		cs = append(cs, model.Choice{Tag: o.OptionID, Text: o.Text.Resolve(lang), Points: o.Points})
	}

	r.mu.Lock()
	r.state = StateAwaitingChoice
	r.mu.Unlock()
	r.transcript.SetChoices(cs)
}

// becomeReady raises the transition-ready suspension after an optional beat.
func (r *TextSceneRunner) becomeReady(ctx context.Context, beat time.Duration) {
	if beat > 0 && r.wait(ctx, beat) != nil {
		return
	}
	if ctx.Err() != nil {
		return
	}
	r.mu.Lock()
	r.state = StateTransitionReady
	r.mu.Unlock()
}

func (r *TextSceneRunner) setIndex(i int) {
	r.mu.Lock()
	r.idx = i
	r.mu.Unlock()
}
