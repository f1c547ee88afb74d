package engine

import (
	"context"
	"log/slog"
	"sync"

	"awarego/pkg/model"
	"awarego/pkg/pacing"
)

// EncounterRunner walks an in-person encounter scene. Same shape as the
// text-scene runner, but it opens with a location/atmosphere header, raises
// the thinking flag during long reaction delays, and is terminal on a
// system_event node instead of suspending at a transition marker.
type EncounterRunner struct {
	scene      *model.Encounter
	settings   Settings
	transcript *Transcript
	wait       WaitFunc

	onPoints func(int)
	onFinish func()

	mu       sync.Mutex
	idx      int
	state    State
	finished bool
	drv      *driver
}

// NewEncounterRunner creates a runner over an immutable encounter document.
// onFinish fires exactly once when the encounter reaches a terminal state.
func NewEncounterRunner(scene *model.Encounter, settings Settings, onPoints func(int), onFinish func()) *EncounterRunner {
	return &EncounterRunner{
		scene:      scene,
		settings:   settings,
		transcript: NewTranscript(),
		wait:       Wait,
		onPoints:   onPoints,
		onFinish:   onFinish,
		state:      StateIdle,
	}
}

// Transcript returns the runner's transcript for read-only consumption.
func (r *EncounterRunner) Transcript() *Transcript { return r.transcript }

// Scene returns the immutable scene document.
func (r *EncounterRunner) Scene() *model.Encounter { return r.scene }

// State returns the runner's current lifecycle state.
func (r *EncounterRunner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start resets the scene, emits the header synchronously and begins the
// drive loop after the opening beat. A previous driver is cancelled and
// awaited first.
func (r *EncounterRunner) Start() {
	r.stopDriver()

	r.mu.Lock()
	r.idx = 0
	r.state = StateRunning
	r.finished = false
	r.transcript.Reset()

	ctx := context.Background()
	lang := r.settings.Language(ctx)
	r.transcript.Append(model.NewEvent(model.EventSystemLabel, r.scene.Location.Resolve(lang)))
	r.transcript.Append(model.NewEvent(model.EventAction, r.scene.Atmosphere.Resolve(lang)))

	d := newDriver()
	r.drv = d
	r.mu.Unlock()

	d.run(func(ctx context.Context) {
		if r.wait(ctx, pacing.ForEncounterOpen(r.settings.Pacing(ctx))) != nil {
			return
		}
		r.drive(ctx)
	})
}

// Stop cancels any in-flight driver and awaits its exit.
func (r *EncounterRunner) Stop() {
	r.stopDriver()
}

func (r *EncounterRunner) stopDriver() {
	r.mu.Lock()
	d := r.drv
	r.drv = nil
	r.mu.Unlock()
	if d != nil {
		d.stop()
	}
}

// SelectChoice handles the player picking an option while suspended at a
// choice. Unknown tags are recovered by advancing one node.
func (r *EncounterRunner) SelectChoice(tag string) {
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

// runBranch plays an option's reaction and branch content, then resumes the
// walk one node past the choice.
func (r *EncounterRunner) runBranch(ctx context.Context, opt *model.EncounterOption) {
	mode := r.settings.Pacing(ctx)
	lang := r.settings.Language(ctx)

	delay := pacing.ForReaction(mode, opt.ReactionDelayMs)
	if delay > pacing.ThinkingThresholdBranch {
		r.transcript.SetThinking(true)
		err := r.wait(ctx, delay)
		r.transcript.SetThinking(false)
		if err != nil {
			return
		}
	} else if r.wait(ctx, delay) != nil {
		return
	}

	if opt.BranchNarrative != nil {
		r.transcript.Append(model.NewEvent(model.EventAction, opt.BranchNarrative.Resolve(lang)))
		if r.wait(ctx, pacing.BeatAfterNarrative) != nil {
			return
		}
	}

	for i, line := range opt.BranchLines {
		if ctx.Err() != nil {
			return
		}
		r.transcript.Append(model.NewEvent(model.EventNPCLine, line.Resolve(lang)))
		if i < len(opt.BranchLines)-1 {
			if r.wait(ctx, pacing.BeatBranchLine) != nil {
				return
			}
		}
	}

	if r.wait(ctx, pacing.BeatResume) != nil {
		return
	}

	r.mu.Lock()
	r.idx++
	r.mu.Unlock()
	r.drive(ctx)
}

// drive walks nodes from the current index until it suspends, finishes or
// is cancelled.
func (r *EncounterRunner) drive(ctx context.Context) {
	nodes := r.scene.Nodes
	for {
		if ctx.Err() != nil {
			return
		}
		mode := r.settings.Pacing(ctx)
		lang := r.settings.Language(ctx)

		r.mu.Lock()
		idx := r.idx
		r.mu.Unlock()
		if idx >= len(nodes) {
			r.finish(ctx)
			return
		}

		node := &nodes[idx]
		switch node.Kind {
		case model.NodeKindNarrative:
			if node.Description != nil {
				text := node.Description.Resolve(lang)
				r.transcript.Append(model.NewEvent(model.EventNarrative, text))
				if r.wait(ctx, pacing.ForText(mode, len([]rune(text)))) != nil {
					return
				}
			}
			r.setIndex(idx + 1)

		case model.NodeKindDialogue:
			if !r.emitDialogue(ctx, node) {
				return
			}
			if idx+1 < len(nodes) && nodes[idx+1].Kind == model.NodeKindPlayerChoice && len(nodes[idx+1].Options) > 0 {
				r.setIndex(idx + 1)
				r.presentChoices(&nodes[idx+1])
				return
			}
			r.setIndex(idx + 1)

		case model.NodeKindPlayerChoice:
			if len(node.Options) == 0 {
				slog.Warn("Choice node has no options, skipping", "scene", r.scene.SceneID, "node", node.ID)
				r.setIndex(idx + 1)
				continue
			}
			r.presentChoices(node)
			return

		case model.NodeKindSystemEvent:
			r.finish(ctx)
			return

		default:
			r.setIndex(idx + 1)
		}
	}
}

// emitDialogue plays one dialogue block. Returns false if cancelled.
func (r *EncounterRunner) emitDialogue(ctx context.Context, node *model.EncounterNode) bool {
	mode := r.settings.Pacing(ctx)
	lang := r.settings.Language(ctx)
	isPlayer := node.Speaker == model.PlayerSpeaker

	if node.NarrativeAction != nil {
		r.transcript.Append(model.NewEvent(model.EventAction, node.NarrativeAction.Resolve(lang)))
		if r.wait(ctx, pacing.BeatAfterAction) != nil {
			return false
		}
	}

	if !isPlayer && node.ReactionDelayMs > 0 {
		delay := pacing.ForReaction(mode, node.ReactionDelayMs)
		if delay > pacing.ThinkingThresholdLine {
			r.transcript.SetThinking(true)
			err := r.wait(ctx, delay)
			r.transcript.SetThinking(false)
			if err != nil {
				return false
			}
		} else if r.wait(ctx, delay) != nil {
			return false
		}
	}

	kind := model.EventNPCLine
	if isPlayer {
		kind = model.EventPlayerLine
	}
	for i, line := range node.Lines {
		if ctx.Err() != nil {
			return false
		}
		r.transcript.Append(model.NewEvent(kind, line.Resolve(lang)))
		if i < len(node.Lines)-1 {
			if r.wait(ctx, pacing.BeatEncounterLine) != nil {
				return false
			}
		}
	}

	return r.wait(ctx, pacing.BeatDialogueTail) == nil
}

// presentChoices publishes a node's options and suspends. Callers must have
// checked that the node has options.
func (r *EncounterRunner) presentChoices(node *model.EncounterNode) {
	lang := r.settings.Language(context.Background())

	cs := make([]model.Choice, 0, len(node.Options))
	for _, o := range node.Options {
		cs = append(cs, model.Choice{Tag: o.OptionID, Text: o.Text.Resolve(lang), Points: o.Points})
	}

	r.mu.Lock()
	r.state = StateAwaitingChoice
	r.mu.Unlock()
	r.transcript.SetChoices(cs)
}

// finish marks the encounter terminal and fires onFinish exactly once.
func (r *EncounterRunner) finish(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	r.state = StateTerminal
	r.mu.Unlock()
	r.onFinish()
}

func (r *EncounterRunner) setIndex(i int) {
	r.mu.Lock()
	r.idx = i
	r.mu.Unlock()
}
