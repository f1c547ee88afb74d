package engine

import (
	"context"
	"log/slog"
	"sync"

	"awarego/pkg/model"
	"awarego/pkg/pacing"
)

// SceneSource supplies the coordinator's scene documents.
type SceneSource interface {
	LoadTextScene(name string) (*model.TextScene, error)
	LoadEncounter(name string) (*model.Encounter, error)
}

// Coordinator owns one play-through: the phase machine, the score
// accumulator, the two scene runners and the epilogue playback. All player
// input goes through it.
type Coordinator struct {
	settings Settings
	wait     WaitFunc

	text *TextSceneRunner
	enc  *EncounterRunner

	mu       sync.Mutex
	phase    model.Phase
	score    int
	epilogue *Transcript
	epiDone  bool
	epiDrv   *driver
}

// NewCoordinator loads the session's scenes from src and wires the runners.
// A missing or unreadable scene degrades to an empty, immediately-terminal
// one; the session never fails to construct.
func NewCoordinator(src SceneSource, settings Settings, textName, encounterName string) *Coordinator {
	c := &Coordinator{
		settings: settings,
		wait:     Wait,
		phase:    model.PhaseTextScene,
		epilogue: NewTranscript(),
	}

	ts, err := src.LoadTextScene(textName)
	if err != nil {
		slog.Warn("Text scene unavailable, using empty fallback", "scene", textName, "error", err)
		ts = &model.TextScene{Chapter: 1, SceneID: "fallback", SceneType: "text_message_thread"}
	}
	enc, err := src.LoadEncounter(encounterName)
	if err != nil {
		slog.Warn("Encounter unavailable, using empty fallback", "scene", encounterName, "error", err)
		enc = &model.Encounter{
			Chapter:   1,
			SceneID:   "fallback",
			SceneType: "in_person_interaction",
			Endings: model.Endings{
				Good:    model.Ending{Threshold: 14},
				Neutral: model.Ending{Threshold: 8},
				Bad:     model.Ending{Threshold: 0},
			},
		}
	}

	c.text = NewTextSceneRunner(ts, settings, c.AddPoints, c.AdvanceToTransition)
	c.enc = NewEncounterRunner(enc, settings, c.AddPoints, c.FinishEncounter)
	return c
}

// Settings returns the playback settings in effect.
func (c *Coordinator) Settings() Settings { return c.settings }

// TextScene returns the text-scene runner.
func (c *Coordinator) TextScene() *TextSceneRunner { return c.text }

// Encounter returns the encounter runner.
func (c *Coordinator) Encounter() *EncounterRunner { return c.enc }

// EpilogueTranscript returns the epilogue's transcript.
func (c *Coordinator) EpilogueTranscript() *Transcript { return c.epilogue }

// Phase returns the current phase.
func (c *Coordinator) Phase() model.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Score returns the accumulated score.
func (c *Coordinator) Score() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

// EpilogueDone reports whether the epilogue has finished playing.
func (c *Coordinator) EpilogueDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epiDone
}

// AddPoints adds a selection's point value to the score. Deltas are summed
// unconditionally and may be negative.
func (c *Coordinator) AddPoints(p int) {
	c.mu.Lock()
	c.score += p
	c.mu.Unlock()
}

// Start begins a play-through from the text scene.
func (c *Coordinator) Start() {
	c.mu.Lock()
	c.phase = model.PhaseTextScene
	c.mu.Unlock()
	c.text.Start()
}

// AdvanceToTransition moves out of a finished text scene. Fast pacing
// elides the transition screen and goes straight to the encounter.
func (c *Coordinator) AdvanceToTransition() {
	if c.Phase() != model.PhaseTextScene {
		return
	}
	if c.settings.Pacing(context.Background()) == pacing.ModeFast {
		c.setPhase(model.PhaseEncounter)
		c.enc.Start()
		return
	}
	c.setPhase(model.PhaseTransition)
}

// BeginEncounter confirms the transition screen and starts the encounter.
func (c *Coordinator) BeginEncounter() {
	if c.Phase() != model.PhaseTransition {
		return
	}
	c.setPhase(model.PhaseEncounter)
	c.enc.Start()
}

// FinishEncounter moves to the epilogue and begins its playback.
func (c *Coordinator) FinishEncounter() {
	if c.Phase() != model.PhaseEncounter {
		return
	}
	c.setPhase(model.PhaseEpilogue)
	c.startEpilogue()
}

// SelectChoice routes a selection to whichever runner is awaiting one.
func (c *Coordinator) SelectChoice(tag string) {
	switch c.Phase() {
	case model.PhaseTextScene:
		c.text.SelectChoice(tag)
	case model.PhaseEncounter:
		c.enc.SelectChoice(tag)
	}
}

// Advance handles the explicit user confirmation for the current phase:
// leaving a ready text scene, or starting the encounter from the
// transition screen.
func (c *Coordinator) Advance() {
	switch c.Phase() {
	case model.PhaseTextScene:
		c.text.TriggerTransition()
	case model.PhaseTransition:
		c.BeginEncounter()
	}
}

// EarnedEnding resolves the ending tier for the current score.
func (c *Coordinator) EarnedEnding() (model.Tier, model.Ending) {
	return c.enc.scene.Endings.Resolve(c.Score())
}

// Restart tears down every driver, resets the score and replays from the
// text scene. Session state is not persisted across restarts.
func (c *Coordinator) Restart() {
	c.stopEpilogue()
	c.enc.Stop()
	c.text.Stop()

	c.mu.Lock()
	c.score = 0
	c.phase = model.PhaseTextScene
	c.epiDone = false
	c.mu.Unlock()
	c.epilogue.Reset()

	c.text.Start()
}

// Stop tears down every driver without restarting. Used on shutdown.
func (c *Coordinator) Stop() {
	c.stopEpilogue()
	c.enc.Stop()
	c.text.Stop()
}

func (c *Coordinator) setPhase(p model.Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// startEpilogue plays the earned ending: the post-scene label immediately,
// then each final text on the usual text pacing.
func (c *Coordinator) startEpilogue() {
	c.stopEpilogue()

	tier, ending := c.EarnedEnding()

	c.mu.Lock()
	c.epiDone = false
	c.epilogue.Reset()
	d := newDriver()
	c.epiDrv = d
	c.mu.Unlock()

	d.run(func(ctx context.Context) {
		mode := c.settings.Pacing(ctx)
		lang := c.settings.Language(ctx)

		c.epilogue.Append(model.NewEvent(model.EventSystemLabel, ending.PostSceneLabel.Resolve(lang)))
		if c.wait(ctx, pacing.ForEpilogueIntro(mode)) != nil {
			return
		}

		for _, t := range ending.FinalTexts {
			text := t.Resolve(lang)
			if c.wait(ctx, pacing.ForText(mode, len([]rune(text)))) != nil {
				return
			}
			ev := model.NewEvent(model.EventEndingLine, text)
			ev.Tier = tier
			c.epilogue.Append(ev)
		}

		if c.wait(ctx, pacing.BeatEpilogueTail) != nil {
			return
		}
		c.mu.Lock()
		c.epiDone = true
		c.mu.Unlock()
	})
}

func (c *Coordinator) stopEpilogue() {
	c.mu.Lock()
	d := c.epiDrv
	c.epiDrv = nil
	c.mu.Unlock()
	if d != nil {
		d.stop()
	}
}
