// Package engine drives authored scene documents: it walks node graphs with
// timed pacing, collects player choices, accumulates a score and resolves
// one of three endings. The presentation layer consumes its output through
// read-only transcript snapshots and event subscriptions.
package engine

import (
	"sync"

	"awarego/pkg/model"
)

// subscriberBuffer sizes the per-subscriber event channel. Slow consumers
// lose events rather than stalling a driver.
const subscriberBuffer = 64

// Transcript is the append-only event log of one scene run, plus the
// transient observation state (typing/thinking flag, current choice set).
// Drivers write; everything else reads.
type Transcript struct {
	mu       sync.RWMutex
	events   []model.Event
	thinking bool
	choices  []model.Choice

	subMu   sync.Mutex
	subs    map[int]chan model.Event
	nextSub int
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{subs: make(map[int]chan model.Event)}
}

// Append adds an event to the log and fans it out to subscribers.
func (t *Transcript) Append(ev model.Event) {
	t.mu.Lock()
	t.events = append(t.events, ev)
	t.mu.Unlock()

	t.subMu.Lock()
	for _, ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	t.subMu.Unlock()
}

// Events returns a copy of the event log.
func (t *Transcript) Events() []model.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.Event, len(t.events))
	copy(out, t.events)
	return out
}

// Len returns the number of logged events.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// SetThinking sets the typing/thinking flag.
func (t *Transcript) SetThinking(v bool) {
	t.mu.Lock()
	t.thinking = v
	t.mu.Unlock()
}

// Thinking reports the typing/thinking flag.
func (t *Transcript) Thinking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.thinking
}

// SetChoices publishes the current choice set.
func (t *Transcript) SetChoices(cs []model.Choice) {
	t.mu.Lock()
	t.choices = cs
	t.mu.Unlock()
}

// Choices returns a copy of the current choice set.
func (t *Transcript) Choices() []model.Choice {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.Choice, len(t.choices))
	copy(out, t.choices)
	return out
}

// Choice returns the published choice with the given tag, or nil.
func (t *Transcript) Choice(tag string) *model.Choice {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.choices {
		if t.choices[i].Tag == tag {
			c := t.choices[i]
			return &c
		}
	}
	return nil
}

// ClearChoices empties the current choice set.
func (t *Transcript) ClearChoices() {
	t.mu.Lock()
	t.choices = nil
	t.mu.Unlock()
}

// Reset clears the log, flag and choice set. Subscriptions survive a reset
// so a presentation client keeps receiving events across replays.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.events = nil
	t.thinking = false
	t.choices = nil
	t.mu.Unlock()
}

// Subscribe registers an event channel. The returned cancel function must
// be called to release it.
func (t *Transcript) Subscribe() (<-chan model.Event, func()) {
	ch := make(chan model.Event, subscriberBuffer)

	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.subMu.Unlock()

	return ch, func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}
