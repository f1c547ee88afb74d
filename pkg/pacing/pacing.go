// Package pacing maps message sizes and authored delay hints to wait
// durations. All functions are pure: same inputs, same duration, never
// negative.
package pacing

import "time"

// Mode selects how aggressively playback is paced.
type Mode string

const (
	// ModeFast collapses every wait to a short fixed beat.
	ModeFast Mode = "fast"
	// ModeMedium uses a fixed two-second reading beat.
	ModeMedium Mode = "medium"
	// ModeNative scales waits with message length, like someone typing.
	ModeNative Mode = "native"
)

// Modes lists the valid pacing modes.
var Modes = []Mode{ModeFast, ModeMedium, ModeNative}

// Parse maps a string to a Mode, falling back to medium.
func Parse(s string) Mode {
	for _, m := range Modes {
		if string(m) == s {
			return m
		}
	}
	return ModeMedium
}

// Native-mode typing model: linear in character count with a floor and
// ceiling so very short or very long messages stay readable.
const (
	nativePerChar = 55 * time.Millisecond
	nativeFloor   = 800 * time.Millisecond
	nativeCeil    = 7 * time.Second
)

// MaxScriptedDelay caps authored response delays so a typo in scene data
// cannot stall playback.
const MaxScriptedDelay = 8 * time.Second

// ForText returns the wait before showing a message of the given length.
func ForText(mode Mode, charCount int) time.Duration {
	switch mode {
	case ModeFast:
		return 150 * time.Millisecond
	case ModeNative:
		d := time.Duration(charCount) * nativePerChar
		if d < nativeFloor {
			return nativeFloor
		}
		if d > nativeCeil {
			return nativeCeil
		}
		return d
	default:
		return 2 * time.Second
	}
}

// ForReaction returns the wait before a character reacts. A non-positive
// hint falls back to the text delay for a short line; fast mode ignores the
// hint entirely.
func ForReaction(mode Mode, hintMs int) time.Duration {
	if hintMs <= 0 {
		return ForText(mode, 20)
	}
	if mode == ModeFast {
		return 200 * time.Millisecond
	}
	return time.Duration(hintMs) * time.Millisecond
}

// ForTransition returns the wait on the scene-to-scene transition screen.
func ForTransition(mode Mode) time.Duration {
	switch mode {
	case ModeFast:
		return 0
	case ModeNative:
		return 2500 * time.Millisecond
	default:
		return 1500 * time.Millisecond
	}
}

// Fixed beats used by the scene runners. Kept here so the runners carry no
// magic numbers and tests can reference the same values.
const (
	// BeatPlayerLine separates consecutive player thread messages.
	BeatPlayerLine = 150 * time.Millisecond
	// BeatNPCLine separates consecutive npc thread messages.
	BeatNPCLine = 400 * time.Millisecond
	// BeatEncounterLine separates consecutive encounter dialogue lines.
	BeatEncounterLine = 400 * time.Millisecond
	// BeatBranchLine separates branch lines after a selection.
	BeatBranchLine = 500 * time.Millisecond
	// BeatBranchMessage precedes each branch message in a thread.
	BeatBranchMessage = 250 * time.Millisecond
	// BeatAfterAction follows a narrative action annotation.
	BeatAfterAction = 400 * time.Millisecond
	// BeatAfterNarrative follows a branch narrative annotation.
	BeatAfterNarrative = 500 * time.Millisecond
	// BeatDialogueTail follows the last line of a dialogue block.
	BeatDialogueTail = 300 * time.Millisecond
	// BeatChoiceLookahead precedes the lookahead check for a choice node.
	BeatChoiceLookahead = 200 * time.Millisecond
	// BeatResume follows branch content before the drive loop resumes.
	BeatResume = 400 * time.Millisecond
	// BeatChoicesAppear precedes the choice set becoming visible.
	BeatChoicesAppear = 100 * time.Millisecond
	// BeatEpilogueTail follows the last ending line.
	BeatEpilogueTail = 600 * time.Millisecond
	// ThinkingThresholdLine is the reaction delay above which the thinking
	// flag is raised for a dialogue line instead of waiting silently.
	ThinkingThresholdLine = 500 * time.Millisecond
	// ThinkingThresholdBranch is the same cutoff for post-selection
	// branch content.
	ThinkingThresholdBranch = 400 * time.Millisecond
)

// ForSystemLabel returns the waits around a system label: the beat before
// the label appears and the hold after it.
func ForSystemLabel(mode Mode) (before, after time.Duration) {
	if mode == ModeFast {
		return 200 * time.Millisecond, 300 * time.Millisecond
	}
	return 800 * time.Millisecond, 1200 * time.Millisecond
}

// ForTransitionReady returns the wait before the transition-ready flag is
// raised at the end of a text scene.
func ForTransitionReady(mode Mode) time.Duration {
	if mode == ModeFast {
		return 100 * time.Millisecond
	}
	return 800 * time.Millisecond
}

// ForEncounterOpen returns the wait between the encounter header and the
// first node.
func ForEncounterOpen(mode Mode) time.Duration {
	if mode == ModeFast {
		return 300 * time.Millisecond
	}
	return 1500 * time.Millisecond
}

// ForEpilogueIntro returns the wait before the first ending line.
func ForEpilogueIntro(mode Mode) time.Duration {
	if mode == ModeFast {
		return 300 * time.Millisecond
	}
	return 1200 * time.Millisecond
}
