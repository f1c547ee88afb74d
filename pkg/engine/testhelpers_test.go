package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"awarego/pkg/model"
	"awarego/pkg/pacing"

	"github.com/stretchr/testify/assert"
)

// instantWait skips every delay but still observes cancellation.
func instantWait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// gateWait blocks the nth call until the context is cancelled and is
// instant for every other call. Used to freeze a driver mid-wait.
func gateWait(blockCall int32) WaitFunc {
	var calls int32
	return func(ctx context.Context, _ time.Duration) error {
		if atomic.AddInt32(&calls, 1) == blockCall {
			<-ctx.Done()
			return ctx.Err()
		}
		return ctx.Err()
	}
}

// pointsRecorder collects reported score deltas.
type pointsRecorder struct {
	mu     sync.Mutex
	deltas []int
}

func (p *pointsRecorder) add(d int) {
	p.mu.Lock()
	p.deltas = append(p.deltas, d)
	p.mu.Unlock()
}

func (p *pointsRecorder) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sum := 0
	for _, d := range p.deltas {
		sum += d
	}
	return sum
}

func testSettings() Settings {
	return StaticSettings{Lang: model.LangEnglish, Mode: pacing.ModeMedium}
}

func waitState[S interface{ State() State }](t *testing.T, r S, want State) {
	t.Helper()
	assert.Eventually(t, func() bool { return r.State() == want }, 2*time.Second, 2*time.Millisecond,
		"runner never reached state %s (now %s)", want, r.State())
}

// eventKinds flattens a transcript to its event kinds.
func eventKinds(tr *Transcript) []model.EventKind {
	evs := tr.Events()
	out := make([]model.EventKind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

// eventTexts flattens a transcript to its event texts.
func eventTexts(tr *Transcript) []string {
	evs := tr.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Text
	}
	return out
}

func en(s string) model.LText { return model.LText{EN: s} }
