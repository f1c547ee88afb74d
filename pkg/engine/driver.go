package engine

import (
	"context"
	"time"

	"awarego/pkg/model"
	"awarego/pkg/pacing"
)

// Settings supplies the user preferences a runner reads on every text and
// delay computation.
type Settings interface {
	Language(ctx context.Context) model.Language
	Pacing(ctx context.Context) pacing.Mode
}

// StaticSettings is a fixed Settings snapshot, handy for tests and
// defaults.
type StaticSettings struct {
	Lang model.Language
	Mode pacing.Mode
}

func (s StaticSettings) Language(context.Context) model.Language { return s.Lang }
func (s StaticSettings) Pacing(context.Context) pacing.Mode      { return s.Mode }

// WaitFunc pauses for d or until the context is cancelled, returning the
// context error on cancellation. Runners take it as a dependency so tests
// can run the drive loops without real delays.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Wait is the production WaitFunc.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State is a runner's position in its lifecycle.
type State string

const (
	StateIdle           State = "idle"
	StateRunning        State = "running"
	StateAwaitingChoice State = "awaiting_choice"
	// StateTransitionReady is the text-scene-specific suspension: the scene
	// is done but waits for an explicit external trigger.
	StateTransitionReady State = "transition_ready"
	StateTerminal        State = "terminal"
)

// driver is one cancellable drive-loop invocation. At most one driver per
// runner is live at a time; stop blocks until the goroutine has exited, so
// a stopped driver can emit nothing afterwards.
type driver struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newDriver() *driver {
	ctx, cancel := context.WithCancel(context.Background())
	return &driver{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

func (d *driver) stop() {
	d.cancel()
	<-d.done
}

// run executes fn on a fresh goroutine, closing done on exit.
func (d *driver) run(fn func(ctx context.Context)) {
	go func() {
		defer close(d.done)
		fn(d.ctx)
	}()
}
