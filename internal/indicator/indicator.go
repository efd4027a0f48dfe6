// Package indicator animates the recording/playback status light. It only
// observes controller transitions and never calls back into the controller.
package indicator

import (
	"context"
	"time"

	"github.com/hpungsan/remind/internal/clock"
	"github.com/hpungsan/remind/internal/session"
)

const (
	// Frames is the number of animation frames; frame 0 is the resting image.
	Frames = 7
	// Period is the time each frame stays on screen.
	Period = 600 * time.Millisecond
)

// Animator cycles frames while audio is active.
type Animator struct {
	clock  clock.Clock
	render func(frame int)
	period time.Duration
}

// New returns an animator that draws through render.
func New(clk clock.Clock, render func(frame int)) *Animator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Animator{clock: clk, render: render, period: Period}
}

// Run consumes transitions until ctx is done or the channel closes, then
// leaves the indicator on frame 0.
func (a *Animator) Run(ctx context.Context, transitions <-chan session.Transition) {
	var (
		ticker clock.Ticker
		tick   <-chan time.Time
		frame  int
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		frame = 0
		a.render(0)
	}
	defer stop()

	a.render(0)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-transitions:
			if !ok {
				return
			}
			switch {
			case t.To.Active() && ticker == nil:
				ticker = a.clock.NewTicker(a.period)
				tick = ticker.C()
			case !t.To.Active() && ticker != nil:
				stop()
			}
		case <-tick:
			frame = (frame + 1) % Frames
			a.render(frame)
		}
	}
}
