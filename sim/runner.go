package sim

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Command is applied to the Simulator on its own goroutine, between ticks.
// External control (switch toggles, pause, player uncoupling) must come in
// this way: the Simulator itself has no internal locking.
type Command func(*Simulator)

// Runner drives a Simulator at a fixed cadence. The cadence degrades
// gracefully under load: each tick advances the clock by the real elapsed
// time since the previous one.
type Runner struct {
	s        *Simulator
	interval time.Duration
	cmds     chan Command
}

// DefaultInterval is the target tick cadence.
const DefaultInterval = 33 * time.Millisecond

func NewRunner(s *Simulator, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		s:        s,
		interval: interval,
		cmds:     make(chan Command, 16),
	}
}

// Do queues cmd for the simulation goroutine. Safe from any goroutine.
func (r *Runner) Do(cmd Command) {
	r.cmds <- cmd
}

// Run loops until ctx is cancelled. It owns the Simulator: no other
// goroutine may touch it while Run is live.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	last := time.Now()
	zap.S().Infow("simulation running", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			zap.S().Infow("simulation stopped", "clock", r.s.Clock)
			return
		case cmd := <-r.cmds:
			cmd(r.s)
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			r.s.Update(elapsed)
		}
	}
}
