// Package sim runs the simulation: it owns the active train set, the
// fixed-cadence update tick, switch alignment, and coupling/uncoupling.
// Everything here runs on one simulation goroutine; external commands must
// arrive as messages (see Runner), not as concurrent calls.
package sim

import (
	"time"

	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/metrics"
	"nyiyui.ca/hato/unten/notify"
	"nyiyui.ca/hato/unten/track"
	"nyiyui.ca/hato/unten/train"
)

// Signals is the external signal-block collaborator, ticked after train
// physics each update.
type Signals interface {
	Update(elapsed float64)
}

// AI is the external dispatch collaborator, ticked after Signals.
type AI interface {
	Update(elapsed float64)
}

type Simulator struct {
	Graph *track.Graph
	// Trains is the active train set, in insertion order. Only coupling
	// and uncoupling mutate it.
	Trains []*train.Train
	Player *train.Train
	// Clock is the simulated time in seconds since activity start. It
	// advances by the actual elapsed time of each tick, so a degraded
	// cadence doesn't drift.
	Clock float64

	Signals Signals
	AI      AI

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Collector

	paused  bool
	aligner trailingAligner

	eventsS    *notify.HubSender[train.Event]
	Events     *notify.Hub[train.Event]
	snapshotsS *notify.HubSender[Snapshot]
	Snapshots  *notify.Hub[Snapshot]
}

// SetPaused pauses or resumes the simulation. A paused tick mutates
// nothing, not even the clock.
func (s *Simulator) SetPaused(p bool) {
	s.paused = p
}

func (s *Simulator) Paused() bool { return s.paused }

// Update advances the whole simulation by elapsed seconds: clock, train
// physics, the Signals and AI collaborators, trailing-point alignment for
// the player train, and the coupling scan.
func (s *Simulator) Update(elapsed float64) {
	if s.paused {
		return
	}
	start := time.Now()
	s.Clock += elapsed
	for _, t := range s.Trains {
		t.Update(elapsed)
	}
	if s.Signals != nil {
		s.Signals.Update(elapsed)
	}
	if s.AI != nil {
		s.AI.Update(elapsed)
	}
	if s.Player != nil {
		s.alignTrailingSwitches(s.Player)
	}
	s.checkForCoupling()
	s.publishSnapshot()
	if s.Metrics != nil {
		s.Metrics.TickDuration.Observe(time.Since(start).Seconds())
		s.Metrics.ClockSeconds.Set(s.Clock)
		s.Metrics.ActiveTrains.Set(float64(len(s.Trains)))
	}
}

// AddTrain appends t to the active set and wires its event sink. Activity
// setup, uncoupling, and state restore are the only callers.
func (s *Simulator) AddTrain(t *train.Train) {
	t.Events = s.eventsS
	s.Trains = append(s.Trains, t)
}

// removeTrain drops t from the active set, keeping insertion order.
func (s *Simulator) removeTrain(t *train.Train) {
	for i, o := range s.Trains {
		if o == t {
			s.Trains = append(s.Trains[:i], s.Trains[i+1:]...)
			return
		}
	}
	zap.S().Warnw("removeTrain: train not in active set", "train", t.ID)
}
