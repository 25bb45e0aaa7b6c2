package sim

import (
	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/track"
	"nyiyui.ca/hato/unten/train"
)

// trailingAligner caches the last leading node/direction pair seen by
// alignTrailingSwitches, so the junction scan only reruns when the train
// moves onto a new segment or changes direction. Scoped per Simulator so
// multiple simulations (or future per-train aligners) don't share state.
type trailingAligner struct {
	valid    bool
	lastNode track.NodeI
	lastFwd  bool
	// Scans counts graph nodes examined, for cost instrumentation.
	Scans int
}

// AlignerScans reports how many graph nodes the trailing aligner has
// examined so far.
func (s *Simulator) AlignerScans() int { return s.aligner.Scans }

// alignTrailingSwitches sets the next junction t will trail through to
// match t's actual approach. Junctions met at their points end are left
// alone: there the train chooses its route via explicit switch commands.
func (s *Simulator) alignTrailingSwitches(t *train.Train) {
	forward := t.Speed >= 0
	var tr track.Traveller
	if forward {
		tr = t.Front
	} else {
		tr = t.Rear
		tr.ReverseDirection()
	}
	if s.aligner.valid && s.aligner.lastNode == tr.Node && s.aligner.lastFwd == forward {
		return
	}
	s.aligner.valid = true
	s.aligner.lastNode = tr.Node
	s.aligner.lastFwd = forward

	j, arrive, scanned, ok := tr.NextJunction()
	s.aligner.Scans += scanned
	if !ok {
		return
	}
	if arrive == 0 {
		// facing point: not ours to align
		return
	}
	want := int(arrive) - 1
	n := &s.Graph.Nodes[j]
	if n.SelectedRoute == want {
		return
	}
	n.SelectedRoute = want
	if s.Metrics != nil {
		s.Metrics.SwitchThrows.Inc()
	}
	zap.S().Debugw("aligned trailing-point switch",
		"junction", j,
		"route", want,
		"train", t.Comment)
}

// SwitchTrackAhead flips the nearest junction strictly ahead of t's front
// cursor. No-op when the track ends first.
func (s *Simulator) SwitchTrackAhead(t *train.Train) {
	s.toggleNext(t.Front)
}

// SwitchTrackBehind flips the nearest junction behind t's rear cursor.
func (s *Simulator) SwitchTrackBehind(t *train.Train) {
	tr := t.Rear
	tr.ReverseDirection()
	s.toggleNext(tr)
}

func (s *Simulator) toggleNext(tr track.Traveller) {
	j, _, _, ok := tr.NextJunction()
	if !ok {
		return
	}
	s.Graph.ToggleSwitch(j)
	if s.Metrics != nil {
		s.Metrics.SwitchThrows.Inc()
	}
	zap.S().Infow("switch toggled",
		"junction", j,
		"route", s.Graph.Nodes[j].SelectedRoute)
}
