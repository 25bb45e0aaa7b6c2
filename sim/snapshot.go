package sim

import (
	"github.com/google/uuid"

	"nyiyui.ca/hato/unten/track"
)

// TrainSnapshot is one train's state at a tick boundary.
type TrainSnapshot struct {
	ID      uuid.UUID      `json:"id"`
	Comment string         `json:"comment"`
	Cars    int            `json:"cars"`
	Speed   float64        `json:"speed"`
	Front   track.Location `json:"front"`
	Rear    track.Location `json:"rear"`
}

// Snapshot is the immutable per-tick view published to consumers
// (signalling, the SSE surface, telemetry). It shares no memory with the
// live simulation.
type Snapshot struct {
	Clock  float64         `json:"clock"`
	Trains []TrainSnapshot `json:"trains"`
	// SelectedRoutes holds every junction's current route, keyed by node
	// index.
	SelectedRoutes map[track.NodeI]int `json:"selectedRoutes"`
}

// Snapshot captures the current state.
func (s *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		Clock:          s.Clock,
		Trains:         make([]TrainSnapshot, 0, len(s.Trains)),
		SelectedRoutes: map[track.NodeI]int{},
	}
	for _, t := range s.Trains {
		snap.Trains = append(snap.Trains, TrainSnapshot{
			ID:      t.ID,
			Comment: t.Comment,
			Cars:    len(t.Cars),
			Speed:   t.Speed,
			Front:   t.Front.Location(),
			Rear:    t.Rear.Location(),
		})
	}
	for ni := range s.Graph.Nodes {
		if s.Graph.Nodes[ni].Kind == track.KindJunction {
			snap.SelectedRoutes[track.NodeI(ni)] = s.Graph.Nodes[ni].SelectedRoute
		}
	}
	return snap
}

func (s *Simulator) publishSnapshot() {
	if s.snapshotsS == nil {
		return
	}
	s.snapshotsS.Send(s.Snapshot())
}
