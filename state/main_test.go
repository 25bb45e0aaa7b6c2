package state

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nyiyui.ca/hato/unten/sim"
	"nyiyui.ca/hato/unten/track"
	"nyiyui.ca/hato/unten/train"
)

func yardSim(t *testing.T) *sim.Simulator {
	t.Helper()
	g, err := track.TestbenchYard()
	if err != nil {
		t.Fatalf("TestbenchYard: %s", err)
	}
	return &sim.Simulator{Graph: g}
}

func addTrain(t *testing.T, s *sim.Simulator, comment, node string, offset float64, lengths ...float64) *train.Train {
	t.Helper()
	cs := make([]*train.Car, 0, len(lengths))
	for i, l := range lengths {
		cs = append(cs, &train.Car{Comment: comment, Length: l, Engine: i == 0})
	}
	front, err := track.NewTraveller(s.Graph, s.Graph.MustLookup(node), offset, true)
	if err != nil {
		t.Fatalf("NewTraveller: %s", err)
	}
	tr := train.New(comment, cs, front)
	s.AddTrain(tr)
	return tr
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "state.db"))

	s := yardSim(t)
	p := addTrain(t, s, "player", "B", 150, 14, 8)
	p.Speed = 1.25
	p.TargetSpeed = 2
	p.Cars[1].Flipped = true
	s.Player = p
	addTrain(t, s, "parked", "C", 200, 8)
	s.Clock = 1234.5
	j1 := s.Graph.MustLookup("J1")
	s.Graph.Nodes[j1].SelectedRoute = 1

	if err := st.Save(s); err != nil {
		t.Fatalf("Save: %s", err)
	}

	s2 := yardSim(t)
	if err := st.Load(s2); err != nil {
		t.Fatalf("Load: %s", err)
	}
	if s2.Clock != 1234.5 {
		t.Errorf("clock %v, want 1234.5", s2.Clock)
	}
	if len(s2.Trains) != 2 {
		t.Fatalf("got %d trains, want 2", len(s2.Trains))
	}
	if s2.Player == nil || s2.Player.ID != p.ID {
		t.Fatalf("player not restored: %v", s2.Player)
	}
	if got := s2.Graph.Nodes[j1].SelectedRoute; got != 1 {
		t.Errorf("J1 route %d, want 1", got)
	}

	p2 := s2.Player
	if diff := cmp.Diff(p.Cars, p2.Cars); diff != "" {
		t.Errorf("player cars mismatch (-want +got):\n%s", diff)
	}
	if p2.Speed != p.Speed || p2.TargetSpeed != p.TargetSpeed {
		t.Errorf("speeds %v/%v, want %v/%v", p2.Speed, p2.TargetSpeed, p.Speed, p.TargetSpeed)
	}
	if p2.Front.Location() != p.Front.Location() {
		t.Errorf("front at %v, want %v", p2.Front.Location(), p.Front.Location())
	}
	if p2.Rear.Location() != p.Rear.Location() {
		t.Errorf("rear at %v, want %v", p2.Rear.Location(), p.Rear.Location())
	}
}

func TestSaveDropsCoupledAwayTrains(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "state.db"))

	s := yardSim(t)
	p := addTrain(t, s, "player", "B", 150, 14)
	s.Player = p
	addTrain(t, s, "parked", "C", 200, 8)
	if err := st.Save(s); err != nil {
		t.Fatalf("Save: %s", err)
	}

	// the parked train got absorbed since the last save
	s.Trains = s.Trains[:1]
	if err := st.Save(s); err != nil {
		t.Fatalf("Save: %s", err)
	}

	s2 := yardSim(t)
	if err := st.Load(s2); err != nil {
		t.Fatalf("Load: %s", err)
	}
	if len(s2.Trains) != 1 {
		t.Errorf("got %d trains, want 1", len(s2.Trains))
	}
}

func TestLoadEmptyDatabase(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "state.db"))
	s := yardSim(t)
	err := st.Load(s)
	if !errors.Is(err, ErrNoState) {
		t.Fatalf("got %v, want ErrNoState", err)
	}
}
