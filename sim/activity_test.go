package sim

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"nyiyui.ca/hato/unten/cars"
	"nyiyui.ca/hato/unten/track"
	"nyiyui.ca/hato/unten/train"
)

func testCarsData() (cars.Data, uuid.UUID, uuid.UUID) {
	player := uuid.New()
	freight := uuid.New()
	data := cars.Data{Consists: map[uuid.UUID]cars.Consist{
		player: {
			Comment: "player consist",
			Vehicles: []cars.Vehicle{
				{Comment: "loco", Folder: "de10", File: "de10.wag", Engine: true},
				{Comment: "box", Folder: "wamu", File: "wamu.wag"},
				{Comment: "ghost", Folder: "missing", File: "missing.wag"},
			},
		},
		freight: {
			Comment: "freight",
			Vehicles: []cars.Vehicle{
				{Comment: "box", Folder: "wamu", File: "wamu.wag", Flip: true},
			},
		},
	}}
	return data, player, freight
}

func testLoader() MapLoader {
	return MapLoader{
		"de10/de10.wag": train.Car{Length: 14},
		"wamu/wamu.wag": train.Car{Length: 8},
	}
}

func TestNewSkipsUnloadableVehicles(t *testing.T) {
	g, err := track.Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	data, player, freight := testCarsData()
	s, err := New(g, data, testLoader(), Activity{
		Player: Placement{Consist: player, Node: g.MustLookup("2"), Offset: 50, Ahead: true},
		Statics: []Placement{
			{Comment: "parked", Consist: freight, Node: g.MustLookup("3"), Offset: 50, Ahead: true},
			{Comment: "bogus", Consist: uuid.New(), Node: g.MustLookup("3"), Offset: 90, Ahead: true},
		},
	})
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	// the "ghost" vehicle has no wagon file and is dropped
	if got := len(s.Player.Cars); got != 2 {
		t.Errorf("player has %d cars, want 2", got)
	}
	if !s.Player.Cars[0].Engine {
		t.Error("player car 0 is not a locomotive")
	}
	// the bogus static is skipped entirely, the parked one survives
	if got := len(s.Trains); got != 2 {
		t.Errorf("got %d trains, want 2", got)
	}
	// Flip on the consist entry carries through to the car
	parked := s.Trains[1]
	if !parked.Cars[0].Flipped {
		t.Error("flipped vehicle placed unflipped")
	}
}

func TestNewRejectsEnginelessPlayer(t *testing.T) {
	g, err := track.Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	data, _, freight := testCarsData()
	_, err = New(g, data, testLoader(), Activity{
		Player: Placement{Consist: freight, Node: g.MustLookup("2"), Offset: 50, Ahead: true},
	})
	if err == nil {
		t.Fatal("New accepted a player consist with no locomotive")
	}
}

func TestNewRejectsUnloadableLocomotive(t *testing.T) {
	g, err := track.Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	data, player, _ := testCarsData()
	loader := testLoader()
	delete(loader, "de10/de10.wag")
	_, err = New(g, data, loader, Activity{
		Player: Placement{Consist: player, Node: g.MustLookup("2"), Offset: 50, Ahead: true},
	})
	if err == nil {
		t.Fatal("New built a player train whose locomotive failed to load")
	}
}

func TestRunnerAppliesCommands(t *testing.T) {
	g, err := track.Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	s := newTestSim(t, g)
	p := placeTrain(t, g, "player", "2", 50, 10)
	s.Player = p
	s.AddTrain(p)

	r := NewRunner(s, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	applied := make(chan struct{})
	r.Do(func(s *Simulator) {
		s.Player.TargetSpeed = 2
		close(applied)
	})
	select {
	case <-applied:
	case <-time.After(time.Second):
		t.Fatal("command not applied")
	}

	// the Runner owns the Simulator while running, so read the clock
	// through a command too
	clockCh := make(chan float64, 1)
	deadline := time.After(time.Second)
	for {
		r.Do(func(s *Simulator) { clockCh <- s.Clock })
		var clock float64
		select {
		case clock = <-clockCh:
		case <-deadline:
			t.Fatal("clock never advanced")
		}
		if clock > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	if p.TargetSpeed != 2 {
		t.Errorf("target speed %v, want 2", p.TargetSpeed)
	}
}
