package train

import (
	"math"
	"testing"

	"nyiyui.ca/hato/unten/track"
)

func testCars(lengths ...float64) []*Car {
	cs := make([]*Car, 0, len(lengths))
	for _, l := range lengths {
		cs = append(cs, &Car{Length: l})
	}
	return cs
}

func TestRepositionRoundTrip(t *testing.T) {
	g, err := track.Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	front, err := track.NewTraveller(g, g.MustLookup("3"), 50, true)
	if err != nil {
		t.Fatalf("NewTraveller: %s", err)
	}
	tr := New("test", testCars(20, 15, 15), front)
	if e := tr.CursorError(); e > 1e-4 {
		t.Fatalf("cursor error %g after New", e)
	}
	// rear should be 50 m behind, across the node boundary
	if tr.Rear.Node != g.MustLookup("3") || math.Abs(tr.Rear.Offset-0) > 1e-9 {
		t.Fatalf("rear = %s, want node 3 offset 0", tr.Rear)
	}
	// mutate the car list, fix the rear, recompute the front
	tr.Cars = tr.Cars[:2]
	tr.RepositionFront()
	if e := tr.CursorError(); e > 1e-4 {
		t.Fatalf("cursor error %g after RepositionFront", e)
	}
}

func TestUpdateMovesBothCursors(t *testing.T) {
	g, err := track.Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	front, _ := track.NewTraveller(g, g.MustLookup("2"), 50, true)
	tr := New("test", testCars(30), front)
	tr.Speed = 2
	tr.TargetSpeed = 2
	tr.Update(1)
	if math.Abs(tr.Front.Offset-52) > 1e-9 {
		t.Errorf("front offset %f, want 52", tr.Front.Offset)
	}
	if e := tr.CursorError(); e > 1e-4 {
		t.Errorf("cursor error %g after Update", e)
	}
	// settle tick snaps residual speed but doesn't move
	tr.Speed = 1e-4
	tr.Update(0)
	if tr.Speed != 0 {
		t.Errorf("speed %f after settle, want 0", tr.Speed)
	}
	if math.Abs(tr.Front.Offset-52) > 1e-9 {
		t.Errorf("front moved on settle tick")
	}
}

func TestUpdateIntegratesTowardsTarget(t *testing.T) {
	g, err := track.Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	front, _ := track.NewTraveller(g, g.MustLookup("1"), 10, true)
	tr := New("test", testCars(5), front)
	tr.TargetSpeed = 10
	tr.Update(1)
	if math.Abs(tr.Speed-tr.MaxAccel) > 1e-9 {
		t.Errorf("speed %f after 1 s, want %f", tr.Speed, tr.MaxAccel)
	}
	tr.TargetSpeed = 0
	tr.Update(10)
	if tr.Speed != 0 {
		t.Errorf("speed %f after braking, want 0", tr.Speed)
	}
}
