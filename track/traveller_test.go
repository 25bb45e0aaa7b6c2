package track

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTravellerMoveStraight(t *testing.T) {
	g, err := Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	tr, err := NewTraveller(g, g.MustLookup("1"), 50, true)
	if err != nil {
		t.Fatalf("NewTraveller: %s", err)
	}
	if moved := tr.Move(120); moved != 120 {
		t.Fatalf("moved %f, want 120", moved)
	}
	if tr.Node != g.MustLookup("2") || tr.Offset != 70 {
		t.Fatalf("got %s, want node 2 offset 70", tr)
	}
	// round trip
	if moved := tr.Move(-120); moved != -120 {
		t.Fatalf("moved %f, want -120", moved)
	}
	if tr.Node != g.MustLookup("1") || tr.Offset != 50 || !tr.Ahead {
		t.Fatalf("round trip got %s", tr)
	}
	// clamp at track end
	if moved := tr.Move(10000); moved != 250 {
		t.Fatalf("moved %f past end, want 250", moved)
	}
	if tr.Node != g.MustLookup("3") || tr.Offset != 100 {
		t.Fatalf("got %s, want clamped at end of node 3", tr)
	}
}

func TestTravellerCopyIsIndependent(t *testing.T) {
	g, err := Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	tr, _ := NewTraveller(g, g.MustLookup("1"), 50, true)
	cp := tr
	cp.Move(30)
	cp.ReverseDirection()
	if tr.Node != 1 || tr.Offset != 50 || !tr.Ahead {
		t.Errorf("original mutated by copy: %s", tr)
	}
	if !cmp.Equal(cp.Offset, 80.0) {
		t.Errorf("copy did not move: %s", cp)
	}
}

func TestTravellerJunctions(t *testing.T) {
	g, err := TestbenchYard()
	if err != nil {
		t.Fatalf("TestbenchYard: %s", err)
	}
	a := g.MustLookup("A")
	b := g.MustLookup("B")
	c := g.MustLookup("C")
	d := g.MustLookup("D")
	j1 := g.MustLookup("J1")

	// facing passage follows SelectedRoute
	tr, _ := NewTraveller(g, a, 100, true)
	tr2 := tr
	tr2.Move(150)
	if tr2.Node != b || tr2.Offset != 50 {
		t.Fatalf("main route: got %s, want node B offset 50", tr2)
	}
	g.Nodes[j1].SelectedRoute = 1
	tr3 := tr
	tr3.Move(150)
	if tr3.Node != c || tr3.Offset != 50 {
		t.Fatalf("siding route: got %s, want node C offset 50", tr3)
	}
	g.Nodes[j1].SelectedRoute = 0

	// trailing passage ignores SelectedRoute
	trc, _ := NewTraveller(g, c, 250, true)
	trc.Move(100)
	if trc.Node != d || trc.Offset != 50 {
		t.Fatalf("trailing through J2: got %s, want node D offset 50", trc)
	}
}

func TestNextJunction(t *testing.T) {
	g, err := TestbenchYard()
	if err != nil {
		t.Fatalf("TestbenchYard: %s", err)
	}
	tr, _ := NewTraveller(g, g.MustLookup("A"), 100, true)
	j, arrive, scanned, ok := tr.NextJunction()
	if !ok || j != g.MustLookup("J1") || arrive != 0 {
		t.Fatalf("NextJunction = j%d arrive%d ok=%t, want J1 arrive 0", j, arrive, ok)
	}
	if scanned != 1 {
		t.Errorf("scanned %d nodes, want 1", scanned)
	}
	// arriving on the trailing side reports which exit pin was entered
	trb, _ := NewTraveller(g, g.MustLookup("B"), 100, true)
	j, arrive, _, ok = trb.NextJunction()
	if !ok || j != g.MustLookup("J2") || arrive != 1 {
		t.Fatalf("NextJunction = j%d arrive%d ok=%t, want J2 arrive 1", j, arrive, ok)
	}
	// track end before any junction
	trd, _ := NewTraveller(g, g.MustLookup("D"), 100, true)
	if _, _, _, ok := trd.NextJunction(); ok {
		t.Fatalf("NextJunction past the east stop must not find a junction")
	}
}

func TestTravellerLocation(t *testing.T) {
	g, err := Testbench1()
	if err != nil {
		t.Fatalf("Testbench1: %s", err)
	}
	tr, _ := NewTraveller(g, g.MustLookup("2"), 30, true)
	l := tr.Location()
	if math.Abs(l.X-130) > 1e-9 || l.TileX != 0 {
		t.Errorf("Location = %#v, want X=130 tile 0", l)
	}
}
