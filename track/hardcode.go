package track

import (
	"fmt"
)

// Check verifies the arena's link reciprocity and route invariants. Route
// loaders call this once after building a Graph; the simulation assumes a
// checked graph afterwards.
func (g *Graph) Check() error {
	for ni := range g.Nodes {
		n := &g.Nodes[ni]
		var want int
		switch n.Kind {
		case KindEnd:
			want = 1
		case KindVector:
			want = 2
		case KindJunction:
			want = 3
		default:
			return fmt.Errorf("node %d: unknown kind %d", ni, n.Kind)
		}
		if len(n.Pins) != want {
			return fmt.Errorf("node %d (%s): %d pins, want %d", ni, n.Kind, len(n.Pins), want)
		}
		if n.Kind == KindJunction && n.SelectedRoute != 0 && n.SelectedRoute != 1 {
			return fmt.Errorf("node %d: SelectedRoute %d out of range", ni, n.SelectedRoute)
		}
		for pi, p := range n.Pins {
			if p.Node == NodeNone {
				continue
			}
			if p.Node < 0 || int(p.Node) >= len(g.Nodes) {
				return fmt.Errorf("node %d pin %d: links to nonexistent node %d", ni, pi, p.Node)
			}
			back := g.Nodes[p.Node].Pins[p.Pin]
			if back.Node != NodeI(ni) || back.Pin != PinI(pi) {
				return fmt.Errorf("node %d pin %d: link to %s doesn't reciprocate (got %s)", ni, pi, p, back)
			}
		}
	}
	return nil
}

// Testbench1 is a plain straight track of three 100 m segments between two
// buffer stops. Node indices: 0 end, 1-3 vectors, 4 end.
func Testbench1() (*Graph, error) {
	g := &Graph{
		Nodes: []Node{
			{Comment: "stop-west", Kind: KindEnd, Pins: []Pin{{1, 0}}},
			{Comment: "1", Kind: KindVector, Pins: []Pin{{0, 0}, {2, 0}},
				Length: 100, Start: Location{X: 0}, DirX: 1},
			{Comment: "2", Kind: KindVector, Pins: []Pin{{1, 1}, {3, 0}},
				Length: 100, Start: Location{X: 100}, DirX: 1},
			{Comment: "3", Kind: KindVector, Pins: []Pin{{2, 1}, {4, 0}},
				Length: 100, Start: Location{X: 200}, DirX: 1},
			{Comment: "stop-east", Kind: KindEnd, Pins: []Pin{{3, 1}}},
		},
		MainRoutes: map[int]int{},
	}
	return g, g.Check()
}

// TestbenchYard is a main line with a passing siding:
//
//	stop - A - [J1] - B (main) - [J2] - D - stop
//	            \___ C (siding) ___/
//
// Both junctions' points ends face away from the siding, so a train running
// west-to-east meets J1 as a facing point and J2 as a trailing point.
// Node indices: 0 end, 1 A, 2 J1, 3 B, 4 C, 5 J2, 6 D, 7 end.
func TestbenchYard() (*Graph, error) {
	g := &Graph{
		Nodes: []Node{
			{Comment: "stop-west", Kind: KindEnd, Pins: []Pin{{1, 0}}},
			{Comment: "A", Kind: KindVector, Pins: []Pin{{0, 0}, {2, 0}},
				Length: 200, Start: Location{X: 0}, DirX: 1},
			{Comment: "J1", Kind: KindJunction, Pins: []Pin{{1, 1}, {3, 0}, {4, 0}},
				ShapeI: 0, Location: Location{X: 200}},
			{Comment: "B", Kind: KindVector, Pins: []Pin{{2, 1}, {5, 1}},
				Length: 300, Start: Location{X: 200}, DirX: 1},
			{Comment: "C", Kind: KindVector, Pins: []Pin{{2, 2}, {5, 2}},
				Length: 300, Start: Location{X: 200, Z: 10}, DirX: 1},
			{Comment: "J2", Kind: KindJunction, Pins: []Pin{{6, 0}, {3, 1}, {4, 1}},
				ShapeI: 0, Location: Location{X: 500}},
			{Comment: "D", Kind: KindVector, Pins: []Pin{{5, 0}, {7, 0}},
				Length: 200, Start: Location{X: 500}, DirX: 1},
			{Comment: "stop-east", Kind: KindEnd, Pins: []Pin{{6, 1}}},
		},
		MainRoutes: map[int]int{0: 0},
	}
	return g, g.Check()
}
