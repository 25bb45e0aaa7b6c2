// Package track holds the track graph: an arena of nodes addressed by
// stable integer index, with links stored as indices so the cyclic
// topology carries no ownership.
package track

import (
	"fmt"

	"go.uber.org/zap"
)

// NodeI is the index of a node in a Graph's arena.
type NodeI int

// PinI is the index of a pin within a node.
type PinI int

// NodeNone marks a missing node reference.
const NodeNone NodeI = -1

// Pin names the node and pin that a pin connects to.
type Pin struct {
	Node NodeI
	Pin  PinI
}

func (p Pin) String() string {
	return fmt.Sprintf("n%d/p%d", p.Node, p.Pin)
}

type Kind uint8

const (
	// KindEnd is a buffer stop or other dead end. One pin.
	KindEnd Kind = iota
	// KindVector is a physical, non-branching track segment.
	// Pin 0 is the A end (offset 0), pin 1 the B end (offset Length).
	KindVector
	// KindJunction is a turnout. Pin 0 is the points (facing) end; pins 1
	// and 2 are the two exits, selected between by SelectedRoute.
	KindJunction
)

func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "end"
	case KindVector:
		return "vector"
	case KindJunction:
		return "junction"
	default:
		return fmt.Sprintf("%d", uint8(k))
	}
}

// Node is one entry in the arena.
type Node struct {
	// Comment is a human-readable comment about the node.
	Comment string
	Kind    Kind
	// Pins are the links to neighbouring nodes: 1 for an end node, 2 for a
	// vector node, 3 for a junction.
	Pins []Pin

	// SelectedRoute is the junction's active route, always 0 or 1. It
	// selects exit pin 1+SelectedRoute and is the single source of truth
	// for which way trains physically travel through the junction.
	SelectedRoute int
	// ShapeI indexes the route's shape table for the main-route lookup.
	// -1 when the junction has no shape data.
	ShapeI int
	// Location of the junction's frog, used to associate path waypoints.
	Location Location

	// Length of a vector node in metres.
	Length float64
	// Start is the location of the vector node's A end.
	Start Location
	// DirX, DirZ is the unit heading from the A end to the B end.
	// Only straight segments are described for now.
	DirX, DirZ float64
}

// Graph is the track network. It is built once by the route loader and
// read-mostly afterwards; junctions' SelectedRoute is the only mutable part.
type Graph struct {
	Nodes []Node
	// MainRoutes maps a junction shape index to the route index the route's
	// static data marks as main for that shape.
	MainRoutes map[int]int
}

// checkNode panics if i doesn't exist in this Graph.
func (g *Graph) checkNode(i NodeI) {
	if i < 0 || int(i) >= len(g.Nodes) {
		panic(fmt.Sprintf("invalid NodeI %d", i))
	}
}

// MustLookup finds a node with a matching comment. If it doesn't it panics.
// This is for debugging/testing.
func (g *Graph) MustLookup(comment string) NodeI {
	for ni := range g.Nodes {
		if g.Nodes[ni].Comment == comment {
			return NodeI(ni)
		}
	}
	panic(fmt.Sprintf("found nothing when looking up for %s", comment))
}

// IsJunction reports whether i is a junction node.
func (g *Graph) IsJunction(i NodeI) bool {
	return i >= 0 && int(i) < len(g.Nodes) && g.Nodes[i].Kind == KindJunction
}

// exitPin is the junction's currently selected exit pin index.
func (n *Node) exitPin() PinI {
	return PinI(1 + n.SelectedRoute)
}

// AlignSwitch sets junction's SelectedRoute so that traversing from its
// points end leads toward the vector node. No-op if either index is
// invalid, or if vector already is the points-end link (the switch cannot
// choose that side).
func (g *Graph) AlignSwitch(junction, vector NodeI) {
	if junction < 0 || int(junction) >= len(g.Nodes) || vector < 0 || int(vector) >= len(g.Nodes) {
		return
	}
	n := &g.Nodes[junction]
	if n.Kind != KindJunction || n.Pins[0].Node == vector {
		return
	}
	if n.Pins[1].Node == vector {
		n.SelectedRoute = 0
	} else if n.Pins[2].Node == vector {
		n.SelectedRoute = 1
	}
}

// SwitchIsAligned reports whether junction's selected exit leads to vector.
func (g *Graph) SwitchIsAligned(junction, vector NodeI) bool {
	if junction < 0 || int(junction) >= len(g.Nodes) || vector < 0 {
		return false
	}
	n := &g.Nodes[junction]
	if n.Kind != KindJunction {
		return false
	}
	return n.Pins[n.exitPin()].Node == vector
}

// TestFacingPoint reports whether continuing through junction onto vector
// is a facing-point movement: true when vector hangs off one of the exit
// legs (the movement enters at the points end and the route chooses the
// leg), false when vector is the points-end link itself.
func (g *Graph) TestFacingPoint(junction, vector NodeI) bool {
	if junction < 0 || int(junction) >= len(g.Nodes) || vector < 0 {
		return false
	}
	n := &g.Nodes[junction]
	if n.Kind != KindJunction {
		return false
	}
	return n.Pins[0].Node != vector
}

// ToggleSwitch flips junction's SelectedRoute between 0 and 1.
func (g *Graph) ToggleSwitch(junction NodeI) {
	g.checkNode(junction)
	n := &g.Nodes[junction]
	if n.Kind != KindJunction {
		panic(fmt.Sprintf("ToggleSwitch on non-junction node %d (%s)", junction, n.Kind))
	}
	n.SelectedRoute = 1 - n.SelectedRoute
}

// AlignSwitchDefaults sets every junction's SelectedRoute to the route its
// shape data marks as main. Junctions lacking shape data keep their
// existing value. Runs once at world load.
func (g *Graph) AlignSwitchDefaults() {
	for ni := range g.Nodes {
		n := &g.Nodes[ni]
		if n.Kind != KindJunction || n.ShapeI < 0 {
			continue
		}
		main, ok := g.MainRoutes[n.ShapeI]
		if !ok {
			continue
		}
		if main != 0 && main != 1 {
			zap.S().Warnw("shape names an out-of-range main route, keeping default",
				"junction", ni,
				"shape", n.ShapeI,
				"main", main)
			continue
		}
		n.SelectedRoute = main
	}
}

// VectorBetween returns the vector node whose two pins link junctions a
// and b, or NodeNone if there is no such node.
func (g *Graph) VectorBetween(a, b NodeI) NodeI {
	for ni := range g.Nodes {
		n := &g.Nodes[ni]
		if n.Kind != KindVector {
			continue
		}
		if (n.Pins[0].Node == a && n.Pins[1].Node == b) ||
			(n.Pins[0].Node == b && n.Pins[1].Node == a) {
			return NodeI(ni)
		}
	}
	return NodeNone
}

// JunctionNear returns the junction whose recorded location lies within
// epsilon metres of l, or NodeNone.
func (g *Graph) JunctionNear(l Location, epsilon float64) NodeI {
	for ni := range g.Nodes {
		n := &g.Nodes[ni]
		if n.Kind != KindJunction {
			continue
		}
		if n.Location.DistanceSq(l) <= epsilon*epsilon {
			return NodeI(ni)
		}
	}
	return NodeNone
}
