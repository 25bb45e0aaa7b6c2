package track

import (
	"fmt"
)

// Traveller is a directed cursor into a Graph: a vector node, an offset
// along it, and a facing direction. Copying a Traveller yields an
// independent cursor; travellers are always passed and stored by value.
type Traveller struct {
	g *Graph
	// Node is the vector node the cursor rests on. A traveller never rests
	// on a junction or end node.
	Node NodeI
	// Offset along the node from its A end, in metres, within [0, Length].
	Offset float64
	// Ahead is true when the cursor faces the node's B end.
	Ahead bool
}

// NewTraveller places a cursor on a vector node of g.
func NewTraveller(g *Graph, node NodeI, offset float64, ahead bool) (Traveller, error) {
	if node < 0 || int(node) >= len(g.Nodes) {
		return Traveller{}, fmt.Errorf("node %d doesn't exist", node)
	}
	n := &g.Nodes[node]
	if n.Kind != KindVector {
		return Traveller{}, fmt.Errorf("node %d is a %s, not a vector node", node, n.Kind)
	}
	if offset < 0 || offset > n.Length {
		return Traveller{}, fmt.Errorf("offset %f outside node %d (length %f)", offset, node, n.Length)
	}
	return Traveller{g: g, Node: node, Offset: offset, Ahead: ahead}, nil
}

func (t Traveller) String() string {
	return fmt.Sprintf("traveller(n%d o%.3f ahead=%t)", t.Node, t.Offset, t.Ahead)
}

// Graph returns the graph this traveller points into.
func (t Traveller) Graph() *Graph { return t.g }

// ReverseDirection flips the facing direction in place.
func (t *Traveller) ReverseDirection() {
	t.Ahead = !t.Ahead
}

// Location returns the cursor's world position.
func (t Traveller) Location() Location {
	n := &t.g.Nodes[t.Node]
	l := n.Start
	l.X += n.DirX * t.Offset
	l.Z += n.DirZ * t.Offset
	return l.Normalize()
}

// facingLink is the link at the end of the current node the cursor faces.
func (t Traveller) facingLink() Pin {
	n := &t.g.Nodes[t.Node]
	if t.Ahead {
		return n.Pins[1]
	}
	return n.Pins[0]
}

// nextVector resolves the vector node the cursor would enter past the end
// of its current node, crossing any junctions in between. Junctions are
// crossed per their geometry: arriving at the points end follows
// SelectedRoute; arriving at an exit always leads out the points end.
func (t Traveller) nextVector() (node NodeI, arrive PinI, ok bool) {
	p := t.facingLink()
	for {
		if p.Node == NodeNone {
			return NodeNone, 0, false
		}
		n := &t.g.Nodes[p.Node]
		switch n.Kind {
		case KindEnd:
			return NodeNone, 0, false
		case KindVector:
			return p.Node, p.Pin, true
		case KindJunction:
			if p.Pin == 0 {
				p = n.Pins[n.exitPin()]
			} else {
				p = n.Pins[0]
			}
		default:
			panic(fmt.Sprintf("unknown node kind %d", n.Kind))
		}
	}
}

// NextJunction scans node-by-node in the facing direction and returns the
// first junction together with the pin the scan arrives on. scanned counts
// the nodes examined, for cost instrumentation. ok is false when the track
// ends before any junction.
func (t Traveller) NextJunction() (junction NodeI, arrive PinI, scanned int, ok bool) {
	p := t.facingLink()
	for {
		scanned++
		if p.Node == NodeNone {
			return NodeNone, 0, scanned, false
		}
		n := &t.g.Nodes[p.Node]
		switch n.Kind {
		case KindEnd:
			return NodeNone, 0, scanned, false
		case KindJunction:
			return p.Node, p.Pin, scanned, true
		case KindVector:
			p = n.Pins[1-p.Pin]
		default:
			panic(fmt.Sprintf("unknown node kind %d", n.Kind))
		}
	}
}

// Move advances the cursor d metres in its facing direction (backwards for
// negative d, without changing the facing direction), crossing junctions
// per SelectedRoute. It returns the distance actually moved, which is
// smaller in magnitude than d only when the track ends.
func (t *Traveller) Move(d float64) float64 {
	if d < 0 {
		t.ReverseDirection()
		moved := t.Move(-d)
		t.ReverseDirection()
		return -moved
	}
	remain := d
	for remain > 0 {
		n := &t.g.Nodes[t.Node]
		var avail float64
		if t.Ahead {
			avail = n.Length - t.Offset
		} else {
			avail = t.Offset
		}
		if remain <= avail {
			if t.Ahead {
				t.Offset += remain
			} else {
				t.Offset -= remain
			}
			return d
		}
		next, arrive, ok := t.nextVector()
		if !ok {
			// track ends: clamp at the end of this node
			if t.Ahead {
				t.Offset = n.Length
			} else {
				t.Offset = 0
			}
			return d - remain + avail
		}
		remain -= avail
		t.Node = next
		if arrive == 0 {
			t.Offset = 0
			t.Ahead = true
		} else {
			t.Offset = t.g.Nodes[next].Length
			t.Ahead = false
		}
	}
	return d
}
