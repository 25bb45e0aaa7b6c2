// Package aipath builds the static path graph autonomous trains dispatch
// over: a main-line chain of nodes with optional parallel siding branches,
// derived once from a route's waypoint records and immutable afterwards.
package aipath

import (
	"fmt"

	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/track"
)

// NodeI is the index of a node in a Path's arena.
type NodeI int

// NodeNone marks a missing node reference.
const NodeNone NodeI = -1

// LinkNone is the sentinel link index in waypoint records.
const LinkNone = -1

// junctionEpsilon is the proximity in metres within which a waypoint is
// associated with a junction.
const junctionEpsilon = 5.0

type NodeType uint8

const (
	TypeOther NodeType = iota
	TypeStop
	TypeSidingStart
	TypeSidingEnd
	TypeCouple
	TypeUncouple
	TypeReverse
)

func (t NodeType) String() string {
	switch t {
	case TypeOther:
		return "other"
	case TypeStop:
		return "stop"
	case TypeSidingStart:
		return "siding-start"
	case TypeSidingEnd:
		return "siding-end"
	case TypeCouple:
		return "couple"
	case TypeUncouple:
		return "uncouple"
	case TypeReverse:
		return "reverse"
	default:
		return fmt.Sprintf("%d", uint8(t))
	}
}

// Waypoint is one record of the route's path description.
type Waypoint struct {
	// Flags packs the classification bits: bit 0 reverse, bit 1 stop.
	Flags uint32
	// WaitTime is the packed wait-time field; see decodeWait for the
	// uncouple/couple reinterpretation ranges.
	WaitTime int
	// NextMain and NextSiding index the following waypoint on the main
	// line and on the siding branch; LinkNone for no link.
	NextMain, NextSiding int
	Location             track.Location
}

// Node is one node of the built path graph.
type Node struct {
	Type NodeType
	// WaitTime in seconds.
	WaitTime int
	// NCars for partial uncoupling. Negative means keep that many cars at
	// the rear instead.
	NCars    int
	Location track.Location
	// Junction is the track junction this node sits on, or track.NodeNone.
	Junction track.NodeI
	// FacingPoint is true when the path enters Junction at its points end.
	FacingPoint bool
	// NextMain and NextSiding are the following path nodes; NodeNone for
	// none. NextMainVector/NextSidingVector are the track vector nodes the
	// respective link runs over (track.NodeNone when unresolved).
	NextMain, NextSiding             NodeI
	NextMainVector, NextSidingVector track.NodeI
}

// Path is the whole node arena. First is the entry node.
type Path struct {
	Nodes []Node
	First NodeI
}

// decodeWait classifies a waypoint from its flag bits and packed
// wait-time. Wait-times in [40000,60000) encode an uncoupling (car count
// in the hundreds digits, sign from the 50000 bit, wait in the last two
// digits); 60000 and above encode a coupling (wait in the last three
// digits). These reinterpretations take precedence over the flag bits.
func decodeWait(flags uint32, wait int) (typ NodeType, waitTime, nCars int) {
	typ = TypeOther
	if flags&1 != 0 {
		typ = TypeReverse
	} else if flags&2 != 0 {
		typ = TypeStop
		waitTime = wait
	}
	switch {
	case wait >= 40000 && wait < 60000:
		typ = TypeUncouple
		nCars = (wait / 100) % 100
		if wait >= 50000 {
			nCars = -nCars
		}
		waitTime = wait % 100
	case wait >= 60000:
		typ = TypeCouple
		waitTime = wait % 1000
	}
	return typ, waitTime, nCars
}

// Build derives the path graph from waypoints over g. Construction is
// three passes: local node initialisation, link wiring (which needs all
// nodes to exist), then siding boundary classification (which needs the
// links wired).
func Build(g *track.Graph, waypoints []Waypoint) (*Path, error) {
	p := &Path{Nodes: make([]Node, len(waypoints)), First: 0}
	if len(waypoints) == 0 {
		p.First = NodeNone
		return p, nil
	}

	for i, wp := range waypoints {
		typ, waitTime, nCars := decodeWait(wp.Flags, wp.WaitTime)
		p.Nodes[i] = Node{
			Type:             typ,
			WaitTime:         waitTime,
			NCars:            nCars,
			Location:         wp.Location,
			Junction:         g.JunctionNear(wp.Location, junctionEpsilon),
			NextMain:         NodeNone,
			NextSiding:       NodeNone,
			NextMainVector:   track.NodeNone,
			NextSidingVector: track.NodeNone,
		}
	}

	for i, wp := range waypoints {
		n := &p.Nodes[i]
		var err error
		n.NextMain, n.NextMainVector, err = p.wireLink(g, i, wp.NextMain)
		if err != nil {
			return nil, fmt.Errorf("waypoint %d main link: %w", i, err)
		}
		n.NextSiding, n.NextSidingVector, err = p.wireLink(g, i, wp.NextSiding)
		if err != nil {
			return nil, fmt.Errorf("waypoint %d siding link: %w", i, err)
		}
		if n.Junction != track.NodeNone {
			v := n.NextMainVector
			if v == track.NodeNone {
				v = n.NextSidingVector
			}
			n.FacingPoint = g.TestFacingPoint(n.Junction, v)
		}
	}

	return p, p.classifySidings()
}

// wireLink resolves the link from node i to waypoint index next: the
// target node plus the vector node the link runs over. A missing vector is
// not fatal and leaves track.NodeNone.
func (p *Path) wireLink(g *track.Graph, i, next int) (NodeI, track.NodeI, error) {
	if next == LinkNone {
		return NodeNone, track.NodeNone, nil
	}
	if next < 0 || next >= len(p.Nodes) {
		return NodeNone, track.NodeNone, fmt.Errorf("link to nonexistent waypoint %d", next)
	}
	from, to := &p.Nodes[i], &p.Nodes[next]
	var v track.NodeI
	switch {
	case from.Junction != track.NodeNone && to.Junction != track.NodeNone:
		v = g.VectorBetween(from.Junction, to.Junction)
	case from.Junction == track.NodeNone:
		v, _, _ = g.VectorAt(from.Location, junctionEpsilon)
	default:
		v, _, _ = g.VectorAt(to.Location, junctionEpsilon)
	}
	if v == track.NodeNone {
		zap.S().Warnw("no vector node found for path link",
			"from", i,
			"to", next)
	}
	return NodeI(next), v, nil
}

// classifySidings walks the wired graph: a node with both links becomes
// SidingStart, and the last node reachable purely through the siding chain
// becomes SidingEnd.
func (p *Path) classifySidings() error {
	bound := len(p.Nodes)
	steps := 0
	for i := p.First; i != NodeNone; i = p.Nodes[i].NextMain {
		if steps++; steps > bound {
			return fmt.Errorf("main line cycles within %d nodes", bound)
		}
		n := &p.Nodes[i]
		if n.NextSiding == NodeNone {
			continue
		}
		n.Type = TypeSidingStart
		j := n.NextSiding
		branchSteps := 0
		for p.Nodes[j].NextSiding != NodeNone {
			if branchSteps++; branchSteps > bound {
				return fmt.Errorf("siding branch at node %d cycles within %d nodes", i, bound)
			}
			j = p.Nodes[j].NextSiding
		}
		p.Nodes[j].Type = TypeSidingEnd
	}
	return nil
}

// AlignSwitches drives g's junctions to match the path's main line: every
// facing-point node with a resolved main vector gets its junction aligned
// toward that vector. AI dispatch calls this before occupying a section.
func (p *Path) AlignSwitches(g *track.Graph) {
	bound := len(p.Nodes)
	steps := 0
	for i := p.First; i != NodeNone; i = p.Nodes[i].NextMain {
		if steps++; steps > bound {
			return
		}
		n := &p.Nodes[i]
		if n.Junction == track.NodeNone || !n.FacingPoint || n.NextMainVector == track.NodeNone {
			continue
		}
		if !g.SwitchIsAligned(n.Junction, n.NextMainVector) {
			g.AlignSwitch(n.Junction, n.NextMainVector)
		}
	}
}
