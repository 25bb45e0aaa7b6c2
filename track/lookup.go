package track

// VectorAt returns the vector node whose segment passes within epsilon
// metres of l, together with the offset of the closest point along it.
// ok is false when no segment is near enough.
func (g *Graph) VectorAt(l Location, epsilon float64) (node NodeI, offset float64, ok bool) {
	for ni := range g.Nodes {
		n := &g.Nodes[ni]
		if n.Kind != KindVector {
			continue
		}
		relX := float64(l.TileX-n.Start.TileX)*TileSize + l.X - n.Start.X
		relZ := float64(l.TileZ-n.Start.TileZ)*TileSize + l.Z - n.Start.Z
		o := relX*n.DirX + relZ*n.DirZ
		if o < 0 || o > n.Length {
			continue
		}
		perpSq := relX*relX + relZ*relZ - o*o
		if perpSq <= epsilon*epsilon {
			return NodeI(ni), o, true
		}
	}
	return NodeNone, 0, false
}
