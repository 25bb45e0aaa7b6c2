package track

// TileSize is the edge length of one world tile in metres. Local X/Z
// coordinates stay within ±TileSize/2 of the tile centre.
const TileSize = 2048.0

// Location is a tile-relative world position. Keeping the tile indices
// separate from the local offset preserves precision on large routes.
type Location struct {
	TileX, TileZ int
	X, Y, Z      float64
}

// Normalize shifts the local offsets back into their canonical range,
// carrying whole tiles into TileX/TileZ.
func (l Location) Normalize() Location {
	const half = TileSize / 2
	for l.X >= half {
		l.X -= TileSize
		l.TileX++
	}
	for l.X < -half {
		l.X += TileSize
		l.TileX--
	}
	for l.Z >= half {
		l.Z -= TileSize
		l.TileZ++
	}
	for l.Z < -half {
		l.Z += TileSize
		l.TileZ--
	}
	return l
}

// DistanceSq returns the squared distance to m in metres².
func (l Location) DistanceSq(m Location) float64 {
	dx := float64(l.TileX-m.TileX)*TileSize + l.X - m.X
	dz := float64(l.TileZ-m.TileZ)*TileSize + l.Z - m.Z
	dy := l.Y - m.Y
	return dx*dx + dy*dy + dz*dz
}
