package mob

// Region dimensions in tiles. Packets are broadcast per region.
const (
	RegionWidth  = 16
	RegionHeight = 12
)

// Position is a tile coordinate.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Distance returns the tile distance between p and o: the larger of the two
// axis deltas, so diagonal neighbours are one tile apart.
func (p Position) Distance(o Position) int {
	dx := abs(p.X - o.X)
	dy := abs(p.Y - o.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// RegionID identifies a block of RegionWidth by RegionHeight tiles.
type RegionID struct {
	X int
	Y int
}

// Region returns the region containing p.
func (p Position) Region() RegionID {
	return RegionID{X: floorDiv(p.X, RegionWidth), Y: floorDiv(p.Y, RegionHeight)}
}

// Surrounding returns r and its eight neighbours; observers of any of these
// regions see entities in r.
func (r RegionID) Surrounding() []RegionID {
	out := make([]RegionID, 0, 9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			out = append(out, RegionID{X: r.X + dx, Y: r.Y + dy})
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
