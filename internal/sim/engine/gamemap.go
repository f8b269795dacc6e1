package engine

import "fmt"

// TerrainTile is the static ground type of a map cell.
type TerrainTile uint8

const (
	Land TerrainTile = iota
	Void
)

func (t TerrainTile) String() string {
	if t == Land {
		return "LAND"
	}
	return "VOID"
}

// GameMap is the immutable terrain the match is played on. Map file parsing
// lives outside the engine (internal/sim/maps); the engine only queries it.
type GameMap struct {
	name    string
	width   int
	height  int
	terrain []TerrainTile // row-major

	hq          [2]MapLoc
	encampments map[MapLoc]bool
}

func NewGameMap(name string, width, height int, terrain []TerrainTile, hqA, hqB MapLoc, encampments []MapLoc) (*GameMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("map %q: bad size %dx%d", name, width, height)
	}
	if len(terrain) != width*height {
		return nil, fmt.Errorf("map %q: terrain has %d cells, want %d", name, len(terrain), width*height)
	}
	m := &GameMap{
		name:        name,
		width:       width,
		height:      height,
		terrain:     terrain,
		hq:          [2]MapLoc{hqA, hqB},
		encampments: map[MapLoc]bool{},
	}
	for _, loc := range []MapLoc{hqA, hqB} {
		if !m.InBounds(loc) || m.Terrain(loc) != Land {
			return nil, fmt.Errorf("map %q: HQ location %v not on land", name, loc)
		}
	}
	for _, loc := range encampments {
		if !m.InBounds(loc) || m.Terrain(loc) != Land {
			return nil, fmt.Errorf("map %q: encampment %v not on land", name, loc)
		}
		m.encampments[loc] = true
	}
	return m, nil
}

func (m *GameMap) Name() string { return m.name }
func (m *GameMap) Width() int   { return m.width }
func (m *GameMap) Height() int  { return m.height }

func (m *GameMap) InBounds(loc MapLoc) bool {
	return loc.X >= 0 && loc.X < m.width && loc.Y >= 0 && loc.Y < m.height
}

func (m *GameMap) Terrain(loc MapLoc) TerrainTile {
	if !m.InBounds(loc) {
		return Void
	}
	return m.terrain[loc.Y*m.width+loc.X]
}

// Passable reports whether terrain alone permits standing on loc.
// Occupancy is the world's concern, not the map's.
func (m *GameMap) Passable(loc MapLoc) bool {
	return m.InBounds(loc) && m.Terrain(loc) == Land
}

func (m *GameMap) HQ(t Team) MapLoc {
	if t == TeamB {
		return m.hq[1]
	}
	return m.hq[0]
}

func (m *GameMap) IsEncampment(loc MapLoc) bool {
	return m.encampments[loc]
}

// Encampments returns the encampment squares in deterministic scan order.
func (m *GameMap) Encampments() []MapLoc {
	out := make([]MapLoc, 0, len(m.encampments))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.encampments[MapLoc{x, y}] {
				out = append(out, MapLoc{x, y})
			}
		}
	}
	return out
}
