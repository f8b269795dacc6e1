package engine

import "fmt"

// Team identifies a side of the match. Neutral objects (mines on the map at
// start, map features) belong to TeamNeutral.
type Team uint8

const (
	TeamA Team = iota
	TeamB
	TeamNeutral
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "NEUTRAL"
	}
}

// Opponent returns the other playing team. Neutral has no opponent.
func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNeutral
	}
}

// Direction is one of the eight compass directions, or None.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	None
)

var dirDelta = [...][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

func (d Direction) Delta() (dx, dy int) {
	if d >= None {
		return 0, 0
	}
	return dirDelta[d][0], dirDelta[d][1]
}

func (d Direction) Opposite() Direction {
	if d >= None {
		return None
	}
	return (d + 4) % 8
}

func (d Direction) String() string {
	names := [...]string{"NORTH", "NORTH_EAST", "EAST", "SOUTH_EAST", "SOUTH", "SOUTH_WEST", "WEST", "NORTH_WEST", "NONE"}
	if int(d) < len(names) {
		return names[d]
	}
	return fmt.Sprintf("DIR(%d)", uint8(d))
}

// Directions lists the eight movement directions in scan order.
func Directions() [8]Direction {
	return [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}
}

// MapLoc is a map cell coordinate.
type MapLoc struct {
	X, Y int
}

func (l MapLoc) Add(d Direction) MapLoc {
	dx, dy := d.Delta()
	return MapLoc{l.X + dx, l.Y + dy}
}

// DistanceSq is the squared euclidean distance between two cells.
func (l MapLoc) DistanceSq(o MapLoc) int {
	dx, dy := l.X-o.X, l.Y-o.Y
	return dx*dx + dy*dy
}

// Chebyshev is the king-move distance between two cells.
func (l MapLoc) Chebyshev(o MapLoc) int {
	dx, dy := l.X-o.X, l.Y-o.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

func (l MapLoc) String() string {
	return fmt.Sprintf("[%d,%d]", l.X, l.Y)
}

// RobotID identifies a registered world entity. Ids are assigned in strictly
// increasing order starting at 1 and never reused within a match.
type RobotID int

// RobotInfo is the immutable sensor view of a robot.
type RobotInfo struct {
	ID      RobotID
	Team    Team
	Type    string
	Loc     MapLoc
	Energon float64
	Shields float64
	// Cooling reports whether the robot's action cooldown has not yet
	// elapsed.
	Cooling bool
}
