package engine

import (
	"math/rand"

	"robowar.ai/internal/protocol"
)

// World is the authoritative state store: entity registry, round counter,
// RNG, team identity, win and termination flags, signal log, message board,
// team memory and per-cell/per-team auxiliary state. All gameplay mutation
// goes through the action resolver during round commit; the only other
// writers are register and advanceRound.
type World struct {
	gameMap *GameMap
	rng     *rand.Rand

	teamNames [2]string

	round   int // -1 before the match starts
	running bool

	winner    Team
	winnerSet bool
	winReason string

	breakpointHit bool

	nextID RobotID
	robots map[RobotID]*Robot
	order  []RobotID // insertion order == ascending id
	byLoc  map[MapLoc]RobotID

	signals []protocol.Signal

	memory *TeamMemory
	board  *Board

	mines     map[MapLoc]Team
	research  [2]map[string]int
	teamPower [2]float64
}

func newWorld(gameMap *GameMap, seed int64, teamA, teamB string, mem *TeamMemory, board *Board, startingPower float64) *World {
	w := &World{
		gameMap:   gameMap,
		rng:       rand.New(rand.NewSource(seed)),
		teamNames: [2]string{teamA, teamB},
		round:     -1,
		running:   true,
		nextID:    1,
		robots:    map[RobotID]*Robot{},
		byLoc:     map[MapLoc]RobotID{},
		memory:    mem,
		board:     board,
		mines:     map[MapLoc]Team{},
		teamPower: [2]float64{startingPower, startingPower},
	}
	w.research[0] = map[string]int{}
	w.research[1] = map[string]int{}
	return w
}

// register assigns the next unused id and inserts the robot into the
// registry, preserving insertion order for deterministic scheduling.
func (w *World) register(r *Robot) RobotID {
	id := w.nextID
	w.nextID++
	r.id = id
	w.robots[id] = r
	w.order = append(w.order, id)
	w.byLoc[r.loc] = id
	return id
}

// Lookup resolves an id to its robot, or nil if the id was never assigned or
// the robot has been destroyed.
func (w *World) Lookup(id RobotID) *Robot {
	return w.robots[id]
}

func (w *World) occupant(loc MapLoc) *Robot {
	id, ok := w.byLoc[loc]
	if !ok {
		return nil
	}
	return w.robots[id]
}

// advanceRound increments the round counter. Calling it after the match has
// terminated is an engine bug.
func (w *World) advanceRound() error {
	if !w.running {
		return fatalf("advanceRound after match end (round %d)", w.round)
	}
	w.round++
	return nil
}

// setWinner records the match result. The field is write-once: repeating the
// same team is idempotent, a different team is an invariant violation.
func (w *World) setWinner(t Team, reason string) error {
	if w.winnerSet {
		if w.winner != t {
			return fatalf("winner already set to %s, refusing %s", w.winner, t)
		}
		return nil
	}
	w.winner = t
	w.winnerSet = true
	w.winReason = reason
	return nil
}

func (w *World) CurrentRound() int { return w.round }
func (w *World) IsRunning() bool   { return w.running }

func (w *World) Winner() (Team, bool) { return w.winner, w.winnerSet }

func (w *World) TeamName(t Team) string {
	switch t {
	case TeamA:
		return w.teamNames[0]
	case TeamB:
		return w.teamNames[1]
	default:
		return "neutralplayer"
	}
}

func (w *World) GameMap() *GameMap { return w.gameMap }
func (w *World) RNG() *rand.Rand   { return w.rng }

func (w *World) TeamMemory() *TeamMemory { return w.memory }
func (w *World) Board() *Board           { return w.board }

func (w *World) TeamPower(t Team) float64 {
	if t == TeamNeutral {
		return 0
	}
	return w.teamPower[t.index()]
}

func (w *World) MineAt(loc MapLoc) (Team, bool) {
	t, ok := w.mines[loc]
	return t, ok
}

func (w *World) ResearchProgress(t Team, upgrade string) int {
	if t == TeamNeutral {
		return 0
	}
	return w.research[t.index()][upgrade]
}

func (w *World) addSignal(s protocol.Signal) {
	s.Round = w.round
	w.signals = append(w.signals, s)
}

// Signals returns the current round's committed signal log, in commit order.
func (w *World) Signals() []protocol.Signal { return w.signals }

// clearSignals drops the previous round's log. The scheduler calls this at
// the start of each round, after observers have drained it.
func (w *World) clearSignals() {
	w.signals = w.signals[:0]
}

func (w *World) notifyBreakpoint()   { w.breakpointHit = true }
func (w *World) clearBreakpoint()    { w.breakpointHit = false }
func (w *World) BreakpointHit() bool { return w.breakpointHit }

// removeRobot destroys a robot: registry, occupancy index and order all drop
// it. Ids are never reused.
func (w *World) removeRobot(r *Robot) {
	r.alive = false
	delete(w.robots, r.id)
	if w.byLoc[r.loc] == r.id {
		delete(w.byLoc, r.loc)
	}
	for i, id := range w.order {
		if id == r.id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// moveRobot updates position and the occupancy index together.
func (w *World) moveRobot(r *Robot, to MapLoc) {
	if w.byLoc[r.loc] == r.id {
		delete(w.byLoc, r.loc)
	}
	r.loc = to
	w.byLoc[to] = r.id
}

func locArr(l MapLoc) *[2]int {
	return &[2]int{l.X, l.Y}
}
