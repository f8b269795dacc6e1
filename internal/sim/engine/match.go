package engine

import (
	"fmt"
	"time"

	"robowar.ai/internal/protocol"
	"robowar.ai/internal/sim/catalogs"
	"robowar.ai/internal/sim/tuning"
)

// MatchConfig is the inbound contract: a seed, two team names, and the
// previous match's team memory (zero-filled when absent).
type MatchConfig struct {
	Seed  int64
	TeamA string
	TeamB string

	// HQType names the robot type placed at each map HQ location. Defaults
	// to "hq".
	HQType string

	OldTeamMemory [2][]int64
}

// StepResult is what one committed round hands the host.
type StepResult struct {
	Round   int
	Signals []protocol.Signal
	Digest  string
	// Paused is set when a robot hit a breakpoint this round. Resuming is
	// host policy: the engine just reports it.
	Paused bool
}

// Match owns a single running match: the world, the per-robot execution
// contexts, and the round loop. It is not safe for concurrent use; the host
// drives it from one goroutine.
type Match struct {
	tuning  tuning.Tuning
	cats    *catalogs.Catalogs
	world   *World
	tasks   map[RobotID]*task
	players map[Team]PlayerFactory

	// fatal records an engine invariant violation. Once set the match is
	// dead; no further commits happen.
	fatal error
}

// NewMatch builds the world, places both HQs at the map's spawn locations,
// and parks every robot's logic ready for round 0.
func NewMatch(cfg MatchConfig, tun tuning.Tuning, cats *catalogs.Catalogs, gameMap *GameMap, players map[Team]PlayerFactory) (*Match, error) {
	if err := tun.Validate(); err != nil {
		return nil, err
	}
	hqType := cfg.HQType
	if hqType == "" {
		hqType = "hq"
	}
	hqDef, ok := cats.Robots.Defs[hqType]
	if !ok {
		return nil, fmt.Errorf("catalog has no robot type %q", hqType)
	}
	if hqDef.Class != "HQ" {
		return nil, fmt.Errorf("robot type %q is not an HQ", hqType)
	}
	if players[TeamA] == nil || players[TeamB] == nil {
		return nil, fmt.Errorf("both teams need a player factory")
	}

	mem := NewTeamMemory(tun.TeamMemoryLength, cfg.OldTeamMemory)
	board := NewBoard(tun.BroadcastChannels)
	m := &Match{
		tuning:  tun,
		cats:    cats,
		world:   newWorld(gameMap, cfg.Seed, cfg.TeamA, cfg.TeamB, mem, board, tun.StartingPower),
		tasks:   map[RobotID]*task{},
		players: map[Team]PlayerFactory{TeamA: players[TeamA], TeamB: players[TeamB]},
	}

	for _, team := range []Team{TeamA, TeamB} {
		loc := gameMap.HQ(team)
		if occ := m.world.occupant(loc); occ != nil {
			return nil, fmt.Errorf("HQ locations overlap at %v", loc)
		}
		m.spawnRobot(hqDef, team, loc)
	}
	return m, nil
}

// spawnRobot registers a new robot and starts its decision logic, parked
// until its first turn.
func (m *Match) spawnRobot(def catalogs.RobotDef, team Team, loc MapLoc) *Robot {
	r := newRobot(def, team, loc, m.cats, m.tuning.IndicatorStrings)
	id := m.world.register(r)
	if factory := m.players[team]; factory != nil {
		if p := factory(def.ID, id); p != nil {
			m.tasks[id] = newTask(m, r, p)
		}
	}
	return r
}

// SeedNeutralMines places map-defined neutral mines. Valid only before the
// first round; later calls would break replayability.
func (m *Match) SeedNeutralMines(locs []MapLoc) error {
	if m.world.round >= 0 {
		return fmt.Errorf("mines can only be seeded before round 0")
	}
	for _, loc := range locs {
		m.world.mines[loc] = TeamNeutral
	}
	return nil
}

// Step advances the match exactly one round: tick cooldowns, run every living
// robot's logic under its bytecode budget in ascending-id order, then commit
// all buffered actions atomically and run the win check. The returned signal
// slice is the round's committed log in commit order.
func (m *Match) Step() (StepResult, error) {
	if m.fatal != nil {
		return StepResult{}, m.fatal
	}
	w := m.world
	if !w.running {
		return StepResult{}, ErrMatchOver
	}

	// The previous round's signals were handed to the host by the previous
	// Step; drop them now.
	w.clearSignals()
	w.clearBreakpoint()

	if err := w.advanceRound(); err != nil {
		return m.abort(err)
	}

	// Component cooldowns advance exactly once per round, for every robot,
	// whether or not the owner gets to act.
	for _, id := range w.order {
		for _, comp := range w.robots[id].components {
			comp.tick()
		}
	}

	// Phase 1: run decisions. Visit order is the registry's insertion
	// order, which is ascending id; this fixes determinism.
	order := append([]RobotID(nil), w.order...)
	for _, id := range order {
		if m.fatal != nil {
			return m.abort(m.fatal)
		}
		if w.winnerSet {
			break
		}
		t := m.tasks[id]
		if t == nil || !t.robot.alive {
			continue
		}
		t.runTurn(m.tuning.BytecodeBudget, time.Duration(m.tuning.TurnWallclockMs)*time.Millisecond)
		if (t.exited || t.abandoned.Load()) && t.robot.alive {
			// Player halted or panicked; the robot powers down at commit.
			t.pending = &action{kind: actSuicide}
		}
	}
	if m.fatal != nil {
		return m.abort(m.fatal)
	}

	// Phase 2: single-writer commit.
	if err := m.commit(order); err != nil {
		return m.abort(err)
	}

	res := StepResult{
		Round:   w.round,
		Signals: append([]protocol.Signal(nil), w.signals...),
		Digest:  m.digest(),
		Paused:  w.BreakpointHit(),
	}
	return res, nil
}

// abort tears the match down after a fatal invariant violation. Nothing from
// the failed round is committed.
func (m *Match) abort(err error) (StepResult, error) {
	m.fatal = err
	m.world.running = false
	m.teardown()
	return StepResult{}, err
}

func (m *Match) teardown() {
	for id, t := range m.tasks {
		t.terminate()
		delete(m.tasks, id)
	}
}

// Close releases all robot goroutines. Safe to call after the match ended.
func (m *Match) Close() {
	m.world.running = false
	m.teardown()
}

// Host query surface.

func (m *Match) CurrentRound() int { return m.world.round }
func (m *Match) IsRunning() bool   { return m.world.running && m.fatal == nil }

func (m *Match) Winner() (Team, bool) { return m.world.Winner() }
func (m *Match) WinReason() string    { return m.world.winReason }

func (m *Match) BreakpointHit() bool { return m.world.BreakpointHit() }

// ObjectByID resolves a live robot id to its sensor view.
func (m *Match) ObjectByID(id RobotID) (RobotInfo, error) {
	r := m.world.Lookup(id)
	if r == nil {
		return RobotInfo{}, ErrNotFound
	}
	return r.info(m.world.round), nil
}

// SetControlBits stores host debug input for one robot. The robot reads it
// through its controller; the bits have no gameplay effect. Call between
// steps only.
func (m *Match) SetControlBits(id RobotID, bits uint64) error {
	r := m.world.Lookup(id)
	if r == nil {
		return ErrNotFound
	}
	r.controlBits = bits
	return nil
}

// TeamMemorySnapshot returns both teams' current memory, for persisting to
// the next match of the series.
func (m *Match) TeamMemorySnapshot() [2][]int64 {
	return m.world.memory.Snapshot()
}

func (m *Match) World() *World { return m.world }
