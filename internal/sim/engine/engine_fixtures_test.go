package engine

import (
	"testing"

	"robowar.ai/internal/protocol"
	"robowar.ai/internal/sim/catalogs"
	"robowar.ai/internal/sim/tuning"
)

// testCats is a compact catalog with one type per concern: an HQ, a soldier
// that can fight, move, lay mines and spawn, and a capturable encampment.
func testCats() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Robots: catalogs.RobotCatalog{
			Palette: []string{"hq", "soldier", "post"},
			Defs: map[string]catalogs.RobotDef{
				"hq": {
					ID: "hq", Class: "HQ", MaxEnergon: 200, MaxShields: 50,
					AttackPower: 10, MovementDelay: 2, AttackDelay: 2,
					Producer: true, Spawnable: []string{"soldier"},
					Loadout: []string{"watcher", "gun", "radio"},
				},
				"soldier": {
					ID: "soldier", Class: "GROUND", MaxEnergon: 40,
					SpawnCost: 25, Upkeep: 1, AttackPower: 6,
					MovementDelay: 1, AttackDelay: 1,
					Producer: true, Spawnable: []string{"soldier"},
					Loadout: []string{"watcher", "motor", "gun", "kit", "radio"},
				},
				"post": {
					ID: "post", Class: "ENCAMPMENT", MaxEnergon: 60,
					PowerGen: 10,
					Loadout:  []string{"watcher", "radio"},
				},
			},
		},
		Components: catalogs.ComponentCatalog{
			Palette: []string{"watcher", "motor", "gun", "kit", "radio"},
			Defs: map[string]catalogs.ComponentDef{
				"watcher": {ID: "watcher", Class: "SENSOR", Range: 10000, RangeShape: "CIRCLE"},
				"motor":   {ID: "motor", Class: "MOTOR", RangeShape: "CIRCLE"},
				"gun":     {ID: "gun", Class: "WEAPON", DelayRounds: 1, Range: 13, RangeShape: "CIRCLE"},
				"kit":     {ID: "kit", Class: "BUILDER", DelayRounds: 2, Range: 1, RangeShape: "SQUARE"},
				"radio":   {ID: "radio", Class: "COMM", RangeShape: "CIRCLE"},
			},
		},
		Upgrades: catalogs.UpgradeCatalog{
			Palette: []string{"overclock", "armor"},
			Defs: map[string]catalogs.UpgradeDef{
				"overclock": {ID: "overclock", Rounds: 2, Win: true},
				"armor":     {ID: "armor", Rounds: 3},
			},
		},
	}
}

func flatMap(t *testing.T, size int, encampments []MapLoc) *GameMap {
	t.Helper()
	gm, err := NewGameMap("flat", size, size, make([]TerrainTile, size*size),
		MapLoc{X: 0, Y: 0}, MapLoc{X: size - 1, Y: size - 1}, encampments)
	if err != nil {
		t.Fatalf("NewGameMap: %v", err)
	}
	return gm
}

func testTuning() tuning.Tuning {
	tun := tuning.Default()
	tun.StartingPower = 1000
	return tun
}

func idle(rc RobotController) {
	for {
		rc.Yield()
	}
}

// seq runs one step per round, then idles. Each step ends with a yield.
func seq(steps ...func(rc RobotController)) PlayerFunc {
	return func(rc RobotController) {
		for _, step := range steps {
			step(rc)
			rc.Yield()
		}
		idle(rc)
	}
}

// byType dispatches behavior on robot type; unlisted types idle.
func byType(m map[string]PlayerFunc) PlayerFactory {
	return func(robotType string, id RobotID) Player {
		if f, ok := m[robotType]; ok {
			return f
		}
		return PlayerFunc(idle)
	}
}

func idleFactory(string, RobotID) Player { return PlayerFunc(idle) }

// newTestMatch builds a match on a flat map with per-team factories. Robots
// beyond the HQs are placed by the individual tests before the first Step.
func newTestMatch(t *testing.T, tun tuning.Tuning, gm *GameMap, a, b PlayerFactory) *Match {
	t.Helper()
	if a == nil {
		a = idleFactory
	}
	if b == nil {
		b = idleFactory
	}
	m, err := NewMatch(MatchConfig{Seed: 7, TeamA: "alpha", TeamB: "beta"},
		tun, testCats(), gm,
		map[Team]PlayerFactory{TeamA: a, TeamB: b})
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func place(t *testing.T, m *Match, robotType string, team Team, loc MapLoc) *Robot {
	t.Helper()
	def, ok := m.cats.Robots.Defs[robotType]
	if !ok {
		t.Fatalf("no robot type %q in test catalog", robotType)
	}
	if m.world.occupant(loc) != nil {
		t.Fatalf("cell %v already occupied", loc)
	}
	return m.spawnRobot(def, team, loc)
}

func mustStep(t *testing.T, m *Match) StepResult {
	t.Helper()
	res, err := m.Step()
	if err != nil {
		t.Fatalf("Step (round %d): %v", m.CurrentRound(), err)
	}
	return res
}

func findSignal(res StepResult, kind protocol.SignalKind) (*protocol.Signal, bool) {
	for i, sig := range res.Signals {
		if sig.Kind == kind {
			return &res.Signals[i], true
		}
	}
	return nil, false
}

func countSignals(res StepResult, kind protocol.SignalKind) int {
	n := 0
	for _, sig := range res.Signals {
		if sig.Kind == kind {
			n++
		}
	}
	return n
}
