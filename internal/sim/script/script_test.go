package script

import (
	"testing"

	"go.uber.org/zap"

	"robowar.ai/internal/protocol"
	"robowar.ai/internal/sim/catalogs"
	"robowar.ai/internal/sim/engine"
	"robowar.ai/internal/sim/tuning"
)

func testCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Robots: catalogs.RobotCatalog{
			Palette: []string{"hq"},
			Defs: map[string]catalogs.RobotDef{
				"hq": {
					ID: "hq", Class: "HQ", MaxEnergon: 100,
					MovementDelay: 1, AttackDelay: 1,
					Loadout: []string{"core-sensor", "core-comm"},
				},
			},
		},
		Components: catalogs.ComponentCatalog{
			Palette: []string{"core-sensor", "core-comm"},
			Defs: map[string]catalogs.ComponentDef{
				"core-sensor": {ID: "core-sensor", Class: "SENSOR", Range: 64, RangeShape: "CIRCLE"},
				"core-comm":   {ID: "core-comm", Class: "COMM", Range: 0, RangeShape: "CIRCLE"},
			},
		},
		Upgrades: catalogs.UpgradeCatalog{Defs: map[string]catalogs.UpgradeDef{}},
	}
}

func testMap(t *testing.T) *engine.GameMap {
	t.Helper()
	terrain := make([]engine.TerrainTile, 10*10)
	gm, err := engine.NewGameMap("arena", 10, 10, terrain,
		engine.MapLoc{X: 1, Y: 1}, engine.MapLoc{X: 8, Y: 8}, nil)
	if err != nil {
		t.Fatalf("NewGameMap: %v", err)
	}
	return gm
}

func newScriptMatch(t *testing.T, source string, wallclockMs int) *engine.Match {
	t.Helper()
	eng, err := NewEngineFromSource("test.lua", source, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngineFromSource: %v", err)
	}
	tun := tuning.Default()
	tun.TurnWallclockMs = wallclockMs
	m, err := engine.NewMatch(
		engine.MatchConfig{Seed: 1, TeamA: "alpha", TeamB: "beta"},
		tun, testCatalogs(), testMap(t),
		map[engine.Team]engine.PlayerFactory{
			engine.TeamA: eng.Factory(),
			engine.TeamB: eng.Factory(),
		})
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

const commScript = `
function run(api)
  while true do
    api.broadcast(1, api.id())
    local v = api.read_broadcast(1)
    api.set_memory(2, v or 0)
    api.yield()
  end
end
`

func TestLuaBroadcastAndMemory(t *testing.T) {
	m := newScriptMatch(t, commScript, 5000)

	res, err := m.Step()
	if err != nil {
		t.Fatalf("Step 0: %v", err)
	}
	var sawBroadcast, sawMemory bool
	for _, sig := range res.Signals {
		switch sig.Kind {
		case protocol.SignalBroadcast:
			sawBroadcast = true
		case protocol.SignalTeamMemory:
			sawMemory = true
		}
	}
	if !sawBroadcast || !sawMemory {
		t.Fatalf("round 0 missing script signals: broadcast=%v memory=%v", sawBroadcast, sawMemory)
	}

	// Broadcasts become readable one round after they are written. On the
	// first round both robots read an untouched channel.
	mem := m.TeamMemorySnapshot()
	if mem[0][2] != 0 || mem[1][2] != 0 {
		t.Fatalf("round 0 reads should see 0, got %d / %d", mem[0][2], mem[1][2])
	}

	if _, err := m.Step(); err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	// Both robots wrote to channel 1 in round 0; the later commit (higher
	// id) wins, so both teams read robot 2's id.
	mem = m.TeamMemorySnapshot()
	if mem[0][2] != 2 || mem[1][2] != 2 {
		t.Fatalf("round 1 reads = %d / %d, want 2 / 2", mem[0][2], mem[1][2])
	}
}

func TestLuaRunawayScriptIsKilled(t *testing.T) {
	eng, err := NewEngineFromSource("spin.lua", `
function run(api)
  while true do end
end
`, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngineFromSource: %v", err)
	}
	idle := engine.PlayerFunc(func(rc engine.RobotController) {
		for {
			rc.Yield()
		}
	})
	tun := tuning.Default()
	tun.TurnWallclockMs = 50
	m, err := engine.NewMatch(
		engine.MatchConfig{Seed: 1, TeamA: "alpha", TeamB: "beta"},
		tun, testCatalogs(), testMap(t),
		map[engine.Team]engine.PlayerFactory{
			engine.TeamA: eng.Factory(),
			engine.TeamB: func(string, engine.RobotID) engine.Player { return idle },
		})
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	defer m.Close()

	res, err := m.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	var died bool
	for _, sig := range res.Signals {
		if sig.Kind == protocol.SignalDeath && sig.RobotID == 1 {
			died = true
		}
	}
	if !died {
		t.Fatalf("runaway robot survived: %+v", res.Signals)
	}
	if winner, ok := m.Winner(); !ok || winner != engine.TeamB {
		t.Fatalf("winner = %v (%v), want TeamB", winner, ok)
	}
}

func TestLuaErrorKillsRobotNotMatch(t *testing.T) {
	m := newScriptMatch(t, `
function run(api)
  api.yield()
  error("boom")
end
`, 5000)

	res, err := m.Step()
	if err != nil {
		t.Fatalf("Step 0: %v", err)
	}
	for _, sig := range res.Signals {
		if sig.Kind == protocol.SignalDeath {
			t.Fatalf("robot died before its script errored: %+v", sig)
		}
	}

	res, err = m.Step()
	if err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	deaths := 0
	for _, sig := range res.Signals {
		if sig.Kind == protocol.SignalDeath {
			deaths++
		}
	}
	if deaths != 2 {
		t.Fatalf("got %d deaths, want both scripted HQs gone", deaths)
	}
}

func TestSandboxHidesHostSurface(t *testing.T) {
	m := newScriptMatch(t, `
function run(api)
  if os ~= nil or io ~= nil or pcall ~= nil or load ~= nil then
    api.set_memory(0, 1)
  end
  while true do api.yield() end
end
`, 5000)

	if _, err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	mem := m.TeamMemorySnapshot()
	if mem[0][0] != 0 || mem[1][0] != 0 {
		t.Fatalf("sandbox leaked a host library")
	}
}
