// Package players ships the built-in robot logic used by the host and the
// test suite. Every player here is deterministic given its seed.
package players

import (
	"fmt"
	"math/rand"

	"robowar.ai/internal/sim/engine"
)

// Factory resolves a builtin player name to a per-robot factory. The seed
// keeps any randomness reproducible; each robot derives its own stream from
// seed and id.
func Factory(name string, seed int64) (engine.PlayerFactory, error) {
	switch name {
	case "idler":
		return func(robotType string, id engine.RobotID) engine.Player {
			return engine.PlayerFunc(Idle)
		}, nil
	case "wanderer":
		return func(robotType string, id engine.RobotID) engine.Player {
			rng := rand.New(rand.NewSource(seed ^ int64(id)*0x9e3779b9))
			return engine.PlayerFunc(func(rc engine.RobotController) { Wander(rc, rng) })
		}, nil
	case "vanguard":
		return func(robotType string, id engine.RobotID) engine.Player {
			rng := rand.New(rand.NewSource(seed ^ int64(id)*0x9e3779b9))
			return engine.PlayerFunc(func(rc engine.RobotController) { Vanguard(rc, rng) })
		}, nil
	default:
		return nil, fmt.Errorf("unknown builtin player %q", name)
	}
}

// Idle yields forever. Useful as a punching bag.
func Idle(rc engine.RobotController) {
	for {
		rc.Yield()
	}
}

// Wander drifts randomly and attacks whatever wanders into range.
func Wander(rc engine.RobotController, rng *rand.Rand) {
	dirs := engine.Directions()
	for {
		if tryAttackNearby(rc) {
			rc.Yield()
			continue
		}
		d := dirs[rng.Intn(len(dirs))]
		if rc.CanMove(d) {
			_ = rc.Move(d)
		}
		rc.Yield()
	}
}

// Vanguard is the default competitive player: the HQ spawns soldiers and
// researches, soldiers push toward the enemy HQ and fight.
func Vanguard(rc engine.RobotController, rng *rand.Rand) {
	if rc.Type() == "hq" {
		vanguardHQ(rc, rng)
		return
	}
	vanguardSoldier(rc, rng)
}

func vanguardHQ(rc engine.RobotController, rng *rand.Rand) {
	dirs := engine.Directions()
	for {
		spawned := false
		for _, d := range dirs {
			if rc.CanMove(d) {
				if err := rc.Spawn(d, "soldier"); err == nil {
					spawned = true
				}
				break
			}
		}
		if !spawned {
			_ = rc.ResearchUpgrade("nuke")
		}
		rc.Yield()
	}
}

func vanguardSoldier(rc engine.RobotController, rng *rand.Rand) {
	target := rc.SenseEnemyHQLocation()
	for {
		if tryAttackNearby(rc) {
			rc.Yield()
			continue
		}
		d := stepToward(rc.Location(), target)
		if d != engine.None && rc.CanMove(d) {
			_ = rc.Move(d)
		} else if alt := sidestep(d, rng); alt != engine.None && rc.CanMove(alt) {
			_ = rc.Move(alt)
		}
		rc.Yield()
	}
}

func tryAttackNearby(rc engine.RobotController) bool {
	me := rc.Team()
	for _, info := range rc.SenseNearbyRobots(-1) {
		if info.Team == me || info.Team == engine.TeamNeutral {
			continue
		}
		if rc.CanAttackLocation(info.Loc) {
			return rc.AttackLocation(info.Loc) == nil
		}
	}
	return false
}

func stepToward(from, to engine.MapLoc) engine.Direction {
	if from == to {
		return engine.None
	}
	dx, dy := sign(to.X-from.X), sign(to.Y-from.Y)
	for _, d := range engine.Directions() {
		ddx, ddy := d.Delta()
		if ddx == dx && ddy == dy {
			return d
		}
	}
	return engine.None
}

func sidestep(d engine.Direction, rng *rand.Rand) engine.Direction {
	if d == engine.None {
		return engine.None
	}
	if rng.Intn(2) == 0 {
		return (d + 1) % 8
	}
	return (d + 7) % 8
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
