package script

import (
	lua "github.com/yuin/gopher-lua"

	"robowar.ai/internal/sim/engine"
)

var dirNames = map[string]engine.Direction{
	"NORTH":      engine.North,
	"NORTH_EAST": engine.NorthEast,
	"EAST":       engine.East,
	"SOUTH_EAST": engine.SouthEast,
	"SOUTH":      engine.South,
	"SOUTH_WEST": engine.SouthWest,
	"WEST":       engine.West,
	"NORTH_WEST": engine.NorthWest,
}

func checkDir(vm *lua.LState, idx int) engine.Direction {
	d, ok := dirNames[vm.CheckString(idx)]
	if !ok {
		vm.ArgError(idx, "unknown direction")
	}
	return d
}

// errPair converts a recoverable game error to the (ok, code) convention the
// Lua side sees. Engine control panics pass straight through.
func errPair(vm *lua.LState, err error) int {
	if err == nil {
		vm.Push(lua.LTrue)
		vm.Push(lua.LNil)
		return 2
	}
	vm.Push(lua.LFalse)
	vm.Push(lua.LString(engine.ErrCode(err)))
	return 2
}

// apiTable builds the per-robot api exposed to run(api). Every function is a
// checkpoint: the controller charges it against the robot's bytecode budget.
func (p *luaPlayer) apiTable(vm *lua.LState, rc engine.RobotController) *lua.LTable {
	api := vm.NewTable()
	set := func(name string, fn lua.LGFunction) {
		api.RawSetString(name, vm.NewFunction(fn))
	}

	// Queries.
	set("id", func(l *lua.LState) int { l.Push(lua.LNumber(rc.ID())); return 1 })
	set("team", func(l *lua.LState) int { l.Push(lua.LString(rc.Team().String())); return 1 })
	set("type", func(l *lua.LState) int { l.Push(lua.LString(rc.Type())); return 1 })
	set("round", func(l *lua.LState) int { l.Push(lua.LNumber(rc.CurrentRound())); return 1 })
	set("energon", func(l *lua.LState) int { l.Push(lua.LNumber(rc.Energon())); return 1 })
	set("shields", func(l *lua.LState) int { l.Push(lua.LNumber(rc.Shields())); return 1 })
	set("team_power", func(l *lua.LState) int { l.Push(lua.LNumber(rc.TeamPower())); return 1 })
	set("bytecodes_left", func(l *lua.LState) int { l.Push(lua.LNumber(rc.BytecodesLeft())); return 1 })
	set("is_active", func(l *lua.LState) int { l.Push(lua.LBool(rc.IsActive())); return 1 })
	set("rounds_until_active", func(l *lua.LState) int { l.Push(lua.LNumber(rc.RoundsUntilActive())); return 1 })
	set("location", func(l *lua.LState) int {
		loc := rc.Location()
		l.Push(lua.LNumber(loc.X))
		l.Push(lua.LNumber(loc.Y))
		return 2
	})
	set("map_size", func(l *lua.LState) int {
		l.Push(lua.LNumber(rc.MapWidth()))
		l.Push(lua.LNumber(rc.MapHeight()))
		return 2
	})

	// Sensors.
	set("hq", func(l *lua.LState) int {
		loc := rc.SenseHQLocation()
		l.Push(lua.LNumber(loc.X))
		l.Push(lua.LNumber(loc.Y))
		return 2
	})
	set("enemy_hq", func(l *lua.LState) int {
		loc := rc.SenseEnemyHQLocation()
		l.Push(lua.LNumber(loc.X))
		l.Push(lua.LNumber(loc.Y))
		return 2
	})
	set("can_sense", func(l *lua.LState) int {
		loc := engine.MapLoc{X: l.CheckInt(1), Y: l.CheckInt(2)}
		l.Push(lua.LBool(rc.CanSenseLocation(loc)))
		return 1
	})
	set("sense_nearby", func(l *lua.LState) int {
		radiusSq := -1
		if l.GetTop() >= 1 {
			radiusSq = l.CheckInt(1)
		}
		infos := rc.SenseNearbyRobots(radiusSq)
		out := l.NewTable()
		for i, info := range infos {
			row := l.NewTable()
			row.RawSetString("id", lua.LNumber(info.ID))
			row.RawSetString("team", lua.LString(info.Team.String()))
			row.RawSetString("type", lua.LString(info.Type))
			row.RawSetString("x", lua.LNumber(info.Loc.X))
			row.RawSetString("y", lua.LNumber(info.Loc.Y))
			row.RawSetString("energon", lua.LNumber(info.Energon))
			row.RawSetString("cooling", lua.LBool(info.Cooling))
			out.RawSetInt(i+1, row)
		}
		l.Push(out)
		return 1
	})
	set("sense_mine", func(l *lua.LState) int {
		team, ok := rc.SenseMine(engine.MapLoc{X: l.CheckInt(1), Y: l.CheckInt(2)})
		if !ok {
			l.Push(lua.LNil)
			return 1
		}
		l.Push(lua.LString(team.String()))
		return 1
	})

	// Movement and combat.
	set("can_move", func(l *lua.LState) int {
		l.Push(lua.LBool(rc.CanMove(checkDir(l, 1))))
		return 1
	})
	set("move", func(l *lua.LState) int {
		return errPair(l, rc.Move(checkDir(l, 1)))
	})
	set("can_attack", func(l *lua.LState) int {
		loc := engine.MapLoc{X: l.CheckInt(1), Y: l.CheckInt(2)}
		l.Push(lua.LBool(rc.CanAttackLocation(loc)))
		return 1
	})
	set("attack", func(l *lua.LState) int {
		loc := engine.MapLoc{X: l.CheckInt(1), Y: l.CheckInt(2)}
		return errPair(l, rc.AttackLocation(loc))
	})

	// Production and map actions.
	set("spawn", func(l *lua.LState) int {
		return errPair(l, rc.Spawn(checkDir(l, 1), l.CheckString(2)))
	})
	set("lay_mine", func(l *lua.LState) int {
		return errPair(l, rc.LayMine())
	})
	set("defuse_mine", func(l *lua.LState) int {
		loc := engine.MapLoc{X: l.CheckInt(1), Y: l.CheckInt(2)}
		return errPair(l, rc.DefuseMine(loc))
	})
	set("capture", func(l *lua.LState) int {
		return errPair(l, rc.CaptureEncampment(l.CheckString(1)))
	})

	// Research.
	set("research", func(l *lua.LState) int {
		return errPair(l, rc.ResearchUpgrade(l.CheckString(1)))
	})
	set("has_upgrade", func(l *lua.LState) int {
		l.Push(lua.LBool(rc.HasUpgrade(l.CheckString(1))))
		return 1
	})

	// Comms.
	set("broadcast", func(l *lua.LState) int {
		return errPair(l, rc.Broadcast(l.CheckInt(1), int64(l.CheckNumber(2))))
	})
	set("read_broadcast", func(l *lua.LState) int {
		v, err := rc.ReadBroadcast(l.CheckInt(1))
		if err != nil {
			l.Push(lua.LNil)
			l.Push(lua.LString(engine.ErrCode(err)))
			return 2
		}
		l.Push(lua.LNumber(v))
		return 1
	})

	// Team memory.
	set("set_memory", func(l *lua.LState) int {
		rc.SetTeamMemory(l.CheckInt(1), int64(l.CheckNumber(2)))
		return 0
	})
	set("set_memory_masked", func(l *lua.LState) int {
		rc.SetTeamMemoryMasked(l.CheckInt(1), int64(l.CheckNumber(2)), int64(l.CheckNumber(3)))
		return 0
	})
	set("memory", func(l *lua.LState) int {
		out := l.NewTable()
		for i, v := range rc.TeamMemory() {
			out.RawSetInt(i+1, lua.LNumber(v))
		}
		l.Push(out)
		return 1
	})

	// Turn control and debug.
	set("yield", func(l *lua.LState) int { rc.Yield(); return 0 })
	set("suicide", func(l *lua.LState) int { rc.Suicide(); return 0 })
	set("resign", func(l *lua.LState) int { rc.Resign(); return 0 })
	set("indicator", func(l *lua.LState) int {
		rc.SetIndicatorString(l.CheckInt(1), l.CheckString(2))
		return 0
	})
	set("observe", func(l *lua.LState) int {
		rc.AddMatchObservation(l.CheckString(1))
		return 0
	})
	set("breakpoint", func(l *lua.LState) int { rc.Breakpoint(); return 0 })

	return api
}
