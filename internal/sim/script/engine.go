// Package script runs robot players written in Lua. Scripts are untrusted:
// each robot gets its own sandboxed VM with no io/os/load surface, and every
// api call goes through the engine's bytecode metering, so a scripted robot
// is charged and suspended exactly like a compiled one.
package script

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"robowar.ai/internal/sim/engine"
)

// Engine holds one compiled robot script and hands out per-robot players.
// The script must define a global function run(api); it is called once per
// robot and owns that robot for its lifetime.
type Engine struct {
	name   string
	source string
	log    *zap.Logger
}

// NewEngine loads a robot script from disk.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	return NewEngineFromSource(path, string(raw), log)
}

// NewEngineFromSource compiles nothing up front; the source is checked when
// the first robot spins up. name is used only for logs.
func NewEngineFromSource(name, source string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{name: name, source: source, log: log}, nil
}

// Factory returns a PlayerFactory creating one sandboxed VM per robot.
func (e *Engine) Factory() engine.PlayerFactory {
	return func(robotType string, id engine.RobotID) engine.Player {
		ctx, cancel := context.WithCancel(context.Background())
		return &luaPlayer{eng: e, robotType: robotType, id: id, ctx: ctx, cancel: cancel}
	}
}

type luaPlayer struct {
	eng       *Engine
	robotType string
	id        engine.RobotID

	ctx    context.Context
	cancel context.CancelFunc
}

// Stop aborts the VM. The scheduler calls it when the runaway guard fires.
func (p *luaPlayer) Stop() { p.cancel() }

func (p *luaPlayer) Run(rc engine.RobotController) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer vm.Close()
	vm.SetContext(p.ctx)

	openSandboxLibs(vm)
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("ROBOT_TYPE", lua.LString(p.robotType))
	vm.SetGlobal("ROBOT_ID", lua.LNumber(p.id))

	if err := vm.DoString(p.eng.source); err != nil {
		p.eng.log.Error("lua script failed to load",
			zap.String("script", p.eng.name), zap.Int("robot", int(p.id)), zap.Error(err))
		return
	}
	fn := vm.GetGlobal("run")
	if fn == lua.LNil {
		p.eng.log.Error("lua script has no run(api) function",
			zap.String("script", p.eng.name), zap.Int("robot", int(p.id)))
		return
	}

	// Unprotected call: engine control panics (turn kill, fatal invariant)
	// must unwind through the VM to the scheduler, and a Lua runtime error
	// becomes an ordinary player panic that kills only this robot.
	vm.Push(fn)
	vm.Push(p.apiTable(vm, rc))
	vm.Call(1, 0)
	// run() returned: the robot powers down.
}

// openSandboxLibs opens the pure computation libraries and strips everything
// that could load code, reach the host, or trap engine control panics.
func openSandboxLibs(vm *lua.LState) {
	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		vm.Push(vm.NewFunction(pair.fn))
		vm.Push(lua.LString(pair.name))
		vm.Call(1, 0)
	}
	for _, g := range []string{
		"pcall", "xpcall", "dofile", "loadfile", "load", "loadstring",
		"require", "collectgarbage", "print",
	} {
		vm.SetGlobal(g, lua.LNil)
	}
}
