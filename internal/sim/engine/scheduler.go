package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Player is a robot's decision logic. Run is invoked once on the robot's own
// goroutine and owns it for the robot's lifetime; it must call Yield (or
// another turn-ending operation) every round. Returning from Run powers the
// robot down permanently. Player code is untrusted: a panic kills the robot,
// never the match.
type Player interface {
	Run(rc RobotController)
}

// PlayerFactory creates the decision logic for a newly spawned robot of a
// team.
type PlayerFactory func(robotType string, id RobotID) Player

// PlayerFunc adapts a plain function to the Player interface.
type PlayerFunc func(rc RobotController)

func (f PlayerFunc) Run(rc RobotController) { f(rc) }

// Stoppable is an optional Player extension: a best-effort forced stop for
// logic that spins without ever reaching a metering checkpoint. Script
// backends implement it by cancelling their VM.
type Stoppable interface {
	Stop()
}

// errTaskKilled is the sentinel panic used to unwind a robot goroutine when
// its robot is destroyed or the match ends.
var errTaskKilled = fmt.Errorf("robot task killed")

// task is the scheduler's per-robot execution context. Control strictly
// ping-pongs between the scheduler goroutine and the robot goroutine over
// resume/paused, so exactly one of them runs at any time and the whole match
// stays deterministic.
type task struct {
	m      *Match
	robot  *Robot
	player Player

	resume chan struct{}
	paused chan struct{}

	exited  bool
	kill    bool
	haltMsg string

	// abandoned is set by the runaway guard while the robot goroutine may
	// still be executing, so it is the one cross-goroutine field. The
	// disowned side checks it at every checkpoint and unwinds instead of
	// touching the task's buffers again; until that first checkpoint (or
	// the backend's Stop lands) it can still finish one in-flight
	// controller call, which is the guard's documented best-effort window.
	abandoned atomic.Bool

	bytecodesLeft int
	yielded       bool // ended this round's turn voluntarily

	// Buffered requests, applied by the resolver at round commit.
	pending      *action
	broadcasts   []broadcastOp
	memWrites    []memoryOp
	indicators   []indicatorOp
	observations []string
}

type broadcastOp struct {
	channel int
	data    int64
}

type memoryOp struct {
	index  int
	value  int64
	mask   int64
	masked bool
}

type indicatorOp struct {
	index int
	value string
}

func newTask(m *Match, r *Robot, p Player) *task {
	t := &task{
		m:      m,
		robot:  r,
		player: p,
		resume: make(chan struct{}),
		// Buffered so a disowned goroutine's final handoff never blocks.
		paused: make(chan struct{}, 1),
	}
	go t.loop()
	return t
}

// loop is the robot goroutine body. It parks immediately and runs only when
// the scheduler grants it the control token.
func (t *task) loop() {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(fatalError); ok {
				t.m.fatal = fe.err
			} else if r != errTaskKilled {
				// Untrusted code blew up; record why and die quietly.
				t.haltMsg = fmt.Sprintf("player panic: %v", r)
			}
		} else if t.haltMsg == "" {
			t.haltMsg = "player halted"
		}
		t.exited = true
		// Non-blocking: after a runaway the scheduler no longer drains
		// paused, and its buffered slot may already hold a token.
		select {
		case t.paused <- struct{}{}:
		default:
		}
	}()

	<-t.resume
	if t.kill {
		panic(errTaskKilled)
	}
	t.player.Run(&robotCtl{t: t})
}

// runTurn grants the robot one turn: a fresh bytecode budget and the control
// token. It returns when the robot yields, exhausts its budget, exits, or
// panics. A positive wallclock arms the runaway guard: logic that spins
// without reaching a metering checkpoint for that long is disowned and its
// robot dies at commit. The guard exists to protect the host from broken
// script backends; it never fires for checkpoint-cooperative players, so
// deterministic replays are unaffected.
func (t *task) runTurn(budget int, wallclock time.Duration) {
	if t.exited || t.abandoned.Load() {
		return
	}
	t.bytecodesLeft = budget
	t.yielded = false
	t.resume <- struct{}{}
	if wallclock <= 0 {
		<-t.paused
		return
	}
	timer := time.NewTimer(wallclock)
	defer timer.Stop()
	select {
	case <-t.paused:
	case <-timer.C:
		t.kill = true
		t.haltMsg = "runaway: no checkpoint within turn wallclock"
		t.abandoned.Store(true) // last, so the loser sees kill and haltMsg
		if s, ok := t.player.(Stoppable); ok {
			s.Stop()
		}
	}
}

// terminate unwinds the robot goroutine. Called with the robot parked (either
// pre-start or inside endTurn), so the handoff always completes. Disowned
// goroutines are not waited for.
func (t *task) terminate() {
	if t.exited {
		return
	}
	if t.abandoned.Load() {
		if s, ok := t.player.(Stoppable); ok {
			s.Stop()
		}
		// If the goroutine beat the guard to endTurn it is parked on
		// resume; release it so it sees kill and unwinds. Not waited for.
		select {
		case t.resume <- struct{}{}:
		default:
		}
		return
	}
	t.kill = true
	t.resume <- struct{}{}
	<-t.paused
}

// endTurn parks the robot goroutine until the next round's grant. Runs on
// the robot goroutine. A disowned goroutine never parks again: its paused
// send would dangle and its resume would never come, so it unwinds here.
func (t *task) endTurn() {
	if t.abandoned.Load() {
		panic(errTaskKilled)
	}
	t.paused <- struct{}{}
	<-t.resume
	if t.kill {
		panic(errTaskKilled)
	}
}

// charge deducts a bytecode cost at a controller checkpoint. Exhausting the
// budget forcibly ends the turn: the robot parks here and continues, next
// round, exactly where it stopped. Work not yet finalized for this round is
// simply lost.
func (t *task) charge(n int) {
	if t.abandoned.Load() {
		panic(errTaskKilled)
	}
	t.bytecodesLeft -= n
	if t.bytecodesLeft < 0 {
		t.endTurn()
	}
}

// chargeAndYield ends the turn voluntarily.
func (t *task) chargeAndYield() {
	t.yielded = true
	t.endTurn()
}
