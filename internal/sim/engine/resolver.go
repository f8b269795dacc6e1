package engine

import "robowar.ai/internal/protocol"

type actionKind uint8

const (
	actMove actionKind = iota + 1
	actAttack
	actSpawn
	actLayMine
	actDefuseMine
	actCapture
	actResearch
	actSuicide
	actResign
)

// action is one buffered terminal request. Components chosen at issue time
// are carried along so commit consumes the same equipment the player saw.
type action struct {
	kind      actionKind
	dir       Direction
	target    MapLoc
	robotType string
	upgrade   string
	weapon    *Component
	builder   *Component
	motor     *Component
}

// commit turns the round's buffered requests into a single consistent world
// transition. Robots are processed in visit order; every precondition is
// re-checked against the post-commit-so-far state, and a request that went
// stale degrades silently to a yield. Signals are emitted in commit order.
func (m *Match) commit(order []RobotID) error {
	w := m.world
	for _, id := range order {
		t := m.tasks[id]
		if t == nil {
			continue
		}
		r := t.robot
		if r.alive {
			if t.pending != nil {
				if err := m.applyAction(t, t.pending); err != nil {
					return err
				}
			}
			// Side channels commit even when the terminal action went
			// stale; they cannot conflict.
			if r.alive {
				m.applySideChannels(t)
			}
		}
		t.pending = nil
		t.broadcasts = t.broadcasts[:0]
		t.memWrites = t.memWrites[:0]
		t.indicators = t.indicators[:0]
		t.observations = t.observations[:0]
	}

	m.applyPower()
	w.board.flip()
	return m.checkWinner()
}

func (m *Match) applyAction(t *task, a *action) error {
	w := m.world
	r := t.robot
	switch a.kind {
	case actMove:
		dest := r.loc.Add(a.dir)
		if a.motor.active || !w.gameMap.Passable(dest) || w.occupant(dest) != nil {
			return nil // stale: destination claimed or motor consumed this round
		}
		a.motor.activate()
		from := r.loc
		w.moveRobot(r, dest)
		r.activeAtRound = w.round + r.def.MovementDelay
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalMove, RobotID: int(r.id), Team: r.team.String(),
			Loc: locArr(from), Target: locArr(dest),
		})
		if owner, mined := w.mines[dest]; mined && owner != r.team {
			delete(w.mines, dest)
			w.addSignal(protocol.Signal{
				Kind: protocol.SignalMineTrigger, RobotID: int(r.id), Team: owner.String(), Loc: locArr(dest),
			})
			if r.damage(m.tuning.MineDamage) {
				m.killRobot(r, "mine")
			}
		}

	case actAttack:
		if a.weapon.active || !a.weapon.WithinRange(r.loc, a.target) {
			return nil
		}
		a.weapon.activate()
		r.activeAtRound = w.round + r.def.AttackDelay
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalAttack, RobotID: int(r.id), Team: r.team.String(),
			Loc: locArr(r.loc), Target: locArr(a.target),
		})
		if victim := w.occupant(a.target); victim != nil {
			if victim.damage(r.def.AttackPower) {
				m.killRobot(victim, "destroyed")
			}
		}

	case actSpawn:
		def := m.cats.Robots.Defs[a.robotType]
		front := r.loc.Add(a.dir)
		if !w.gameMap.Passable(front) || w.occupant(front) != nil {
			return nil
		}
		if w.teamPower[r.team.index()] < def.SpawnCost {
			return nil
		}
		w.teamPower[r.team.index()] -= def.SpawnCost
		r.activeAtRound = w.round + r.def.MovementDelay
		nr := m.spawnRobot(def, r.team, front)
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalSpawn, RobotID: int(nr.id), Team: nr.team.String(),
			RobotType: nr.def.ID, Loc: locArr(front),
		})

	case actLayMine:
		if a.builder.active {
			return nil
		}
		if _, mined := w.mines[r.loc]; mined {
			return nil
		}
		a.builder.activate()
		w.mines[r.loc] = r.team
		r.activeAtRound = w.round + a.builder.def.DelayRounds
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalMineLay, RobotID: int(r.id), Team: r.team.String(), Loc: locArr(r.loc),
		})

	case actDefuseMine:
		if a.builder.active || !a.builder.WithinRange(r.loc, a.target) {
			return nil
		}
		owner, mined := w.mines[a.target]
		if !mined {
			return nil
		}
		a.builder.activate()
		delete(w.mines, a.target)
		r.activeAtRound = w.round + a.builder.def.DelayRounds
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalMineDefuse, RobotID: int(r.id), Team: owner.String(), Loc: locArr(a.target),
		})

	case actCapture:
		if !w.gameMap.IsEncampment(r.loc) {
			return nil
		}
		if w.teamPower[r.team.index()] < m.tuning.CaptureCost {
			return nil
		}
		w.teamPower[r.team.index()] -= m.tuning.CaptureCost
		def := m.cats.Robots.Defs[a.robotType]
		loc, team := r.loc, r.team
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalCapture, RobotID: int(r.id), Team: team.String(),
			RobotType: a.robotType, Loc: locArr(loc),
		})
		// Capture consumes the capturing robot, then raises the encampment
		// in its place.
		m.killRobot(r, "captured")
		nr := m.spawnRobot(def, team, loc)
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalSpawn, RobotID: int(nr.id), Team: team.String(),
			RobotType: def.ID, Loc: locArr(loc),
		})

	case actResearch:
		def, ok := m.cats.Upgrades.Defs[a.upgrade]
		if !ok {
			return nil
		}
		idx := r.team.index()
		if w.research[idx][a.upgrade] >= def.Rounds {
			return nil
		}
		w.research[idx][a.upgrade]++
		progress := w.research[idx][a.upgrade]
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalResearch, RobotID: int(r.id), Team: r.team.String(),
			Upgrade: a.upgrade, Progress: progress,
		})
		// If an earlier commit this round already decided the match, a
		// second completed win upgrade is stale like any other late claim.
		if def.Win && progress >= def.Rounds && !w.winnerSet {
			if err := w.setWinner(r.team, "research:"+a.upgrade); err != nil {
				return err
			}
		}

	case actSuicide:
		reason := "suicide"
		if t.haltMsg != "" {
			reason = t.haltMsg
		}
		m.killRobot(r, reason)

	case actResign:
		if w.winnerSet {
			return nil // the match was decided earlier in this commit
		}
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalResign, RobotID: int(r.id), Team: r.team.String(),
		})
		if err := w.setWinner(r.team.Opponent(), "resignation"); err != nil {
			return err
		}
	}
	return nil
}

func (m *Match) applySideChannels(t *task) {
	w := m.world
	r := t.robot
	for _, op := range t.broadcasts {
		w.board.bufferWrite(op.channel, op.data)
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalBroadcast, RobotID: int(r.id), Team: r.team.String(),
			Channel: op.channel, Data: op.data,
		})
	}
	for _, op := range t.memWrites {
		// Index already validated at issue; a failure here is an engine bug.
		var err error
		if op.masked {
			err = w.memory.WriteMasked(r.team, op.index, op.value, op.mask)
		} else {
			err = w.memory.Write(r.team, op.index, op.value)
		}
		if err != nil {
			panic(err)
		}
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalTeamMemory, RobotID: int(r.id), Team: r.team.String(),
			Index: op.index, Value: w.memory.current[r.team.index()][op.index],
		})
	}
	for _, op := range t.indicators {
		r.indicators[op.index] = op.value
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalIndicator, RobotID: int(r.id), Team: r.team.String(),
			Index: op.index, Text: op.value,
		})
	}
	for _, text := range t.observations {
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalObservation, RobotID: int(r.id), Team: r.team.String(), Text: text,
		})
	}
}

// applyPower charges upkeep, pays generator output and the per-round income,
// and refunds the yield bonus for robots that ended their turn early.
func (m *Match) applyPower() {
	w := m.world
	budget := m.tuning.BytecodeBudget
	for _, id := range w.order {
		r := w.robots[id]
		if r.team == TeamNeutral {
			continue
		}
		idx := r.team.index()
		w.teamPower[idx] -= r.def.Upkeep
		w.teamPower[idx] += r.def.PowerGen
		if t := m.tasks[id]; t != nil && t.yielded && budget > 0 && r.def.Upkeep > 0 {
			unspent := float64(t.bytecodesLeft) / float64(budget)
			if unspent > 0 {
				w.teamPower[idx] += r.def.Upkeep * float64(m.tuning.YieldBonusMilli) / 1000 * unspent
			}
		}
	}
	for idx := 0; idx < 2; idx++ {
		w.teamPower[idx] += m.tuning.PowerPerRound
		if w.teamPower[idx] < 0 {
			w.teamPower[idx] = 0
		}
	}
}

// killRobot removes a robot from the world, emits its death signal, and tears
// down its execution context.
func (m *Match) killRobot(r *Robot, reason string) {
	w := m.world
	w.removeRobot(r)
	w.addSignal(protocol.Signal{
		Kind: protocol.SignalDeath, RobotID: int(r.id), Team: r.team.String(),
		RobotType: r.def.ID, Loc: locArr(r.loc), Text: reason,
	})
	if t := m.tasks[r.id]; t != nil {
		t.terminate()
		delete(m.tasks, r.id)
	}
}

// checkWinner runs the win-condition check after all actions commit: a team
// with no surviving HQ loses; at the round cap the tiebreak is total energon,
// then robot count, then team A.
func (m *Match) checkWinner() error {
	w := m.world
	if !w.winnerSet {
		var hqs, count [2]int
		var energon [2]float64
		for _, id := range w.order {
			r := w.robots[id]
			if r.team == TeamNeutral {
				continue
			}
			idx := r.team.index()
			count[idx]++
			energon[idx] += r.energon
			if r.def.Class == "HQ" {
				hqs[idx]++
			}
		}
		switch {
		case hqs[0] == 0 && hqs[1] == 0:
			if err := m.tiebreak(energon, count); err != nil {
				return err
			}
		case hqs[0] == 0:
			if err := w.setWinner(TeamB, "destruction"); err != nil {
				return err
			}
		case hqs[1] == 0:
			if err := w.setWinner(TeamA, "destruction"); err != nil {
				return err
			}
		case w.round >= m.tuning.MaxRounds-1:
			if err := m.tiebreak(energon, count); err != nil {
				return err
			}
		}
	}

	if w.winnerSet && w.running {
		w.running = false
		w.addSignal(protocol.Signal{
			Kind: protocol.SignalMatchEnd, Winner: w.winner.String(), Reason: w.winReason,
		})
		// Surviving robots of both teams stop executing.
		for _, id := range append([]RobotID(nil), w.order...) {
			if t := m.tasks[id]; t != nil {
				t.terminate()
				delete(m.tasks, id)
			}
		}
	}
	return nil
}

func (m *Match) tiebreak(energon [2]float64, count [2]int) error {
	w := m.world
	switch {
	case energon[0] != energon[1]:
		if energon[0] > energon[1] {
			return w.setWinner(TeamA, "tiebreak:energon")
		}
		return w.setWinner(TeamB, "tiebreak:energon")
	case count[0] != count[1]:
		if count[0] > count[1] {
			return w.setWinner(TeamA, "tiebreak:count")
		}
		return w.setWinner(TeamB, "tiebreak:count")
	default:
		return w.setWinner(TeamA, "tiebreak:default")
	}
}
