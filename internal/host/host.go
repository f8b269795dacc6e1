// Package host wires a match together from config: it resolves player
// selectors, builds the world from a map file, and drives the round loop.
// Both the server and the replay verifier sit on top of it.
package host

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"robowar.ai/internal/sim/catalogs"
	"robowar.ai/internal/sim/engine"
	"robowar.ai/internal/sim/maps"
	"robowar.ai/internal/sim/players"
	"robowar.ai/internal/sim/script"
	"robowar.ai/internal/sim/tuning"
)

// MatchSpec is everything needed to (re)build one match bit-for-bit.
type MatchSpec struct {
	Seed    int64
	MapPath string
	TeamA   string
	TeamB   string
	// PlayerA and PlayerB are selectors: "builtin:<name>" or
	// "lua:<path>".
	PlayerA string
	PlayerB string

	OldTeamMemory [2][]int64
}

// ResolvePlayer turns a selector into a player factory.
func ResolvePlayer(selector string, seed int64, log *zap.Logger) (engine.PlayerFactory, error) {
	kind, arg, ok := strings.Cut(selector, ":")
	if !ok {
		return nil, fmt.Errorf("player selector %q: want builtin:<name> or lua:<path>", selector)
	}
	switch kind {
	case "builtin":
		return players.Factory(arg, seed)
	case "lua":
		eng, err := script.NewEngine(arg, log)
		if err != nil {
			return nil, err
		}
		return eng.Factory(), nil
	default:
		return nil, fmt.Errorf("player selector %q: unknown kind %q", selector, kind)
	}
}

// BuildMatch loads the map and assembles a ready-to-step match. The returned
// map carries the name and dimensions for the observer header.
func BuildMatch(spec MatchSpec, tun tuning.Tuning, cats *catalogs.Catalogs, log *zap.Logger) (*engine.Match, *engine.GameMap, error) {
	gm, mines, err := maps.Load(spec.MapPath)
	if err != nil {
		return nil, nil, err
	}
	pa, err := ResolvePlayer(spec.PlayerA, spec.Seed, log)
	if err != nil {
		return nil, nil, fmt.Errorf("team A: %w", err)
	}
	pb, err := ResolvePlayer(spec.PlayerB, spec.Seed, log)
	if err != nil {
		return nil, nil, fmt.Errorf("team B: %w", err)
	}
	m, err := engine.NewMatch(engine.MatchConfig{
		Seed:          spec.Seed,
		TeamA:         spec.TeamA,
		TeamB:         spec.TeamB,
		OldTeamMemory: spec.OldTeamMemory,
	}, tun, cats, gm, map[engine.Team]engine.PlayerFactory{
		engine.TeamA: pa,
		engine.TeamB: pb,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := m.SeedNeutralMines(mines); err != nil {
		m.Close()
		return nil, nil, err
	}
	return m, gm, nil
}

// Result is the outcome of a completed match.
type Result struct {
	Winner engine.Team
	Reason string
	Rounds int
}

// Run steps the match to completion, invoking onRound after every committed
// round. A non-nil callback error aborts the match.
func Run(m *engine.Match, onRound func(engine.StepResult) error) (Result, error) {
	var last engine.StepResult
	for m.IsRunning() {
		res, err := m.Step()
		if err != nil {
			return Result{}, err
		}
		last = res
		if onRound != nil {
			if err := onRound(res); err != nil {
				return Result{}, err
			}
		}
	}
	winner, _ := m.Winner()
	return Result{Winner: winner, Reason: m.WinReason(), Rounds: last.Round + 1}, nil
}
