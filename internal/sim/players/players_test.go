package players_test

import (
	"testing"

	"go.uber.org/zap"

	"robowar.ai/internal/host"
	"robowar.ai/internal/sim/catalogs"
	"robowar.ai/internal/sim/players"
	"robowar.ai/internal/sim/tuning"
)

func TestFactoryRejectsUnknownName(t *testing.T) {
	if _, err := players.Factory("hivemind", 1); err == nil {
		t.Fatalf("expected error for unknown builtin")
	}
}

func TestFactoryNamesResolve(t *testing.T) {
	for _, name := range []string{"idler", "wanderer", "vanguard"} {
		f, err := players.Factory(name, 42)
		if err != nil {
			t.Fatalf("Factory(%q): %v", name, err)
		}
		if f("hq", 1) == nil {
			t.Fatalf("Factory(%q) built a nil player", name)
		}
	}
}

// runShippedMatch drives a full match on the shipped configs so the yaml
// under configs/ stays load-tested alongside the builtin players.
func runShippedMatch(t *testing.T, seed int64, selector string, maxRounds int) []string {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun, err := tuning.Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	tun.MaxRounds = maxRounds
	m, _, err := host.BuildMatch(host.MatchSpec{
		Seed:    seed,
		MapPath: "../../../configs/maps/arena.yaml",
		TeamA:   "alpha",
		TeamB:   "beta",
		PlayerA: selector,
		PlayerB: selector,
	}, tun, cats, zap.NewNop())
	if err != nil {
		t.Fatalf("build match: %v", err)
	}
	defer m.Close()

	var digests []string
	for m.IsRunning() {
		res, err := m.Step()
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		digests = append(digests, res.Digest)
	}
	if _, ok := m.Winner(); !ok {
		t.Fatalf("match finished without a winner")
	}
	return digests
}

func TestVanguardMatchIsDeterministic(t *testing.T) {
	first := runShippedMatch(t, 1234, "builtin:vanguard", 60)
	second := runShippedMatch(t, 1234, "builtin:vanguard", 60)
	if len(first) != len(second) {
		t.Fatalf("round counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("digest diverged at round %d", i)
		}
	}
}

func TestVanguardActuallyActsOnTheWorld(t *testing.T) {
	active := runShippedMatch(t, 7, "builtin:vanguard", 20)
	passive := runShippedMatch(t, 7, "builtin:idler", 20)
	if len(active) == 0 || len(passive) == 0 {
		t.Fatalf("expected at least one round from both matches")
	}
	diverged := len(active) != len(passive)
	for i := 0; !diverged && i < len(active); i++ {
		diverged = active[i] != passive[i]
	}
	if !diverged {
		t.Fatalf("vanguard match was indistinguishable from an idle match")
	}
}
