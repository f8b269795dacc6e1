package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"robowar.ai/internal/host"
	"robowar.ai/internal/persistence/matchlog"
	"robowar.ai/internal/sim/catalogs"
	"robowar.ai/internal/sim/tuning"
)

// replay re-runs a recorded match from its log header and verifies that
// every committed round reproduces the recorded state digest.
func main() {
	var (
		logPath    = flag.String("log", "", "path to match log (.jsonl.zst)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		mapPath    = flag.String("map", "", "map file (default: <configs>/maps/<name>.yaml)")
	)
	flag.Parse()

	if *logPath == "" {
		fmt.Fprintln(os.Stderr, "missing -log")
		os.Exit(2)
	}

	rec, err := matchlog.Read(*logPath)
	if err != nil {
		fail("read match log: %v", err)
	}

	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tun, err := tuning.Load(tp)
	if err != nil {
		fail("load tuning: %v", err)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fail("load catalogs: %v", err)
	}
	if cats.Robots.Digest != rec.Header.RobotsDigest ||
		cats.Components.Digest != rec.Header.ComponentsDigest ||
		cats.Upgrades.Digest != rec.Header.UpgradesDigest {
		fail("catalog digests do not match the recorded match; replay would diverge")
	}

	mp := *mapPath
	if mp == "" {
		mp = filepath.Join(*configDir, "maps", rec.Header.Map+".yaml")
	}

	m, _, err := host.BuildMatch(host.MatchSpec{
		Seed:          rec.Header.Seed,
		MapPath:       mp,
		TeamA:         rec.Header.TeamA,
		TeamB:         rec.Header.TeamB,
		PlayerA:       rec.Header.PlayerA,
		PlayerB:       rec.Header.PlayerB,
		OldTeamMemory: rec.Header.OldTeamMemory,
	}, tun, cats, zap.NewNop())
	if err != nil {
		fail("rebuild match: %v", err)
	}
	defer m.Close()

	checked := 0
	for _, want := range rec.Rounds {
		if !m.IsRunning() {
			fail("match ended at round %d but the log has more rounds", want.Round)
		}
		res, err := m.Step()
		if err != nil {
			fail("round %d: %v", want.Round, err)
		}
		if res.Round != want.Round {
			fail("round number drifted: got %d, want %d", res.Round, want.Round)
		}
		if res.Digest != want.Digest {
			fail("round %d: digest mismatch\n  got  %s\n  want %s", want.Round, res.Digest, want.Digest)
		}
		checked++
	}

	if rec.End != nil {
		winner, ok := m.Winner()
		if !ok || winner.String() != rec.End.Winner {
			fail("winner mismatch: replay says %v, log says %s", winner, rec.End.Winner)
		}
	}
	fmt.Printf("replay ok: %d rounds verified, winner matches\n", checked)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
