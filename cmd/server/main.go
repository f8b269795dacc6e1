package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"robowar.ai/internal/host"
	"robowar.ai/internal/persistence/matchlog"
	"robowar.ai/internal/persistence/seriesdb"
	"robowar.ai/internal/protocol"
	"robowar.ai/internal/sim/catalogs"
	"robowar.ai/internal/sim/engine"
	"robowar.ai/internal/sim/tuning"
	"robowar.ai/internal/transport/observer"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory (catalogs + tuning.yaml)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		mapPath    = flag.String("map", "./configs/maps/crossroads.yaml", "map file")
		dataDir    = flag.String("data", "./data", "runtime data directory")

		seriesID = flag.String("series", "default", "series id (carries team memory between matches)")
		matches  = flag.Int("matches", 1, "matches to play in this run")
		seed     = flag.Int64("seed", 1337, "seed of the first match; later matches increment it")

		teamA   = flag.String("team_a", "alpha", "team A name")
		teamB   = flag.String("team_b", "beta", "team B name")
		playerA = flag.String("player_a", "builtin:vanguard", "team A player (builtin:<name> or lua:<path>)")
		playerB = flag.String("player_b", "builtin:vanguard", "team B player (builtin:<name> or lua:<path>)")

		addr         = flag.String("addr", "", "observer websocket listen address (empty to disable)")
		roundDelayMs = flag.Int("round_delay_ms", 0, "pacing delay between rounds")
		pauseOnBreak = flag.Bool("pause_on_breakpoint", false, "wait for Enter when a robot hits a breakpoint")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tun, err := tuning.Load(tp)
	if err != nil {
		logger.Fatal("load tuning", zap.Error(err))
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatal("load catalogs", zap.Error(err))
	}

	db, err := seriesdb.Open(filepath.Join(*dataDir, "series.db"))
	if err != nil {
		logger.Fatal("open series db", zap.Error(err))
	}
	defer db.Close()
	if err := db.EnsureSeries(*seriesID, *teamA, *teamB); err != nil {
		logger.Fatal("register series", zap.Error(err))
	}

	var obs *observer.Server
	if *addr != "" {
		obs = observer.NewServer(logger.Named("observer"))
		defer obs.Close()
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/observe", obs.Handler())
		go func() {
			logger.Info("observer listening", zap.String("addr", *addr))
			if err := http.ListenAndServe(*addr, mux); err != nil {
				logger.Error("observer server stopped", zap.Error(err))
			}
		}()
	}

	for i := 0; i < *matches; i++ {
		matchSeed := *seed + int64(i)
		if err := playMatch(logger, db, obs, tun, cats, matchSpecFlags{
			configDir: *configDir, mapPath: *mapPath, dataDir: *dataDir,
			seriesID: *seriesID, seed: matchSeed,
			teamA: *teamA, teamB: *teamB, playerA: *playerA, playerB: *playerB,
			roundDelay: time.Duration(*roundDelayMs) * time.Millisecond,
			pauseOnBreak: *pauseOnBreak,
		}); err != nil {
			logger.Fatal("match failed", zap.Int64("seed", matchSeed), zap.Error(err))
		}
	}
}

type matchSpecFlags struct {
	configDir, mapPath, dataDir    string
	seriesID                       string
	seed                           int64
	teamA, teamB, playerA, playerB string
	roundDelay                     time.Duration
	pauseOnBreak                   bool
}

func playMatch(logger *zap.Logger, db *seriesdb.Store, obs *observer.Server,
	tun tuning.Tuning, cats *catalogs.Catalogs, f matchSpecFlags) error {

	matchNo, err := db.NextMatchNo(f.seriesID)
	if err != nil {
		return err
	}
	oldMem, err := db.LoadTeamMemory(f.seriesID, tun.TeamMemoryLength)
	if err != nil {
		return err
	}

	spec := host.MatchSpec{
		Seed: f.seed, MapPath: f.mapPath,
		TeamA: f.teamA, TeamB: f.teamB,
		PlayerA: f.playerA, PlayerB: f.playerB,
		OldTeamMemory: oldMem,
	}
	m, gm, err := host.BuildMatch(spec, tun, cats, logger.Named("players"))
	if err != nil {
		return err
	}
	defer m.Close()

	matchID := fmt.Sprintf("%s-%04d", f.seriesID, matchNo)
	logPath := filepath.Join(f.dataDir, "matches", matchID+".jsonl.zst")
	mlog, err := matchlog.NewWriter(logPath)
	if err != nil {
		return err
	}
	defer mlog.Close()
	if err := mlog.WriteHeader(matchlog.Header{
		ProtocolVersion: protocol.Version,
		Seed:            f.seed,
		Map:             gm.Name(),
		TeamA:           f.teamA, TeamB: f.teamB,
		PlayerA: f.playerA, PlayerB: f.playerB,
		RobotsDigest:     cats.Robots.Digest,
		ComponentsDigest: cats.Components.Digest,
		UpgradesDigest:   cats.Upgrades.Digest,
		OldTeamMemory:    oldMem,
	}); err != nil {
		return err
	}

	if obs != nil {
		obs.SetMatchInfo(protocol.MatchInfoMsg{
			ProtocolVersion: protocol.Version,
			MatchID:         matchID,
			TeamA:           f.teamA, TeamB: f.teamB,
			MapName: gm.Name(),
			MapSize: [2]int{gm.Width(), gm.Height()},
			Seed:    f.seed,
			Round:   m.CurrentRound(),
			Catalogs: protocol.CatalogRef{
				RobotsDigest:     cats.Robots.Digest,
				ComponentsDigest: cats.Components.Digest,
				UpgradesDigest:   cats.Upgrades.Digest,
			},
		})
	}

	logger.Info("match starting",
		zap.String("match", matchID), zap.Int64("seed", f.seed), zap.String("map", gm.Name()))
	start := time.Now()

	result, err := host.Run(m, func(res engine.StepResult) error {
		if err := mlog.WriteRound(matchlog.RoundEntry{
			Round: res.Round, Signals: res.Signals, Digest: res.Digest,
		}); err != nil {
			return err
		}
		if obs != nil {
			obs.BroadcastRound(protocol.RoundMsg{
				Round: res.Round, Signals: res.Signals, Digest: res.Digest, Paused: res.Paused,
			})
		}
		if res.Paused && f.pauseOnBreak {
			logger.Info("breakpoint hit, press Enter to continue", zap.Int("round", res.Round))
			fmt.Fscanln(os.Stdin)
		}
		if f.roundDelay > 0 {
			time.Sleep(f.roundDelay)
		}
		return nil
	})
	if err != nil {
		return err
	}

	mem := m.TeamMemorySnapshot()
	if err := mlog.WriteEnd(matchlog.EndEntry{
		Winner: result.Winner.String(), Reason: result.Reason,
		Rounds: result.Rounds, TeamMemory: mem,
	}); err != nil {
		return err
	}
	if err := mlog.Close(); err != nil {
		return err
	}
	if obs != nil {
		obs.BroadcastEnd(protocol.MatchEndMsg{
			Round: result.Rounds - 1, Winner: result.Winner.String(), Reason: result.Reason,
		})
	}

	if err := db.SaveTeamMemory(f.seriesID, mem); err != nil {
		return err
	}
	if err := db.RecordMatch(seriesdb.MatchRow{
		Series: f.seriesID, MatchNo: matchNo, Seed: f.seed, Map: gm.Name(),
		Winner: result.Winner.String(), Reason: result.Reason,
		Rounds: result.Rounds, LogPath: logPath,
	}); err != nil {
		return err
	}

	logger.Info("match finished",
		zap.String("match", matchID),
		zap.String("winner", result.Winner.String()),
		zap.String("reason", result.Reason),
		zap.Int("rounds", result.Rounds),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
