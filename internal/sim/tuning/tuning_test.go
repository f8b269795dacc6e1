package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesAllKnobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := `
protocol_version: "1.0"
bytecode_budget: 6000
max_rounds: 500
team_memory_length: 8
broadcast_channels: 256
indicator_strings: 2
turn_wallclock_ms: 100
starting_power: 250
power_per_round: 10
yield_bonus_milli: 150
mine_damage: 12.5
capture_cost: 80
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tun, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tun.BytecodeBudget != 6000 || tun.MaxRounds != 500 || tun.TeamMemoryLength != 8 {
		t.Fatalf("core knobs wrong: %+v", tun)
	}
	if tun.TurnWallclockMs != 100 || tun.MineDamage != 12.5 || tun.CaptureCost != 80 {
		t.Fatalf("aux knobs wrong: %+v", tun)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero budget":   "bytecode_budget: 0\nmax_rounds: 10\nteam_memory_length: 4\nbroadcast_channels: 8\nindicator_strings: 1\n",
		"zero rounds":   "bytecode_budget: 100\nmax_rounds: 0\nteam_memory_length: 4\nbroadcast_channels: 8\nindicator_strings: 1\n",
		"zero memory":   "bytecode_budget: 100\nmax_rounds: 10\nteam_memory_length: 0\nbroadcast_channels: 8\nindicator_strings: 1\n",
		"zero channels": "bytecode_budget: 100\nmax_rounds: 10\nteam_memory_length: 4\nbroadcast_channels: 0\nindicator_strings: 1\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "tuning.yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: Load accepted invalid tuning", name)
		}
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
}
