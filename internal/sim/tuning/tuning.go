package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the engine-wide knobs that are not per-type stats.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	BytecodeBudget    int `yaml:"bytecode_budget"`
	MaxRounds         int `yaml:"max_rounds"`
	TeamMemoryLength  int `yaml:"team_memory_length"`
	BroadcastChannels int `yaml:"broadcast_channels"`
	IndicatorStrings  int `yaml:"indicator_strings"`

	// TurnWallclockMs arms the scheduler's runaway guard for script
	// backends. Zero (the default) disables it; deterministic replays
	// require it to never fire.
	TurnWallclockMs int `yaml:"turn_wallclock_ms,omitempty"`

	StartingPower float64 `yaml:"starting_power"`
	PowerPerRound float64 `yaml:"power_per_round"`
	// YieldBonusMilli is the fraction (in thousandths) of a robot's upkeep
	// refunded per unspent bytecode share when it yields early.
	YieldBonusMilli int `yaml:"yield_bonus_milli"`

	MineDamage  float64 `yaml:"mine_damage"`
	CaptureCost float64 `yaml:"capture_cost"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.BytecodeBudget <= 0 {
		return fmt.Errorf("tuning: bytecode_budget must be positive")
	}
	if t.MaxRounds <= 0 {
		return fmt.Errorf("tuning: max_rounds must be positive")
	}
	if t.TeamMemoryLength <= 0 {
		return fmt.Errorf("tuning: team_memory_length must be positive")
	}
	if t.BroadcastChannels <= 0 {
		return fmt.Errorf("tuning: broadcast_channels must be positive")
	}
	if t.IndicatorStrings <= 0 {
		return fmt.Errorf("tuning: indicator_strings must be positive")
	}
	return nil
}

// Default returns the tuning used when no tuning.yaml is supplied (tests,
// embedded tools).
func Default() Tuning {
	return Tuning{
		ProtocolVersion:   "1.0",
		BytecodeBudget:    10000,
		MaxRounds:         2000,
		TeamMemoryLength:  32,
		BroadcastChannels: 4096,
		IndicatorStrings:  3,
		StartingPower:     500,
		PowerPerRound:     40,
		YieldBonusMilli:   200,
		MineDamage:        10,
		CaptureCost:       100,
	}
}
