package protocol

// SignalKind discriminates the committed-event records of a round.
type SignalKind string

const (
	SignalSpawn       SignalKind = "SPAWN"
	SignalMove        SignalKind = "MOVE"
	SignalAttack      SignalKind = "ATTACK"
	SignalDeath       SignalKind = "DEATH"
	SignalBroadcast   SignalKind = "BROADCAST"
	SignalTeamMemory  SignalKind = "TEAM_MEMORY"
	SignalMineLay     SignalKind = "MINE_LAY"
	SignalMineDefuse  SignalKind = "MINE_DEFUSE"
	SignalMineTrigger SignalKind = "MINE_TRIGGER"
	SignalCapture     SignalKind = "CAPTURE"
	SignalResearch    SignalKind = "RESEARCH"
	SignalIndicator   SignalKind = "INDICATOR"
	SignalObservation SignalKind = "OBSERVATION"
	SignalResign      SignalKind = "RESIGN"
	SignalMatchEnd    SignalKind = "MATCH_END"
)

// Signal is an immutable record of one committed state change. It carries
// enough data for a replay client to reconstruct the event without diffing
// world state. Only the fields relevant to Kind are set.
type Signal struct {
	Kind  SignalKind `json:"kind"`
	Round int        `json:"round"`

	RobotID   int     `json:"robot_id,omitempty"`
	Team      string  `json:"team,omitempty"`
	RobotType string  `json:"robot_type,omitempty"`
	Loc       *[2]int `json:"loc,omitempty"`
	Target    *[2]int `json:"target,omitempty"`

	// BROADCAST.
	Channel int   `json:"channel,omitempty"`
	Data    int64 `json:"data,omitempty"`

	// TEAM_MEMORY.
	Index int   `json:"index,omitempty"`
	Value int64 `json:"value,omitempty"`

	// RESEARCH.
	Upgrade  string `json:"upgrade,omitempty"`
	Progress int    `json:"progress,omitempty"`

	// INDICATOR / OBSERVATION / DEATH reason.
	Text string `json:"text,omitempty"`

	// MATCH_END.
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason,omitempty"`
}
