package protocol

// MATCH_INFO (server -> observer), sent once on connect.
type MatchInfoMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	MatchID         string     `json:"match_id"`
	TeamA           string     `json:"team_a"`
	TeamB           string     `json:"team_b"`
	MapName         string     `json:"map_name"`
	MapSize         [2]int     `json:"map_size"`
	Seed            int64      `json:"seed"`
	Round           int        `json:"round"`
	Catalogs        CatalogRef `json:"catalogs"`
}

type CatalogRef struct {
	RobotsDigest     string `json:"robots_digest"`
	ComponentsDigest string `json:"components_digest"`
	UpgradesDigest   string `json:"upgrades_digest"`
}

// ROUND (server -> observer), one per committed round.
type RoundMsg struct {
	Type    string   `json:"type"`
	Round   int      `json:"round"`
	Signals []Signal `json:"signals"`
	Digest  string   `json:"digest"`
	Paused  bool     `json:"paused,omitempty"`
}

// MATCH_END (server -> observer), sent after the final round.
type MatchEndMsg struct {
	Type   string `json:"type"`
	Round  int    `json:"round"`
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}
