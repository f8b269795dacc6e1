package protocol_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"robowar.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compiler := jsonschema.NewCompiler()
	for _, name := range []string{"signal.schema.json", "round.schema.json", "match_info.schema.json"} {
		p := filepath.Join("..", "..", "schemas", name)
		f, err := os.Open(p)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		if err := compiler.AddResource("https://robowar.ai/schemas/"+name, f); err != nil {
			f.Close()
			t.Fatalf("add resource %s: %v", name, err)
		}
		f.Close()
	}
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		s, err := compiler.Compile("https://robowar.ai/schemas/" + name)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	// Real structs are marshaled and decoded back so the schemas are
	// checked against what the wire actually carries.
	roundTrip := func(v any) any {
		t.Helper()
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return out
	}

	signalSchema := compile("signal.schema.json")
	roundSchema := compile("round.schema.json")
	infoSchema := compile("match_info.schema.json")

	loc := [2]int{3, 4}
	target := [2]int{3, 5}
	signals := []protocol.Signal{
		{Kind: protocol.SignalSpawn, Round: 1, RobotID: 3, Team: "A", RobotType: "soldier", Loc: &loc},
		{Kind: protocol.SignalMove, Round: 1, RobotID: 3, Team: "A", Loc: &loc, Target: &target},
		{Kind: protocol.SignalAttack, Round: 1, RobotID: 3, Team: "A", Loc: &loc, Target: &target},
		{Kind: protocol.SignalBroadcast, Round: 1, RobotID: 3, Team: "A", Channel: 17, Data: -42},
		{Kind: protocol.SignalTeamMemory, Round: 1, RobotID: 3, Team: "A", Index: 2, Value: 255},
		{Kind: protocol.SignalResearch, Round: 1, RobotID: 1, Team: "B", Upgrade: "nuke", Progress: 12},
		{Kind: protocol.SignalMineTrigger, Round: 1, RobotID: 3, Team: "NEUTRAL", Loc: &target},
		{Kind: protocol.SignalDeath, Round: 1, RobotID: 3, Team: "A", RobotType: "soldier", Loc: &loc, Text: "destroyed"},
		{Kind: protocol.SignalMatchEnd, Round: 1, Winner: "B", Reason: "destruction"},
	}
	for _, sig := range signals {
		validate(signalSchema, roundTrip(sig))
	}

	validate(roundSchema, roundTrip(protocol.RoundMsg{
		Type:    protocol.TypeRound,
		Round:   1,
		Signals: signals,
		Digest:  "deadbeefdeadbeef",
	}))
	validate(roundSchema, roundTrip(protocol.RoundMsg{
		Type:    protocol.TypeRound,
		Round:   2,
		Signals: []protocol.Signal{},
		Digest:  "deadbeefdeadbeef",
		Paused:  true,
	}))

	validate(infoSchema, roundTrip(protocol.MatchInfoMsg{
		Type:            protocol.TypeMatchInfo,
		ProtocolVersion: protocol.Version,
		MatchID:         "default-0001",
		TeamA:           "alpha",
		TeamB:           "beta",
		MapName:         "crossroads",
		MapSize:         [2]int{20, 15},
		Seed:            1337,
		Round:           -1,
		Catalogs: protocol.CatalogRef{
			RobotsDigest:     "deadbeefdeadbeef",
			ComponentsDigest: "deadbeefdeadbeef",
			UpgradesDigest:   "deadbeefdeadbeef",
		},
	}))
}
