package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

const validRobots = `
robots:
  - id: hq
    class: HQ
    max_energon: 200
    movement_delay: 2
    attack_delay: 2
    producer: true
    spawnable: [soldier]
    loadout: [eye, radio]
  - id: soldier
    class: GROUND
    max_energon: 40
    spawn_cost: 25
    upkeep: 1
    attack_power: 6
    movement_delay: 1
    attack_delay: 1
    loadout: [eye, legs]
`

const validComponents = `
components:
  - id: eye
    class: SENSOR
    range: 35
    range_shape: CIRCLE
  - id: legs
    class: MOTOR
    range: 0
    range_shape: CIRCLE
  - id: radio
    class: COMM
    range: 0
    range_shape: CIRCLE
`

const validUpgrades = `
upgrades:
  - id: nuke
    rounds: 404
    win: true
  - id: fusion
    rounds: 25
`

func writeConfigs(t *testing.T, robots, components, upgrades string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"robots.yaml":     robots,
		"components.yaml": components,
		"upgrades.yaml":   upgrades,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadValidCatalogs(t *testing.T) {
	dir := writeConfigs(t, validRobots, validComponents, validUpgrades)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Robots.Palette; len(got) != 2 || got[0] != "hq" || got[1] != "soldier" {
		t.Fatalf("robot palette out of file order: %v", got)
	}
	hq := c.Robots.Defs["hq"]
	if !hq.Producer || len(hq.Spawnable) != 1 || hq.Spawnable[0] != "soldier" {
		t.Fatalf("hq def parsed wrong: %+v", hq)
	}
	if c.Components.Defs["eye"].Range != 35 {
		t.Fatalf("component range = %d", c.Components.Defs["eye"].Range)
	}
	if !c.Upgrades.Defs["nuke"].Win || c.Upgrades.Defs["fusion"].Win {
		t.Fatalf("upgrade win flags parsed wrong")
	}
	if c.Robots.Digest == "" || c.Components.Digest == "" || c.Upgrades.Digest == "" {
		t.Fatalf("missing digests")
	}

	// Reloading identical files must produce identical digests.
	c2, err := Load(dir)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if c2.Robots.Digest != c.Robots.Digest ||
		c2.Components.Digest != c.Components.Digest ||
		c2.Upgrades.Digest != c.Upgrades.Digest {
		t.Fatalf("digests unstable across identical loads")
	}
}

func TestDigestTracksContent(t *testing.T) {
	a, err := Load(writeConfigs(t, validRobots, validComponents, validUpgrades))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	changed := validUpgrades + `  - id: vision
    rounds: 25
`
	b, err := Load(writeConfigs(t, validRobots, validComponents, changed))
	if err != nil {
		t.Fatalf("Load (changed): %v", err)
	}
	if a.Upgrades.Digest == b.Upgrades.Digest {
		t.Fatalf("upgrades digest did not change with content")
	}
	if a.Robots.Digest != b.Robots.Digest {
		t.Fatalf("robots digest changed without content change")
	}
}

func TestLoadRejectsUnknownLoadoutComponent(t *testing.T) {
	robots := `
robots:
  - id: hq
    class: HQ
    max_energon: 200
    loadout: [warpdrive]
`
	if _, err := Load(writeConfigs(t, robots, validComponents, validUpgrades)); err == nil {
		t.Fatalf("Load accepted a loadout referencing a missing component")
	}
}

func TestLoadRejectsUnknownSpawnable(t *testing.T) {
	robots := `
robots:
  - id: hq
    class: HQ
    max_energon: 200
    producer: true
    spawnable: [dragon]
    loadout: [eye]
`
	if _, err := Load(writeConfigs(t, robots, validComponents, validUpgrades)); err == nil {
		t.Fatalf("Load accepted a spawnable referencing a missing robot type")
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	robots := validRobots + `  - id: hq
    class: HQ
    max_energon: 1
    loadout: [eye]
`
	if _, err := Load(writeConfigs(t, robots, validComponents, validUpgrades)); err == nil {
		t.Fatalf("Load accepted a duplicate robot id")
	}
}

func TestLoadRejectsBadRangeShape(t *testing.T) {
	components := `
components:
  - id: eye
    class: SENSOR
    range: 35
    range_shape: DODECAHEDRON
`
	if _, err := Load(writeConfigs(t, validRobots, components, validUpgrades)); err == nil {
		t.Fatalf("Load accepted a bad range_shape")
	}
}
