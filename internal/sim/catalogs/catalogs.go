package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalogs holds the static stat tables the engine queries as opaque
// constants: robot types, component types, and researchable upgrades.
// The engine never hardcodes a cost, range, or delay; it looks them up here.
type Catalogs struct {
	Robots     RobotCatalog
	Components ComponentCatalog
	Upgrades   UpgradeCatalog
}

type RobotCatalog struct {
	Palette []string
	Defs    map[string]RobotDef
	Digest  string
}

// RobotDef is one robot type's fixed parameter table.
type RobotDef struct {
	ID    string `yaml:"id" json:"id"`
	Class string `yaml:"class" json:"class"` // "HQ","GROUND","ENCAMPMENT"

	MaxEnergon float64 `yaml:"max_energon" json:"max_energon"`
	MaxShields float64 `yaml:"max_shields" json:"max_shields"`
	SpawnCost  float64 `yaml:"spawn_cost" json:"spawn_cost"`
	Upkeep     float64 `yaml:"upkeep" json:"upkeep"`
	// PowerGen is per-round power produced (generator encampments).
	PowerGen float64 `yaml:"power_gen,omitempty" json:"power_gen,omitempty"`

	AttackPower   float64 `yaml:"attack_power" json:"attack_power"`
	MovementDelay int     `yaml:"movement_delay" json:"movement_delay"`
	AttackDelay   int     `yaml:"attack_delay" json:"attack_delay"`

	// Producer types may spawn new robots in front of themselves.
	Producer bool `yaml:"producer" json:"producer"`
	// Spawnable lists the types a producer may create.
	Spawnable []string `yaml:"spawnable,omitempty" json:"spawnable,omitempty"`

	// Loadout names the component types equipped at creation.
	Loadout []string `yaml:"loadout" json:"loadout"`
}

type ComponentCatalog struct {
	Palette []string
	Defs    map[string]ComponentDef
	Digest  string
}

// ComponentDef is one component type's fixed parameter table. The
// type-to-class mapping is part of the catalog and never changes at runtime.
type ComponentDef struct {
	ID    string `yaml:"id" json:"id"`
	Class string `yaml:"class" json:"class"` // "SENSOR","WEAPON","MOTOR","COMM","BUILDER","ARMOR"

	// DelayRounds is how long the component stays active after use.
	// Zero means use never blocks it.
	DelayRounds int `yaml:"delay_rounds" json:"delay_rounds"`

	// Range is the reach of the component's geometric predicate. CIRCLE
	// ranges compare squared euclidean distance against Range; SQUARE
	// ranges compare chebyshev distance.
	Range      int    `yaml:"range" json:"range"`
	RangeShape string `yaml:"range_shape" json:"range_shape"` // "CIRCLE" or "SQUARE"
}

type UpgradeCatalog struct {
	Palette []string
	Defs    map[string]UpgradeDef
	Digest  string
}

// UpgradeDef is one researchable upgrade. Win upgrades end the match for the
// researching team when progress reaches Rounds.
type UpgradeDef struct {
	ID     string `yaml:"id" json:"id"`
	Rounds int    `yaml:"rounds" json:"rounds"`
	Win    bool   `yaml:"win,omitempty" json:"win,omitempty"`
}

type robotsFile struct {
	Robots []RobotDef `yaml:"robots"`
}

type componentsFile struct {
	Components []ComponentDef `yaml:"components"`
}

type upgradesFile struct {
	Upgrades []UpgradeDef `yaml:"upgrades"`
}

// Load reads robots.yaml, components.yaml and upgrades.yaml from dir.
func Load(dir string) (*Catalogs, error) {
	c := &Catalogs{}

	var rf robotsFile
	if err := readYAML(filepath.Join(dir, "robots.yaml"), &rf); err != nil {
		return nil, err
	}
	c.Robots.Defs = map[string]RobotDef{}
	for _, d := range rf.Robots {
		if d.ID == "" {
			return nil, fmt.Errorf("robots.yaml: robot with empty id")
		}
		if _, dup := c.Robots.Defs[d.ID]; dup {
			return nil, fmt.Errorf("robots.yaml: duplicate robot %q", d.ID)
		}
		c.Robots.Defs[d.ID] = d
		c.Robots.Palette = append(c.Robots.Palette, d.ID)
	}
	c.Robots.Digest = digestDefs(c.Robots.Palette, func(id string) any { return c.Robots.Defs[id] })

	var cf componentsFile
	if err := readYAML(filepath.Join(dir, "components.yaml"), &cf); err != nil {
		return nil, err
	}
	c.Components.Defs = map[string]ComponentDef{}
	for _, d := range cf.Components {
		if d.ID == "" {
			return nil, fmt.Errorf("components.yaml: component with empty id")
		}
		if _, dup := c.Components.Defs[d.ID]; dup {
			return nil, fmt.Errorf("components.yaml: duplicate component %q", d.ID)
		}
		if d.RangeShape != "CIRCLE" && d.RangeShape != "SQUARE" {
			return nil, fmt.Errorf("components.yaml: component %q: bad range_shape %q", d.ID, d.RangeShape)
		}
		c.Components.Defs[d.ID] = d
		c.Components.Palette = append(c.Components.Palette, d.ID)
	}
	c.Components.Digest = digestDefs(c.Components.Palette, func(id string) any { return c.Components.Defs[id] })

	var uf upgradesFile
	if err := readYAML(filepath.Join(dir, "upgrades.yaml"), &uf); err != nil {
		return nil, err
	}
	c.Upgrades.Defs = map[string]UpgradeDef{}
	for _, d := range uf.Upgrades {
		if d.ID == "" {
			return nil, fmt.Errorf("upgrades.yaml: upgrade with empty id")
		}
		if _, dup := c.Upgrades.Defs[d.ID]; dup {
			return nil, fmt.Errorf("upgrades.yaml: duplicate upgrade %q", d.ID)
		}
		c.Upgrades.Defs[d.ID] = d
		c.Upgrades.Palette = append(c.Upgrades.Palette, d.ID)
	}
	c.Upgrades.Digest = digestDefs(c.Upgrades.Palette, func(id string) any { return c.Upgrades.Defs[id] })

	// Cross-checks: every loadout/spawnable reference must resolve.
	for _, r := range c.Robots.Defs {
		for _, comp := range r.Loadout {
			if _, ok := c.Components.Defs[comp]; !ok {
				return nil, fmt.Errorf("robot %q: unknown component %q", r.ID, comp)
			}
		}
		for _, sp := range r.Spawnable {
			if _, ok := c.Robots.Defs[sp]; !ok {
				return nil, fmt.Errorf("robot %q: unknown spawnable type %q", r.ID, sp)
			}
		}
	}
	return c, nil
}

func readYAML(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// digestDefs hashes the defs in palette order so the digest is stable across
// map iteration order.
func digestDefs(palette []string, lookup func(string) any) string {
	ids := append([]string(nil), palette...)
	sort.Strings(ids)
	h := sha256.New()
	for _, id := range ids {
		b, _ := json.Marshal(lookup(id))
		h.Write([]byte(id))
		h.Write([]byte{0})
		h.Write(b)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
