package maps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"robowar.ai/internal/sim/engine"
)

// File is the on-disk map format. Terrain rows use '.' for land and '#' for
// void; width is the row length and all rows must match.
type File struct {
	Name        string   `yaml:"name"`
	Terrain     []string `yaml:"terrain"`
	HQA         [2]int   `yaml:"hq_a"`
	HQB         [2]int   `yaml:"hq_b"`
	Encampments [][2]int `yaml:"encampments,omitempty"`
	Mines       [][2]int `yaml:"mines,omitempty"` // neutral pre-placed mines
}

// Load parses a map file and builds the engine's immutable GameMap.
func Load(path string) (*engine.GameMap, []engine.MapLoc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return Build(f)
}

// Build converts a parsed map file into a GameMap plus the neutral mine
// locations the host seeds the world with.
func Build(f File) (*engine.GameMap, []engine.MapLoc, error) {
	if f.Name == "" {
		f.Name = "unnamed"
	}
	if len(f.Terrain) == 0 {
		return nil, nil, fmt.Errorf("map %q: no terrain rows", f.Name)
	}
	height := len(f.Terrain)
	width := len(f.Terrain[0])
	tiles := make([]engine.TerrainTile, 0, width*height)
	for y, row := range f.Terrain {
		if len(row) != width {
			return nil, nil, fmt.Errorf("map %q: row %d is %d cells, want %d", f.Name, y, len(row), width)
		}
		for x, ch := range row {
			switch ch {
			case '.':
				tiles = append(tiles, engine.Land)
			case '#':
				tiles = append(tiles, engine.Void)
			default:
				return nil, nil, fmt.Errorf("map %q: bad terrain char %q at [%d,%d]", f.Name, string(ch), x, y)
			}
		}
	}

	encampments := make([]engine.MapLoc, 0, len(f.Encampments))
	for _, e := range f.Encampments {
		encampments = append(encampments, engine.MapLoc{X: e[0], Y: e[1]})
	}

	gm, err := engine.NewGameMap(f.Name,
		width, height, tiles,
		engine.MapLoc{X: f.HQA[0], Y: f.HQA[1]},
		engine.MapLoc{X: f.HQB[0], Y: f.HQB[1]},
		encampments,
	)
	if err != nil {
		return nil, nil, err
	}

	mines := make([]engine.MapLoc, 0, len(f.Mines))
	for _, mm := range f.Mines {
		loc := engine.MapLoc{X: mm[0], Y: mm[1]}
		if !gm.Passable(loc) {
			return nil, nil, fmt.Errorf("map %q: mine %v not on land", f.Name, loc)
		}
		mines = append(mines, loc)
	}
	return gm, mines, nil
}

// ListDir returns the map files in dir, sorted, for host -map name lookups.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
