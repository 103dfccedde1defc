// Package validate checks level files before they are served. It checks:
//   - JSON/YAML structure and layer overlaps
//   - Known tile types, and tiles listed under the layer they live in
//   - At least one movable piece and one reachable win condition
//   - Custom tiles carrying the text they need
//   - Tiles inside explicit bounds
//   - nextLevel and remixLevel naming levels in the same directory
//   - Reachability: every goal area can be reached from some piece
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/slidepuzzle/game/engine"
	"github.com/wricardo/slidepuzzle/game/levels"
)

// Result captures the outcome of validating a single file. Errors make
// the file invalid; Warnings and Info are reported either way.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) info(format string, args ...any) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// listFor maps each list in a level file to the layer its tiles belong to
var listFor = map[string]engine.Layer{
	"solidTiles":   engine.LayerSolid,
	"objectTiles":  engine.LayerObject,
	"overlapTiles": engine.LayerArea,
	"hazardTiles":  engine.LayerHazard,
	"effectTiles":  engine.LayerEffect,
	"customTiles":  engine.LayerCustom,
}

// File loads and validates one level file. known holds the ids of the
// levels next to it; nil skips the link checks.
func File(path string, known map[string]bool) Result {
	result := Result{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	level, err := levels.Decode(data, filepath.Ext(path))
	if err != nil {
		result.fail("%v", err)
		return result
	}

	Level(level, known, &result)
	return result
}

// Level runs every check on a decoded level and appends to result
func Level(level *engine.Level, known map[string]bool, result *Result) {
	checkTiles(level, result)
	checkLinks(level, known, result)

	sim := engine.NewSimulation()
	if err := sim.LoadLevel("validate", level); err != nil {
		result.fail("Level does not load: %v", err)
		return
	}
	state := sim.State()

	if result.Valid {
		checkReachability(state, result)
	}

	if result.Valid {
		b := state.Bounds
		result.info("✓ Name: %s", level.LevelName)
		result.info("✓ Grid: %dx%d", b.MaxX-b.MinX+1, b.MaxY-b.MinY+1)
		result.info("✓ Pieces: %d", len(level.Tiles.ObjectTiles))
		result.info("✓ Goals: %d", len(level.Tiles.OverlapTiles))
		if level.NextLevel != "" {
			result.info("✓ Next: %s", level.NextLevel)
		}
	}
}

func checkTiles(level *engine.Level, result *Result) {
	lists := map[string][]engine.TileData{
		"solidTiles":   level.Tiles.SolidTiles,
		"objectTiles":  level.Tiles.ObjectTiles,
		"overlapTiles": level.Tiles.OverlapTiles,
		"hazardTiles":  level.Tiles.HazardTiles,
		"effectTiles":  level.Tiles.EffectTiles,
		"customTiles":  level.Tiles.CustomTiles,
	}
	names := make([]string, 0, len(lists))
	for name := range lists {
		names = append(names, name)
	}
	sort.Strings(names)

	counts := make(map[engine.TileType]int)
	for _, name := range names {
		for i, td := range lists[name] {
			t := engine.TileType(td.Type)
			if !t.IsKnown() {
				result.fail("Unknown tile type %q at %s[%d]", td.Type, name, i)
				continue
			}
			counts[t]++
			if home := t.HomeLayer(); home != listFor[name] {
				result.warn("%s at %s[%d] belongs to the %s layer", t, name, i, home)
			}
			if home := t.HomeLayer(); home == engine.LayerObject && td.Directions.ActiveCount() == 0 {
				result.warn("%s at (%d,%d) has no active directions and never moves",
					t, td.Position.X, td.Position.Y)
			}
			if b := level.Bounds; b != nil && !b.Contains(td.Position.Pos()) {
				result.fail("%s at (%d,%d) lies outside bounds", t, td.Position.X, td.Position.Y)
			}
		}
	}

	pieces := counts[engine.Box] + counts[engine.Circle] + counts[engine.Hexagon] + counts[engine.Mimic]
	if pieces == 0 {
		result.fail("Must have at least 1 movable piece")
	}

	hasRemix := counts[engine.InverseArea] > 0 && level.RemixLevel != ""
	if counts[engine.Area]+counts[engine.OutboundArea] == 0 && !hasRemix && counts[engine.LevelTrigger] == 0 {
		if level.FreeRoam {
			result.warn("No goal areas; the level can only be left through the editor")
		} else {
			result.fail("Must have at least 1 area, outbound_area or level tile")
		}
	}
	if counts[engine.InverseArea] > 0 && level.RemixLevel == "" && counts[engine.Area] == 0 {
		result.warn("inverse_area tiles without remixLevel or area tiles never win")
	}

	text := make(map[engine.Position]string)
	for _, info := range level.Tiles.CustomTileInfo {
		text[info.Position.Pos()] = info.Text
	}
	for i, td := range level.Tiles.CustomTiles {
		t := engine.TileType(td.Type)
		pos := td.Position.Pos()
		switch t {
		case engine.LevelTrigger:
			if text[pos] == "" {
				result.fail("level tile at customTiles[%d] (%d,%d) has no target text", i, pos.X, pos.Y)
			}
		case engine.NPC:
			if text[pos] == "" {
				result.warn("npc at (%d,%d) has no dialog text", pos.X, pos.Y)
			}
		}
	}
}

func checkLinks(level *engine.Level, known map[string]bool, result *Result) {
	if known == nil {
		return
	}
	for label, id := range map[string]string{"nextLevel": level.NextLevel, "remixLevel": level.RemixLevel} {
		if id != "" && !known[id] {
			result.fail("%s %q does not match any level file", label, id)
		}
	}
	for _, info := range level.Tiles.CustomTileInfo {
		pos := info.Position.Pos()
		for _, td := range level.Tiles.CustomTiles {
			if td.Position.Pos() == pos && engine.TileType(td.Type) == engine.LevelTrigger && !known[info.Text] {
				result.fail("level tile at (%d,%d) targets unknown level %q", pos.X, pos.Y, info.Text)
			}
		}
	}
}

// checkReachability flood-fills from every piece over in-bounds cells not
// blocked by walls and reports goal areas nothing can reach. Pushing and
// effects are ignored, so this only catches sealed-off goals.
func checkReachability(state *engine.GameState, result *Result) {
	blocked := mapset.New[engine.Position]()
	for _, td := range state.Layers[engine.LayerSolid.String()] {
		if engine.TileType(td.Type) == engine.Wall {
			blocked.Put(td.Position.Pos())
		}
	}

	reachable := mapset.New[engine.Position]()
	var queue []engine.Position
	for _, td := range state.Layers[engine.LayerObject.String()] {
		if td.Directions.ActiveCount() > 0 {
			queue = append(queue, td.Position.Pos())
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if reachable.Has(current) || blocked.Has(current) || !state.Bounds.Contains(current) {
			continue
		}
		reachable.Put(current)

		for _, d := range engine.AllDirections {
			next := current.Add(d.Delta())
			if !reachable.Has(next) {
				queue = append(queue, next)
			}
		}
	}

	var unreachable []string
	goals := 0
	for _, td := range state.Layers[engine.LayerArea.String()] {
		t := engine.TileType(td.Type)
		if t != engine.Area && t != engine.OutboundArea {
			continue
		}
		goals++
		if !reachable.Has(td.Position.Pos()) {
			unreachable = append(unreachable, fmt.Sprintf("%s at (%d,%d)", t, td.Position.X, td.Position.Y))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Reachability failure: %d/%d goals sealed off from every piece", len(unreachable), goals)
		for _, u := range unreachable {
			result.fail("Unreachable: %s", u)
		}
		return
	}
	if goals > 0 {
		result.info("✓ Reachability: all %d goals reachable", goals)
	}
}

// Dir validates every level file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var files []string
	known := make(map[string]bool)
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".json" && ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
		known[strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))] = true
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file, known))
	}
	return results, nil
}

// Report prints a concise report and returns whether every file is valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No level files found")
	case allValid:
		fmt.Fprintln(w, "✅ All levels are valid!")
	default:
		fmt.Fprintln(w, "❌ Some levels have errors")
	}
	return allValid
}
