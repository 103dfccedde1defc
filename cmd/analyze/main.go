// Command analyze prints quick, human-readable heuristics about the level
// files in a levels directory. It summarizes dimensions, piece and goal
// counts and searches for the shortest solution with a bounded
// breadth-first search over the simulation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/slidepuzzle/game/engine"
	"github.com/wricardo/slidepuzzle/game/levels"
)

// Options bound the solution search
type Options struct {
	MaxDepth  int
	MaxStates int
}

// Solution is the outcome of a search
type Solution struct {
	Found    bool
	Moves    []engine.Direction
	Outcome  engine.WinOutcome
	Target   string
	Explored int
	Capped   bool
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "summarize levels and search for their shortest solutions",
		ArgsUsage: "[level-id ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "levels-dir", Value: "levels", Usage: "directory containing level files", Sources: cli.EnvVars("LEVEL_DIR")},
			&cli.IntFlag{Name: "depth", Value: 40, Usage: "longest move sequence to try"},
			&cli.IntFlag{Name: "max-states", Value: 50000, Usage: "distinct board states to explore per level"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := levels.NewManager(cmd.String("levels-dir"))
			if err != nil {
				return err
			}
			ids := cmd.Args().Slice()
			if len(ids) == 0 {
				list, err := manager.ListLevels()
				if err != nil {
					return err
				}
				for _, info := range list {
					ids = append(ids, info.LevelID)
				}
			}

			opts := Options{MaxDepth: cmd.Int("depth"), MaxStates: cmd.Int("max-states")}
			for _, id := range ids {
				fmt.Fprintf(os.Stdout, "\n=== Analyzing %s ===\n", id)
				level, err := manager.LoadLevel(id)
				if err != nil {
					fmt.Fprintf(os.Stdout, "Error loading level: %v\n", err)
					continue
				}
				analyzeLevel(os.Stdout, id, level, opts)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeLevel(w io.Writer, id string, level *engine.Level, opts Options) {
	sim := newSimulation()
	if err := sim.LoadLevel(id, level); err != nil {
		fmt.Fprintf(w, "Error building level: %v\n", err)
		return
	}
	b := sim.Bounds()

	fmt.Fprintf(w, "Name: %s\n", level.LevelName)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", b.MaxX-b.MinX+1, b.MaxY-b.MinY+1)
	if level.FreeRoam {
		fmt.Fprintf(w, "Free roam: yes\n")
	}
	fmt.Fprintf(w, "Pieces: %s\n", countTypes(level.Tiles.ObjectTiles))
	fmt.Fprintf(w, "Goals: %s\n", countTypes(level.Tiles.OverlapTiles))
	if len(level.Tiles.HazardTiles) > 0 {
		fmt.Fprintf(w, "Hazards: %s\n", countTypes(level.Tiles.HazardTiles))
	}
	if len(level.Tiles.EffectTiles) > 0 {
		fmt.Fprintf(w, "Effects: %s\n", countTypes(level.Tiles.EffectTiles))
	}
	if level.NextLevel != "" {
		fmt.Fprintf(w, "Next: %s\n", level.NextLevel)
	}
	if level.RemixLevel != "" {
		fmt.Fprintf(w, "Remix: %s\n", level.RemixLevel)
	}

	sol := solve(id, level, opts)
	switch {
	case sol.Found:
		fmt.Fprintf(w, "✅ Solved in %d moves (%s): %s\n", len(sol.Moves), describeEnd(sol), joinMoves(sol.Moves))
	case sol.Capped:
		fmt.Fprintf(w, "⚠️  Search capped after %d states without a solution\n", sol.Explored)
	default:
		fmt.Fprintf(w, "⚠️  No solution within %d moves (%d states explored)\n", opts.MaxDepth, sol.Explored)
	}
}

func describeEnd(sol Solution) string {
	if sol.Target != "" && sol.Outcome == engine.WinNone {
		return "exit to " + sol.Target
	}
	return string(sol.Outcome)
}

// solve runs a breadth-first search over move sequences, replaying each
// candidate from the start of the level. Board states already seen are
// pruned, so the first solution found is a shortest one.
func solve(id string, level *engine.Level, opts Options) Solution {
	sim := newSimulation()
	if err := sim.LoadLevel(id, level); err != nil {
		return Solution{}
	}

	seen := map[string]bool{stateKey(sim): true}
	frontier := [][]engine.Direction{nil}
	var sol Solution

	for depth := 0; depth < opts.MaxDepth && len(frontier) > 0; depth++ {
		var next [][]engine.Direction
		for _, path := range frontier {
			for _, d := range engine.AllDirections {
				candidate := append(append(make([]engine.Direction, 0, len(path)+1), path...), d)
				res, ok := replay(sim, candidate)
				if !ok || !res.Moved {
					continue
				}
				if target := transitionTarget(res.Events); res.Outcome != engine.WinNone || target != "" {
					sol.Found = true
					sol.Moves = candidate
					sol.Outcome = res.Outcome
					sol.Target = target
					return sol
				}
				if sim.Frozen() {
					continue
				}

				key := stateKey(sim)
				if seen[key] {
					continue
				}
				seen[key] = true
				sol.Explored++
				if opts.MaxStates > 0 && sol.Explored >= opts.MaxStates {
					sol.Capped = true
					return sol
				}
				next = append(next, candidate)
			}
		}
		frontier = next
	}
	return sol
}

// replay reloads the level and applies moves, returning the last tick
func replay(sim *engine.Simulation, moves []engine.Direction) (engine.TickResult, bool) {
	if err := sim.ReloadLevel(); err != nil {
		return engine.TickResult{}, false
	}
	var res engine.TickResult
	for i, d := range moves {
		res = sim.ApplyMovement(d)
		if i < len(moves)-1 && (sim.Frozen() || res.Outcome != engine.WinNone) {
			return res, false
		}
	}
	return res, true
}

func transitionTarget(events []engine.Event) string {
	for _, e := range events {
		if e.Type == engine.EventLevelTransition && e.Target != "" {
			return e.Target
		}
	}
	return ""
}

// stateKey identifies a board by its tiles. encoding/json sorts map keys,
// so equal boards give equal keys.
func stateKey(sim *engine.Simulation) string {
	data, _ := json.Marshal(sim.State().Layers)
	return string(data)
}

func countTypes(tiles []engine.TileData) string {
	if len(tiles) == 0 {
		return "none"
	}
	counts := make(map[string]int)
	for _, td := range tiles {
		counts[td.Type]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%d %s", counts[name], name))
	}
	return strings.Join(parts, ", ")
}

func joinMoves(moves []engine.Direction) string {
	parts := make([]string, len(moves))
	for i, d := range moves {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

// newSimulation builds a simulation that only logs warnings
func newSimulation() *engine.Simulation {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return engine.NewSimulation(
		engine.WithLogger(logger.WithField("component", "analyze")),
		engine.WithUndoCapacity(1),
	)
}
