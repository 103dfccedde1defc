// Package engine provides the simulation core of the sliding and pushing
// puzzle.
//
// The engine package implements:
//   - A six-layer sparse grid (solid, object, area, hazard, effect, custom)
//   - Per-tick movement resolution with chained pushes and per-type rules
//   - Tile effects that rewrite capabilities, collect, pull or transition
//   - Win evaluation for normal, outbound and remix goals
//   - A bounded undo ring and a single-step editor history
//
// Core Types:
//
// Simulation owns one loaded level and all per-level state. Level is the
// persisted level contract, Entity a single tile, and Directions the
// movement capability of an object. Side effects the host must perform
// (sounds, dialogs, scene changes) are reported as Events.
//
// Usage:
//
//	sim := engine.NewSimulation(engine.WithProgress(store))
//	if err := sim.LoadLevel("level-1", level); err != nil {
//		log.Fatal(err)
//	}
//
//	res := sim.ApplyMovement(engine.Right)
//	if res.Outcome != engine.WinNone {
//		// load the next level
//	}
//	sim.Undo()
//
// Movement Rules:
//
// Every object answers each input once per tick, hexagons first. A mover
// that runs into another object first lets it move on its own, then tries
// to push it. Circles leap over objects that will not make way.
// Hexagons travel two cells; mimics move against the input. Ticks in which
// nothing moved are not recorded.
package engine
