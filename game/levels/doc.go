// Package levels provides level file management for the puzzle.
//
// The levels package handles:
//   - Loading level files in JSON or YAML from the level directory
//   - Validation through the engine's level checks
//   - Default level selection and listing
//   - Saving edited levels, with generated ids for anonymous exports
//
// Level Format:
//
// A level id is its file name without extension; level-1.json and
// level-1.yaml both answer to "level-1" (JSON wins if both exist). Files
// follow the engine.Level contract: levelName, the six tile lists,
// customTileInfo payloads, and the freeroam, hideUI, nextLevel and
// remixLevel flags.
//
// Usage:
//
//	manager, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("level-1")
//	id, err := manager.SaveLevel("", edited)
package levels
