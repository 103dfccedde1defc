// Package render draws game states as text for terminals and agents.
package render

import (
	"fmt"
	"strings"

	"github.com/wricardo/slidepuzzle/game/engine"
)

// Empty is drawn for cells with no tile
const Empty = '.'

var glyphs = map[engine.TileType]rune{
	engine.Wall:          '#',
	engine.AntiWall:      '+',
	engine.Box:           'B',
	engine.Circle:        'O',
	engine.Hexagon:       'H',
	engine.Mimic:         'M',
	engine.Area:          '_',
	engine.InverseArea:   '=',
	engine.OutboundArea:  '~',
	engine.Hazard:        'x',
	engine.Void:          ':',
	engine.Invert:        'i',
	engine.Arrow:         '>',
	engine.NegativeArrow: '<',
	engine.Orb:           'o',
	engine.Fragment:      '*',
	engine.Pull:          'p',
	engine.Reverse:       'r',
	engine.Mask:          'm',
	engine.LevelTrigger:  'L',
	engine.NPC:           '@',
	engine.Fake:          '%',
}

// drawOrder lists layers from the one drawn on top to the bottom
var drawOrder = []engine.Layer{
	engine.LayerObject,
	engine.LayerCustom,
	engine.LayerEffect,
	engine.LayerSolid,
	engine.LayerHazard,
	engine.LayerArea,
}

// Glyph returns the character drawn for a tile type
func Glyph(t engine.TileType) rune {
	if g, ok := glyphs[t]; ok {
		return g
	}
	return '?'
}

// Legend lists every glyph with its tile type, in enumeration order
func Legend() []string {
	out := make([]string, 0, len(glyphs))
	for _, t := range engine.AllTileTypes() {
		out = append(out, fmt.Sprintf("%c %s", Glyph(t), t))
	}
	return out
}

// Cell is the top-most tile drawn at a position
type Cell struct {
	Glyph rune
	Type  engine.TileType
	Layer engine.Layer
}

// Cells returns the visible cell grid for the state's bounds, row-major.
// Cells without tiles have Glyph Empty and no type.
func Cells(state *engine.GameState) [][]Cell {
	if state == nil {
		return nil
	}
	b := state.Bounds
	w, h := b.MaxX-b.MinX+1, b.MaxY-b.MinY+1
	if w <= 0 || h <= 0 {
		return nil
	}

	rows := make([][]Cell, h)
	filled := make([][]bool, h)
	for y := range rows {
		rows[y] = make([]Cell, w)
		filled[y] = make([]bool, w)
		for x := range rows[y] {
			rows[y][x] = Cell{Glyph: Empty}
		}
	}

	for _, layer := range drawOrder {
		for _, tile := range state.Layers[layer.String()] {
			x, y := tile.Position.X-b.MinX, tile.Position.Y-b.MinY
			if x < 0 || y < 0 || x >= w || y >= h || filled[y][x] {
				continue
			}
			t := engine.TileType(tile.Type)
			rows[y][x] = Cell{Glyph: Glyph(t), Type: t, Layer: layer}
			filled[y][x] = true
		}
	}
	return rows
}

// Grid draws the state's cells, one line per row
func Grid(state *engine.GameState) string {
	var sb strings.Builder
	for _, row := range Cells(state) {
		for _, c := range row {
			sb.WriteRune(c.Glyph)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Text draws a header, the grid and the terminal status of a state
func Text(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Level: %s (%s) | Moves: %d | Undo: %d\n",
		state.LevelName, state.LevelID, state.MoveCount, state.UndoDepth)
	fmt.Fprintf(&sb, "Bounds: (%d,%d)-(%d,%d)\n\n",
		state.Bounds.MinX, state.Bounds.MinY, state.Bounds.MaxX, state.Bounds.MaxY)
	sb.WriteString(Grid(state))

	switch {
	case state.Outcome != engine.WinNone:
		fmt.Fprintf(&sb, "\nSolved (%s)", state.Outcome)
		if state.NextLevel != "" {
			fmt.Fprintf(&sb, ", next: %s", state.NextLevel)
		}
		sb.WriteByte('\n')
	case state.Frozen:
		sb.WriteString("\nFrozen\n")
	}
	return sb.String()
}
