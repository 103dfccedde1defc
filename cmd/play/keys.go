package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/slidepuzzle/game/engine"
)

type actionKind int

const (
	actNone actionKind = iota
	actMove
	actSlide
	actUndo
	actReset
	actQuit
	actToggleEditor
	actNextBrush
	actPrevBrush
	actEditorUndo
	actEditorRedo
	actExport
)

type action struct {
	kind actionKind
	dir  engine.Direction
}

var arrowKeys = map[tcell.Key]engine.Direction{
	tcell.KeyUp:    engine.Up,
	tcell.KeyDown:  engine.Down,
	tcell.KeyLeft:  engine.Left,
	tcell.KeyRight: engine.Right,
}

var letterKeys = map[rune]engine.Direction{
	'w': engine.Up,
	's': engine.Down,
	'a': engine.Left,
	'd': engine.Right,
}

// keyAction maps a key press to a player action. Shift or an uppercase
// movement letter slides: the move repeats until it stops moving.
func keyAction(ev *tcell.EventKey) action {
	if dir, ok := arrowKeys[ev.Key()]; ok {
		if ev.Modifiers()&tcell.ModShift != 0 {
			return action{kind: actSlide, dir: dir}
		}
		return action{kind: actMove, dir: dir}
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return action{kind: actQuit}
	case tcell.KeyCtrlZ:
		return action{kind: actEditorUndo}
	case tcell.KeyCtrlY:
		return action{kind: actEditorRedo}
	case tcell.KeyRune:
	default:
		return action{kind: actNone}
	}

	r := ev.Rune()
	if dir, ok := letterKeys[r]; ok {
		return action{kind: actMove, dir: dir}
	}
	if dir, ok := letterKeys[r+('a'-'A')]; ok && r >= 'A' && r <= 'Z' {
		return action{kind: actSlide, dir: dir}
	}

	switch r {
	case 'u', 'z':
		return action{kind: actUndo}
	case 'r':
		return action{kind: actReset}
	case 'q':
		return action{kind: actQuit}
	case 'e':
		return action{kind: actToggleEditor}
	case ']':
		return action{kind: actNextBrush}
	case '[':
		return action{kind: actPrevBrush}
	case 'x':
		return action{kind: actExport}
	}
	return action{kind: actNone}
}

// brushes lists the tiles the editor can paint with the mouse. Custom tiles
// need text and are left to the API.
func brushes() []engine.TileType {
	var out []engine.TileType
	for _, t := range engine.AllTileTypes() {
		if t.HomeLayer() != engine.LayerCustom {
			out = append(out, t)
		}
	}
	return out
}

// brushDirections gives painted pieces every capability
func brushDirections(t engine.TileType) engine.Directions {
	if t.HomeLayer() == engine.LayerObject {
		return engine.AllowsAll()
	}
	return engine.Directions{}
}
