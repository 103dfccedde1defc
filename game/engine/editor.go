package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// removalOrder is the top-most-first stacking used by RemoveTile
var removalOrder = []Layer{LayerCustom, LayerEffect, LayerObject, LayerHazard, LayerArea, LayerSolid}

type editKind int

const (
	editPlace editKind = iota
	editRemove
)

// editorCommand captures enough to apply and revert one edit
type editorCommand struct {
	kind  editKind
	layer Layer
	pos   Position

	placed      *Entity
	placedText  string
	removed     *Entity
	removedText string
}

// editorHistory keeps a single step of undo and redo
type editorHistory struct {
	last   *editorCommand
	undone bool
}

func (h editorHistory) canUndo() bool { return h.last != nil && !h.undone }
func (h editorHistory) canRedo() bool { return h.last != nil && h.undone }

// PlaceTile puts a new tile of type t at pos, replacing whatever occupied
// that cell of the tile's layer.
func (s *Simulation) PlaceTile(t TileType, pos Position, dirs Directions) (*Entity, error) {
	return s.placeTile(t, pos, dirs, "")
}

// PlaceCustomTile is PlaceTile for custom types carrying a payload
// (target level, "speaker:line", or plain text).
func (s *Simulation) PlaceCustomTile(t TileType, pos Position, dirs Directions, text string) (*Entity, error) {
	if t.IsKnown() && t.HomeLayer() != LayerCustom {
		return nil, fmt.Errorf("%w: %s does not carry text", ErrUnknownTileType, t)
	}
	return s.placeTile(t, pos, dirs, text)
}

func (s *Simulation) placeTile(t TileType, pos Position, dirs Directions, text string) (*Entity, error) {
	if s.level == nil {
		return nil, ErrNoLevelLoaded
	}
	if !t.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTileType, t)
	}
	layer := t.HomeLayer()
	if layer == LayerObject && dirs.ActiveCount() < s.minEditorDirections {
		return nil, fmt.Errorf("%w: %s needs at least %d, got %d",
			ErrInsufficientDirections, t, s.minEditorDirections, dirs.ActiveCount())
	}
	if !s.IsPositionInBounds(pos) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, pos.X, pos.Y)
	}

	cmd := &editorCommand{
		kind:   editPlace,
		layer:  layer,
		pos:    pos,
		placed: &Entity{Type: t, Directions: dirs},
	}
	if layer == LayerCustom {
		cmd.placedText = text
	}
	if old := s.grid.Get(layer, pos); old != nil {
		cmd.removed = old
		if layer == LayerCustom {
			cmd.removedText = s.grid.Text(pos)
		}
	}
	s.applyEdit(cmd)
	s.editor = editorHistory{last: cmd}

	s.log.WithFields(logrus.Fields{
		"type":     t,
		"position": pos,
		"replaced": cmd.removed != nil,
	}).Debug("tile placed")
	return cmd.placed, nil
}

// RemoveTile deletes the top-most entity at pos
func (s *Simulation) RemoveTile(pos Position) (*Entity, error) {
	if s.level == nil {
		return nil, ErrNoLevelLoaded
	}
	for _, layer := range removalOrder {
		e := s.grid.Get(layer, pos)
		if e == nil {
			continue
		}
		cmd := &editorCommand{kind: editRemove, layer: layer, pos: pos, removed: e}
		if layer == LayerCustom {
			cmd.removedText = s.grid.Text(pos)
		}
		s.applyEdit(cmd)
		s.editor = editorHistory{last: cmd}
		s.log.WithFields(logrus.Fields{"type": e.Type, "position": pos}).Debug("tile removed")
		return e, nil
	}
	return nil, fmt.Errorf("%w: (%d,%d)", ErrNothingToRemove, pos.X, pos.Y)
}

// EditorUndo reverts the last edit. Only one step is kept.
func (s *Simulation) EditorUndo() bool {
	if !s.editor.canUndo() {
		return false
	}
	s.revertEdit(s.editor.last)
	s.editor.undone = true
	return true
}

// EditorRedo re-applies an edit that was just undone
func (s *Simulation) EditorRedo() bool {
	if !s.editor.canRedo() {
		return false
	}
	s.applyEdit(s.editor.last)
	s.editor.undone = false
	return true
}

func (s *Simulation) applyEdit(cmd *editorCommand) {
	switch cmd.kind {
	case editPlace:
		s.grid.Set(cmd.layer, cmd.pos, cmd.placed)
		if cmd.layer == LayerCustom {
			s.grid.SetText(cmd.pos, cmd.placedText)
		}
		s.refresh(cmd.placed)
	case editRemove:
		s.grid.Remove(cmd.removed)
		s.emit(Event{Type: EventDestroyed, EntityID: cmd.removed.ID, TileType: cmd.removed.Type, Position: cmd.pos})
	}
	s.afterEdit()
}

func (s *Simulation) revertEdit(cmd *editorCommand) {
	switch cmd.kind {
	case editPlace:
		s.grid.Remove(cmd.placed)
		s.emit(Event{Type: EventDestroyed, EntityID: cmd.placed.ID, TileType: cmd.placed.Type, Position: cmd.pos})
	}
	if cmd.removed != nil {
		s.grid.Set(cmd.layer, cmd.pos, cmd.removed)
		if cmd.layer == LayerCustom {
			s.grid.SetText(cmd.pos, cmd.removedText)
		}
		s.refresh(cmd.removed)
	}
	s.afterEdit()
}

// afterEdit folds the edited grid back into the level definition so a
// reload plays the edited layout. Tick undo frames predate the edit and
// are dropped.
func (s *Simulation) afterEdit() {
	s.level = exportGrid(s.grid, *s.level)
	s.undo.Clear()
}
