package engine

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// effectFunc applies a tile's effect to the mover that just landed on it
type effectFunc func(s *Simulation, tile, mover *Entity, dir Direction, depth int)

var effectTable map[TileType]effectFunc

func init() {
	effectTable = map[TileType]effectFunc{
		Arrow:         applyArrow,
		NegativeArrow: applyNegativeArrow,
		Invert:        applyInvert,
		Reverse:       applyReverse,
		Mask:          applyMask,
		Orb:           applyCollectible,
		Fragment:      applyCollectible,
		Pull:          applyPull,
		LevelTrigger:  applyLevelTrigger,
		NPC:           applyNPC,
		Fake:          applyFake,
	}
}

// afterMove resolves what the mover landed on. Hazards win: a destroyed
// mover triggers nothing else.
func (s *Simulation) afterMove(e *Entity, dir Direction, depth int) {
	pos := e.Pos

	if hz := s.grid.Get(LayerHazard, pos); hz != nil {
		s.tick.destroy = append(s.tick.destroy, e)
		if hz.Type == Void {
			s.grid.Remove(hz)
			s.emit(Event{Type: EventDestroyed, EntityID: hz.ID, TileType: hz.Type, Position: pos})
		}
		return
	}

	if fx := s.grid.Get(LayerEffect, pos); fx != nil {
		s.applyEffect(fx, e, dir, depth)
	}
	// A pull may already have dragged the mover away.
	if e.Pos != pos {
		return
	}
	if ct := s.grid.Get(LayerCustom, pos); ct != nil {
		s.applyEffect(ct, e, dir, depth)
	}
}

func (s *Simulation) applyEffect(tile, mover *Entity, dir Direction, depth int) {
	fn, ok := effectTable[tile.Type]
	if !ok {
		return
	}
	fn(s, tile, mover, dir, depth)
}

// consume removes a spent effect tile
func (s *Simulation) consume(tile *Entity) {
	pos := tile.Pos
	if s.grid.Remove(tile) {
		s.emit(Event{Type: EventDestroyed, EntityID: tile.ID, TileType: tile.Type, Position: pos})
	}
}

// applyArrow hands every direction the mover lacks over from the arrow.
// An arrow with nothing left to give is removed.
func applyArrow(s *Simulation, tile, mover *Entity, _ Direction, _ int) {
	changed := false
	for _, d := range AllDirections {
		if tile.Directions.Allows(d) && !mover.Directions.Allows(d) {
			mover.Directions.Set(d, true)
			tile.Directions.Set(d, false)
			changed = true
		}
	}
	if changed {
		s.refresh(mover)
	}
	if tile.Directions.ActiveCount() == 0 {
		s.consume(tile)
	} else if changed {
		s.refresh(tile)
	}
}

// applyNegativeArrow strips every direction both sides share, from both.
func applyNegativeArrow(s *Simulation, tile, mover *Entity, _ Direction, _ int) {
	changed := false
	for _, d := range AllDirections {
		if tile.Directions.Allows(d) && mover.Directions.Allows(d) {
			mover.Directions.Set(d, false)
			tile.Directions.Set(d, false)
			changed = true
		}
	}
	if changed {
		s.refresh(mover)
	}
	if tile.Directions.ActiveCount() == 0 {
		s.consume(tile)
	} else if changed {
		s.refresh(tile)
	}
}

func applyInvert(s *Simulation, _, mover *Entity, _ Direction, _ int) {
	mover.Directions = mover.Directions.Inverted()
	s.refresh(mover)
}

func applyReverse(s *Simulation, _, mover *Entity, _ Direction, _ int) {
	mover.Directions = mover.Directions.Mirrored()
	s.refresh(mover)
}

// applyMask stamps the tile's directions onto the mover. Pushability is
// the mover's own.
func applyMask(s *Simulation, tile, mover *Entity, _ Direction, _ int) {
	d := tile.Directions
	d.Pushable = mover.Directions.Pushable
	mover.Directions = d
	s.refresh(mover)
}

// applyCollectible picks up an orb or fragment. Inert movers and the
// editor's scratch level never collect.
func applyCollectible(s *Simulation, tile, mover *Entity, _ Direction, _ int) {
	if mover.Directions.ActiveCount() == 0 || s.levelID == ScratchLevelID {
		return
	}
	pos := tile.Pos
	if s.progress != nil {
		if err := s.progress.RecordCollectible(s.levelID, tile.Type, pos); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"level": s.levelID,
				"kind":  tile.Type,
			}).Warn("failed to record collectible")
		}
	}
	s.grid.Remove(tile)
	s.emit(Event{Type: EventCollect, EntityID: tile.ID, TileType: tile.Type, Position: pos})
}

// applyPull drags the mover one cell back against the input
func applyPull(s *Simulation, _, mover *Entity, dir Direction, depth int) {
	back := dir.Opposite()
	s.tryMove(mover.Pos, mover.Pos.Add(back.Delta()), back, modePull, false, depth+1)
}

// applyLevelTrigger locks movement and asks the host to change level
func applyLevelTrigger(s *Simulation, tile, mover *Entity, _ Direction, _ int) {
	target := s.grid.Text(tile.Pos)
	if target == "" || mover.Directions.ActiveCount() == 0 {
		return
	}
	s.frozen = true
	s.emit(Event{
		Type:     EventLevelTransition,
		EntityID: tile.ID,
		TileType: tile.Type,
		Position: tile.Pos,
		Target:   target,
	})
}

// applyNPC shows a "speaker:line" payload
func applyNPC(s *Simulation, tile, _ *Entity, _ Direction, _ int) {
	payload := s.grid.Text(tile.Pos)
	speaker, line, ok := strings.Cut(payload, ":")
	if !ok {
		s.log.WithField("position", tile.Pos).Debug("npc payload has no speaker")
		return
	}
	s.emit(Event{
		Type:     EventDialog,
		EntityID: tile.ID,
		TileType: tile.Type,
		Position: tile.Pos,
		Speaker:  strings.TrimSpace(speaker),
		Text:     strings.TrimSpace(line),
	})
}

// applyFake shows its payload as an anonymous line
func applyFake(s *Simulation, tile, _ *Entity, _ Direction, _ int) {
	text := s.grid.Text(tile.Pos)
	if text == "" {
		return
	}
	s.emit(Event{
		Type:     EventDialog,
		EntityID: tile.ID,
		TileType: tile.Type,
		Position: tile.Pos,
		Text:     text,
	})
}
