package engine

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"
)

// tickState is the scratch state of a single ApplyMovement call
type tickState struct {
	dir Direction

	// resolved holds entities that already had their turn this tick
	resolved mapset.Set[*Entity]
	// chain holds entities currently being moved on the call stack
	chain mapset.Set[*Entity]

	destroy   []*Entity
	late      []*Entity
	lateRound bool

	moved      bool
	pushed     bool
	firstMover TileType

	events []Event
}

func newTickState(dir Direction) *tickState {
	return &tickState{
		dir:      dir,
		resolved: mapset.New[*Entity](),
		chain:    mapset.New[*Entity](),
	}
}

// ApplyMovement runs one tick: every object answers the input once, in
// move-list order with hexagons first. Ticks in which nothing moved leave
// no undo frame and do not count.
func (s *Simulation) ApplyMovement(dir Direction) TickResult {
	res := TickResult{Direction: dir, MoveCount: s.moveCount, Outcome: s.outcome}
	if s.level == nil || s.frozen {
		return res
	}

	tc := newTickState(dir)
	s.tick = tc
	defer func() { s.tick = nil }()

	s.pushFrame()

	for _, e := range s.moveOrder() {
		if tc.resolved.Has(e) {
			continue
		}
		s.tryMove(e.Pos, e.Pos.Add(dir.Delta()), dir, modeSelf, true, 0)
	}

	// Deferred hexagons get one more attempt once everything else settled.
	tc.lateRound = true
	late := tc.late
	tc.late = nil
	for _, e := range late {
		if tc.resolved.Has(e) || s.grid.Get(LayerObject, e.Pos) != e {
			continue
		}
		s.tryMove(e.Pos, e.Pos.Add(dir.Delta()), dir, modeSelf, true, 0)
	}

	if tc.pushed {
		s.emit(Event{Type: EventPush, TileType: tc.firstMover})
	}
	for _, e := range tc.destroy {
		pos := e.Pos
		if s.grid.Remove(e) {
			s.emit(Event{Type: EventDestroyed, EntityID: e.ID, TileType: e.Type, Position: pos})
		}
	}

	if tc.moved {
		s.moveCount++
		s.lastActed = tc.firstMover
		// Edits point at cells that pieces may have since left or entered.
		s.editor = editorHistory{}
	} else {
		s.undo.Discard()
	}

	s.evaluateWin()

	s.log.WithFields(logrus.Fields{
		"direction":  dir,
		"moved":      tc.moved,
		"move_count": s.moveCount,
		"outcome":    s.outcome,
	}).Debug("tick applied")

	res.Moved = tc.moved
	res.Pushed = tc.pushed
	res.MoveCount = s.moveCount
	res.Outcome = s.outcome
	res.Events = tc.events
	return res
}

// moveOrder returns the object layer in insertion order with hexagons
// moved to the front. The sort is stable so ties keep level order.
func (s *Simulation) moveOrder() []*Entity {
	list := s.grid.All(LayerObject)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Type == Hexagon && list[j].Type != Hexagon
	})
	return list
}

// tryMove attempts to move the object at from towards to. blacklist marks
// the entity as resolved for the rest of the tick whatever the result.
func (s *Simulation) tryMove(from, to Position, dir Direction, mode moveMode, blacklist bool, depth int) bool {
	tc := s.tick
	if tc == nil || s.frozen {
		return false
	}
	e := s.grid.Get(LayerObject, from)
	if e == nil {
		return false
	}
	if mode == modePush && !e.Directions.Pushable {
		return false
	}
	if mode == modeSelf && tc.resolved.Has(e) {
		return false
	}
	if tc.chain.Has(e) || depth > MaxChainDepth {
		return false
	}
	if mode == modeSelf && !e.Directions.Allows(dir) {
		if blacklist {
			tc.resolved.Put(e)
		}
		return false
	}

	tc.chain.Put(e)
	out := s.collide(e, to, dir, mode, depth)
	tc.chain.Remove(e)

	switch out.kind {
	case outcomeDefer:
		if !tc.lateRound && !containsEntity(tc.late, e) {
			tc.late = append(tc.late, e)
		}
		return false
	case outcomeBlocked:
		if blacklist {
			tc.resolved.Put(e)
		}
		return false
	}

	// The rule may have been outrun by a pull that refilled the cell.
	if out.pos == e.Pos || s.grid.Get(LayerObject, out.pos) != nil {
		if blacklist {
			tc.resolved.Put(e)
		}
		return false
	}

	s.grid.Relocate(LayerObject, e, out.pos)
	if mode == modePush {
		tc.pushed = true
	}
	if !tc.moved {
		tc.moved = true
		tc.firstMover = e.Type
	}
	if blacklist {
		tc.resolved.Put(e)
	}

	s.log.WithFields(logrus.Fields{
		"entity": e.ID,
		"type":   e.Type,
		"mode":   mode,
		"to":     out.pos,
	}).Trace("entity moved")

	s.afterMove(e, dir, depth)
	return true
}

func containsEntity(list []*Entity, e *Entity) bool {
	for _, cur := range list {
		if cur == e {
			return true
		}
	}
	return false
}
