package engine

// moveMode says why an entity is being moved
type moveMode int

const (
	// modeSelf is an entity answering the player's input
	modeSelf moveMode = iota
	// modePush is an entity shoved by another mover
	modePush
	// modePull is an entity dragged back by a pull tile
	modePull
)

func (m moveMode) String() string {
	switch m {
	case modeSelf:
		return "self"
	case modePush:
		return "push"
	case modePull:
		return "pull"
	}
	return "unknown"
}

type outcomeKind int

const (
	outcomeBlocked outcomeKind = iota
	outcomeMove
	outcomeDefer
)

// outcome is what a collision rule decided for one mover
type outcome struct {
	kind outcomeKind
	pos  Position
}

func blocked() outcome { return outcome{kind: outcomeBlocked} }
func moveTo(p Position) outcome { return outcome{kind: outcomeMove, pos: p} }
func deferredOutcome() outcome { return outcome{kind: outcomeDefer} }

// collisionFunc decides where e ends up when it tries to enter target
type collisionFunc func(s *Simulation, e *Entity, target Position, dir Direction, mode moveMode, depth int) outcome

// collisionTable holds one rule per tile type. It is filled in init since
// the rules recurse back into tryMove.
var collisionTable map[TileType]collisionFunc

func init() {
	collisionTable = map[TileType]collisionFunc{
		Box:     collideDefault,
		Circle:  collideCircle,
		Hexagon: collideHexagon,
		Mimic:   collideMimic,
	}
	// Nothing outside the object layer ever moves, but every type gets a rule.
	for _, t := range AllTileTypes() {
		if _, ok := collisionTable[t]; !ok {
			collisionTable[t] = collideImmobile
		}
	}
}

func (s *Simulation) collide(e *Entity, target Position, dir Direction, mode moveMode, depth int) outcome {
	fn, ok := collisionTable[e.Type]
	if !ok {
		fn = collideDefault
	}
	return fn(s, e, target, dir, mode, depth)
}

// enterable reports whether a mover in the given mode may stand on p,
// ignoring objects. Anti-walls stop only pushed or pulled movers.
func (s *Simulation) enterable(p Position, mode moveMode) bool {
	if !s.IsPositionInBounds(p) {
		return false
	}
	solid := s.grid.Get(LayerSolid, p)
	if solid == nil {
		return true
	}
	return solid.Type == AntiWall && mode == modeSelf
}

// clearCell tries to empty p of its object by moving it one step along dir.
// A self-moving mover first lets the occupant act on its own, then pushes
// it; a pushed mover can only push.
func (s *Simulation) clearCell(p Position, dir Direction, mode moveMode, depth int) bool {
	if s.grid.Get(LayerObject, p) == nil {
		return true
	}
	next := p.Add(dir.Delta())
	if mode == modeSelf && s.tryMove(p, next, dir, modeSelf, true, depth+1) && s.grid.Get(LayerObject, p) == nil {
		return true
	}
	if s.grid.Get(LayerObject, p) == nil {
		return true
	}
	s.tryMove(p, next, dir, modePush, false, depth+1)
	return s.grid.Get(LayerObject, p) == nil
}

// collideDefault moves one cell, pushing whatever is in the way
func collideDefault(s *Simulation, e *Entity, target Position, dir Direction, mode moveMode, depth int) outcome {
	if !s.enterable(target, mode) {
		return blocked()
	}
	if !s.clearCell(target, dir, mode, depth) {
		return blocked()
	}
	return moveTo(target)
}

// collideCircle leaps over objects that will not make way and lands on the
// first free cell, up to CircleMaxSteps cells ahead.
func collideCircle(s *Simulation, e *Entity, target Position, dir Direction, mode moveMode, depth int) outcome {
	step := dir.Delta()
	cell := target
	for i := 0; i < CircleMaxSteps; i++ {
		if !s.enterable(cell, mode) {
			return blocked()
		}
		if s.clearCell(cell, dir, mode, depth) {
			return moveTo(cell)
		}
		cell = cell.Add(step)
	}
	// Out of reach: the cell behind the probe is occupied, so stay.
	s.log.WithField("entity", e.ID).Debug("circle jump limit reached")
	return blocked()
}

// collideHexagon travels two cells on its own input and one when pushed.
// In the main pass it waits for the late round if a stubborn object sits
// on either cell, so that everything else has had a chance to clear.
func collideHexagon(s *Simulation, e *Entity, target Position, dir Direction, mode moveMode, depth int) outcome {
	if mode != modeSelf {
		return collideDefault(s, e, target, dir, mode, depth)
	}
	second := target.Add(dir.Delta())
	if s.tick != nil && !s.tick.lateRound && (s.stubborn(target) || s.stubborn(second)) {
		return deferredOutcome()
	}
	if !s.enterable(target, mode) || !s.clearCell(target, dir, mode, depth) {
		return blocked()
	}
	if !s.enterable(second, mode) || !s.clearCell(second, dir, mode, depth) {
		return moveTo(target)
	}
	return moveTo(second)
}

// stubborn reports whether p holds an object that cannot be pushed and is
// not itself a hexagon
func (s *Simulation) stubborn(p Position) bool {
	o := s.grid.Get(LayerObject, p)
	return o != nil && !o.Directions.Pushable && o.Type != Hexagon
}

// collideMimic answers input by moving the opposite way
func collideMimic(s *Simulation, e *Entity, target Position, dir Direction, mode moveMode, depth int) outcome {
	if mode != modeSelf {
		return collideDefault(s, e, target, dir, mode, depth)
	}
	return collideDefault(s, e, e.Pos.Add(dir.Opposite().Delta()), dir.Opposite(), mode, depth)
}

func collideImmobile(*Simulation, *Entity, Position, Direction, moveMode, int) outcome {
	return blocked()
}
