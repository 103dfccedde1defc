package engine

// Grid holds the six layers of a level. Each layer maps a position to at
// most one entity and remembers insertion order so iteration is stable.
type Grid struct {
	layers [layerCount]map[Position]*Entity
	order  [layerCount][]*Entity
	text   map[Position]string
	nextID uint64
}

// NewGrid creates an empty grid
func NewGrid() *Grid {
	g := &Grid{text: make(map[Position]string)}
	for i := range g.layers {
		g.layers[i] = make(map[Position]*Entity)
	}
	return g
}

// Get returns the entity at pos in layer, or nil
func (g *Grid) Get(layer Layer, pos Position) *Entity {
	return g.layers[layer][pos]
}

// Set stores e at pos in layer, replacing any occupant. A nil entity deletes.
func (g *Grid) Set(layer Layer, pos Position, e *Entity) {
	if old := g.layers[layer][pos]; old != nil {
		g.unlink(layer, old)
		delete(g.layers[layer], pos)
	}
	if e == nil {
		return
	}
	if cur := g.layers[layer][e.Pos]; cur == e {
		delete(g.layers[layer], e.Pos)
		g.unlink(layer, e)
	}
	if e.ID == 0 {
		g.nextID++
		e.ID = g.nextID
	} else if e.ID > g.nextID {
		g.nextID = e.ID
	}
	e.Pos = pos
	g.layers[layer][pos] = e
	g.order[layer] = append(g.order[layer], e)
}

// Place creates a new entity of type t at pos in its home layer
func (g *Grid) Place(t TileType, pos Position, dirs Directions) *Entity {
	e := &Entity{Type: t, Directions: dirs}
	g.Set(t.HomeLayer(), pos, e)
	return e
}

// Remove deletes e from whichever layer currently holds it. Identity, not
// position, decides: a different entity at e.Pos is left alone.
func (g *Grid) Remove(e *Entity) bool {
	if e == nil {
		return false
	}
	for l := range g.layers {
		if cur := g.layers[l][e.Pos]; cur == e {
			delete(g.layers[l], e.Pos)
			g.unlink(Layer(l), e)
			if Layer(l) == LayerCustom {
				delete(g.text, e.Pos)
			}
			return true
		}
	}
	return false
}

// Relocate moves e within layer from its current cell to to in one step.
// Insertion order is kept so the per-tick move list stays stable.
func (g *Grid) Relocate(layer Layer, e *Entity, to Position) {
	if g.layers[layer][e.Pos] == e {
		delete(g.layers[layer], e.Pos)
	}
	if old := g.layers[layer][to]; old != nil && old != e {
		g.unlink(layer, old)
	}
	e.Pos = to
	g.layers[layer][to] = e
}

// Clear empties a layer
func (g *Grid) Clear(layer Layer) {
	g.layers[layer] = make(map[Position]*Entity)
	g.order[layer] = nil
	if layer == LayerCustom {
		g.text = make(map[Position]string)
	}
}

// All returns the entities of a layer in insertion order
func (g *Grid) All(layer Layer) []*Entity {
	out := make([]*Entity, len(g.order[layer]))
	copy(out, g.order[layer])
	return out
}

// Count returns the number of entities in a layer
func (g *Grid) Count(layer Layer) int {
	return len(g.layers[layer])
}

// LayerOf reports which layer holds e
func (g *Grid) LayerOf(e *Entity) (Layer, bool) {
	for l := range g.layers {
		if g.layers[l][e.Pos] == e {
			return Layer(l), true
		}
	}
	return 0, false
}

// Text returns the custom payload attached to a custom tile position
func (g *Grid) Text(pos Position) string {
	return g.text[pos]
}

// SetText attaches a payload to pos. Empty text deletes the entry.
func (g *Grid) SetText(pos Position, text string) {
	if text == "" {
		delete(g.text, pos)
		return
	}
	g.text[pos] = text
}

// Texts returns a copy of the custom-text table
func (g *Grid) Texts() map[Position]string {
	out := make(map[Position]string, len(g.text))
	for p, t := range g.text {
		out[p] = t
	}
	return out
}

// Clone deep-copies every layer and the text table. Entity IDs are kept so
// identities survive an undo round trip.
func (g *Grid) Clone() *Grid {
	c := NewGrid()
	c.nextID = g.nextID
	for l := range g.order {
		for _, e := range g.order[l] {
			ce := e.clone()
			c.layers[l][ce.Pos] = ce
			c.order[l] = append(c.order[l], ce)
		}
	}
	for p, t := range g.text {
		c.text[p] = t
	}
	return c
}

func (g *Grid) unlink(layer Layer, e *Entity) {
	list := g.order[layer]
	for i, cur := range list {
		if cur == e {
			g.order[layer] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}
