package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type legendEntry struct {
	t    TileType
	dirs Directions
}

// testLegend maps layout characters to tiles
var testLegend = map[rune]legendEntry{
	'#': {Wall, Directions{}},
	'A': {AntiWall, Directions{}},
	'B': {Box, AllowsAll()},
	'b': {Box, Directions{Pushable: true}},
	's': {Box, Directions{}},
	'n': {Box, Directions{Right: true}},
	'C': {Circle, AllowsAll()},
	'H': {Hexagon, AllowsAll()},
	'M': {Mimic, AllowsAll()},
	'a': {Area, Directions{}},
	'i': {InverseArea, Directions{}},
	'o': {OutboundArea, Directions{}},
	'x': {Hazard, Directions{}},
	'v': {Void, Directions{}},
}

type levelBuilder struct {
	level Level
}

func newLevel(name string) *levelBuilder {
	return &levelBuilder{level: Level{LevelName: name}}
}

// layout adds one tile per legend character and bounds the level to the
// rows. '.' is an empty cell.
func (b *levelBuilder) layout(rows ...string) *levelBuilder {
	width := 0
	for y, row := range rows {
		width = max(width, len(row))
		for x, ch := range row {
			if ch == '.' {
				continue
			}
			def, ok := testLegend[ch]
			if !ok {
				panic(fmt.Sprintf("unknown layout character %q", ch))
			}
			b.tile(def.t, x, y, def.dirs)
		}
	}
	return b.bounds(0, 0, width-1, len(rows)-1)
}

func (b *levelBuilder) tile(t TileType, x, y int, dirs Directions) *levelBuilder {
	td := TileData{Type: string(t), Directions: dirs, Position: TilePosition{X: x, Y: y}}
	tiles := &b.level.Tiles
	switch t.HomeLayer() {
	case LayerSolid:
		tiles.SolidTiles = append(tiles.SolidTiles, td)
	case LayerObject:
		tiles.ObjectTiles = append(tiles.ObjectTiles, td)
	case LayerArea:
		tiles.OverlapTiles = append(tiles.OverlapTiles, td)
	case LayerHazard:
		tiles.HazardTiles = append(tiles.HazardTiles, td)
	case LayerEffect:
		tiles.EffectTiles = append(tiles.EffectTiles, td)
	case LayerCustom:
		tiles.CustomTiles = append(tiles.CustomTiles, td)
	}
	return b
}

func (b *levelBuilder) text(x, y int, text string) *levelBuilder {
	b.level.Tiles.CustomTileInfo = append(b.level.Tiles.CustomTileInfo, TileInfo{
		Position: TilePosition{X: x, Y: y},
		Text:     text,
	})
	return b
}

func (b *levelBuilder) bounds(minX, minY, maxX, maxY int) *levelBuilder {
	b.level.Bounds = &Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	return b
}

func (b *levelBuilder) freeRoam() *levelBuilder {
	b.level.FreeRoam = true
	b.level.Bounds = nil
	return b
}

func (b *levelBuilder) next(id string) *levelBuilder {
	b.level.NextLevel = id
	return b
}

func (b *levelBuilder) remix(id string) *levelBuilder {
	b.level.RemixLevel = id
	return b
}

func (b *levelBuilder) build() *Level {
	l := b.level
	return &l
}

func loadSim(t *testing.T, level *Level, opts ...Option) *Simulation {
	t.Helper()
	sim := NewSimulation(opts...)
	require.NoError(t, sim.LoadLevel(level.LevelName, level))
	return sim
}

func at(x, y int) Position {
	return Position{X: x, Y: y}
}

func objectAt(sim *Simulation, x, y int) *Entity {
	return sim.grid.Get(LayerObject, at(x, y))
}

// objectRow renders row y of the object layer as a string for compact asserts
func objectRow(sim *Simulation, y, width int) string {
	out := make([]byte, width)
	for x := 0; x < width; x++ {
		e := objectAt(sim, x, y)
		switch {
		case e == nil:
			out[x] = '.'
		case e.Type == Box:
			out[x] = 'B'
		case e.Type == Circle:
			out[x] = 'C'
		case e.Type == Hexagon:
			out[x] = 'H'
		case e.Type == Mimic:
			out[x] = 'M'
		}
	}
	return string(out)
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

type collectKey struct {
	level string
	kind  TileType
	pos   Position
}

// memoryRecorder is an in-memory CollectibleRecorder
type memoryRecorder struct {
	collected map[collectKey]bool
	err       error
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{collected: make(map[collectKey]bool)}
}

func (m *memoryRecorder) RecordCollectible(levelID string, kind TileType, pos Position) error {
	if m.err != nil {
		return m.err
	}
	m.collected[collectKey{levelID, kind, pos}] = true
	return nil
}

func (m *memoryRecorder) IsCollected(levelID string, kind TileType, pos Position) bool {
	return m.collected[collectKey{levelID, kind, pos}]
}
