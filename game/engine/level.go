package engine

import (
	"fmt"
)

// TilePosition is the on-disk coordinate. Z is carried for the level
// format but ignored by the simulation.
type TilePosition struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// Pos drops the z component
func (p TilePosition) Pos() Position {
	return Position{X: p.X, Y: p.Y}
}

// TileData is one tile entry in a level file
type TileData struct {
	Type       string       `json:"type" yaml:"type"`
	Directions Directions   `json:"directions" yaml:"directions"`
	Position   TilePosition `json:"position" yaml:"position"`
}

// TileInfo carries the free-form payload of a custom tile
type TileInfo struct {
	Position TilePosition `json:"position" yaml:"position"`
	Text     string       `json:"text" yaml:"text"`
}

// LevelTiles groups the per-layer tile lists of a level file
type LevelTiles struct {
	SolidTiles     []TileData `json:"solidTiles" yaml:"solidTiles"`
	ObjectTiles    []TileData `json:"objectTiles" yaml:"objectTiles"`
	OverlapTiles   []TileData `json:"overlapTiles" yaml:"overlapTiles"`
	HazardTiles    []TileData `json:"hazardTiles" yaml:"hazardTiles"`
	EffectTiles    []TileData `json:"effectTiles" yaml:"effectTiles"`
	CustomTiles    []TileData `json:"customTiles" yaml:"customTiles"`
	CustomTileInfo []TileInfo `json:"customTileInfo" yaml:"customTileInfo"`
}

// Bounds is an inclusive rectangle of playable cells
type Bounds struct {
	MinX int `json:"minX" yaml:"minX"`
	MinY int `json:"minY" yaml:"minY"`
	MaxX int `json:"maxX" yaml:"maxX"`
	MaxY int `json:"maxY" yaml:"maxY"`
}

// Contains reports whether p lies inside the rectangle
func (b Bounds) Contains(p Position) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Level is the persisted level contract
type Level struct {
	LevelName  string     `json:"levelName" yaml:"levelName"`
	Tiles      LevelTiles `json:"tiles" yaml:"tiles"`
	FreeRoam   bool       `json:"freeroam" yaml:"freeroam"`
	HideUI     bool       `json:"hideUI" yaml:"hideUI"`
	NextLevel  string     `json:"nextLevel,omitempty" yaml:"nextLevel,omitempty"`
	RemixLevel string     `json:"remixLevel,omitempty" yaml:"remixLevel,omitempty"`
	Bounds     *Bounds    `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// tileLists pairs each level list with a label for error messages
func (l *Level) tileLists() []struct {
	name  string
	tiles []TileData
} {
	return []struct {
		name  string
		tiles []TileData
	}{
		{"solidTiles", l.Tiles.SolidTiles},
		{"objectTiles", l.Tiles.ObjectTiles},
		{"overlapTiles", l.Tiles.OverlapTiles},
		{"hazardTiles", l.Tiles.HazardTiles},
		{"effectTiles", l.Tiles.EffectTiles},
		{"customTiles", l.Tiles.CustomTiles},
	}
}

// ValidateLevel checks a level for structural problems that would make it
// impossible to build a consistent grid.
func ValidateLevel(level *Level) error {
	if level == nil {
		return fmt.Errorf("%w: level is nil", ErrInvalidLevel)
	}
	if level.LevelName == "" {
		return fmt.Errorf("%w: levelName is required", ErrInvalidLevel)
	}
	if b := level.Bounds; b != nil && (b.MinX > b.MaxX || b.MinY > b.MaxY) {
		return fmt.Errorf("%w: bounds min (%d,%d) exceeds max (%d,%d)", ErrInvalidLevel, b.MinX, b.MinY, b.MaxX, b.MaxY)
	}

	seen := make(map[Layer]map[Position]string)
	for _, list := range level.tileLists() {
		for i, td := range list.tiles {
			layer := ParseTileType(td.Type).HomeLayer()
			if seen[layer] == nil {
				seen[layer] = make(map[Position]string)
			}
			pos := td.Position.Pos()
			if prev, dup := seen[layer][pos]; dup {
				return fmt.Errorf("%w: %s[%d] at (%d,%d) overlaps %s in the %s layer",
					ErrInvalidLevel, list.name, i, pos.X, pos.Y, prev, layer)
			}
			seen[layer][pos] = fmt.Sprintf("%s[%d]", list.name, i)
		}
	}
	return nil
}

// BuildGrid turns a level into a fresh grid. Tiles are routed to the home
// layer of their type; unknown types become boxes. skip, when non-nil,
// drops individual tiles (already collected orbs, for instance).
// Custom text entries without a custom tile underneath are dropped.
func BuildGrid(level *Level, skip func(TileType, Position) bool) (*Grid, Bounds, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, Bounds{}, err
	}

	grid := NewGrid()
	first := true
	var box Bounds
	extend := func(p Position) {
		if first {
			box = Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
			first = false
			return
		}
		box.MinX = min(box.MinX, p.X)
		box.MinY = min(box.MinY, p.Y)
		box.MaxX = max(box.MaxX, p.X)
		box.MaxY = max(box.MaxY, p.Y)
	}

	for _, list := range level.tileLists() {
		for _, td := range list.tiles {
			t := ParseTileType(td.Type)
			pos := td.Position.Pos()
			extend(pos)
			if skip != nil && skip(t, pos) {
				continue
			}
			grid.Place(t, pos, td.Directions)
		}
	}

	for _, info := range level.Tiles.CustomTileInfo {
		pos := info.Position.Pos()
		if grid.Get(LayerCustom, pos) == nil {
			continue
		}
		grid.SetText(pos, info.Text)
	}

	bounds := box
	if level.Bounds != nil {
		bounds = *level.Bounds
	}
	return grid, bounds, nil
}

// exportGrid writes a grid back into the level contract, keeping the
// metadata of base.
func exportGrid(grid *Grid, base Level) *Level {
	out := &Level{
		LevelName:  base.LevelName,
		FreeRoam:   base.FreeRoam,
		HideUI:     base.HideUI,
		NextLevel:  base.NextLevel,
		RemixLevel: base.RemixLevel,
	}
	if base.Bounds != nil {
		b := *base.Bounds
		out.Bounds = &b
	}

	lists := map[Layer]*[]TileData{
		LayerSolid:  &out.Tiles.SolidTiles,
		LayerObject: &out.Tiles.ObjectTiles,
		LayerArea:   &out.Tiles.OverlapTiles,
		LayerHazard: &out.Tiles.HazardTiles,
		LayerEffect: &out.Tiles.EffectTiles,
		LayerCustom: &out.Tiles.CustomTiles,
	}
	for _, layer := range Layers() {
		for _, e := range grid.All(layer) {
			*lists[layer] = append(*lists[layer], tileDataOf(e))
		}
	}
	for _, e := range grid.All(LayerCustom) {
		if text := grid.Text(e.Pos); text != "" {
			out.Tiles.CustomTileInfo = append(out.Tiles.CustomTileInfo, TileInfo{
				Position: TilePosition{X: e.Pos.X, Y: e.Pos.Y},
				Text:     text,
			})
		}
	}
	return out
}

func tileDataOf(e *Entity) TileData {
	return TileData{
		Type:       string(e.Type),
		Directions: e.Directions,
		Position:   TilePosition{X: e.Pos.X, Y: e.Pos.Y},
	}
}
