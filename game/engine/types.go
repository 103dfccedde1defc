package engine

// TileType is the closed set of entity kinds a level can contain
type TileType string

const (
	Wall     TileType = "wall"
	AntiWall TileType = "antiwall"

	Box     TileType = "box"
	Circle  TileType = "circle"
	Hexagon TileType = "hexagon"
	Mimic   TileType = "mimic"

	Area         TileType = "area"
	InverseArea  TileType = "inverse_area"
	OutboundArea TileType = "outbound_area"

	Hazard TileType = "hazard"
	Void   TileType = "void"

	Invert        TileType = "invert"
	Arrow         TileType = "arrow"
	NegativeArrow TileType = "negative_arrow"
	Orb           TileType = "orb"
	Fragment      TileType = "fragment"
	Pull          TileType = "pull"
	Reverse       TileType = "reverse"
	Mask          TileType = "mask"

	LevelTrigger TileType = "level"
	NPC          TileType = "npc"
	Fake         TileType = "fake"
)

// Layer identifies one of the six sparse grids
type Layer int

const (
	LayerSolid Layer = iota
	LayerObject
	LayerArea
	LayerHazard
	LayerEffect
	LayerCustom

	layerCount
)

// Engine limits and tunables
const (
	UndoCapacity            = 100
	CircleMaxSteps          = 28
	MaxChainDepth           = 256
	EditorMinimumDirections = 1

	// ScratchLevelID names the editor's working level; collectibles are inert there.
	ScratchLevelID = "editor"
)

var layerNames = [layerCount]string{"solid", "object", "area", "hazard", "effect", "custom"}

func (l Layer) String() string {
	if l < 0 || l >= layerCount {
		return "unknown"
	}
	return layerNames[l]
}

// Layers returns every layer in storage order
func Layers() []Layer {
	return []Layer{LayerSolid, LayerObject, LayerArea, LayerHazard, LayerEffect, LayerCustom}
}

// homeLayer routes each tile type to the layer it lives in
var homeLayer = map[TileType]Layer{
	Wall:          LayerSolid,
	AntiWall:      LayerSolid,
	Box:           LayerObject,
	Circle:        LayerObject,
	Hexagon:       LayerObject,
	Mimic:         LayerObject,
	Area:          LayerArea,
	InverseArea:   LayerArea,
	OutboundArea:  LayerArea,
	Hazard:        LayerHazard,
	Void:          LayerHazard,
	Invert:        LayerEffect,
	Arrow:         LayerEffect,
	NegativeArrow: LayerEffect,
	Orb:           LayerEffect,
	Fragment:      LayerEffect,
	Pull:          LayerEffect,
	Reverse:       LayerEffect,
	Mask:          LayerEffect,
	LevelTrigger:  LayerCustom,
	NPC:           LayerCustom,
	Fake:          LayerCustom,
}

// AllTileTypes lists every known tile type
func AllTileTypes() []TileType {
	return []TileType{
		Wall, AntiWall,
		Box, Circle, Hexagon, Mimic,
		Area, InverseArea, OutboundArea,
		Hazard, Void,
		Invert, Arrow, NegativeArrow, Orb, Fragment, Pull, Reverse, Mask,
		LevelTrigger, NPC, Fake,
	}
}

// IsKnown reports whether t is part of the enumeration
func (t TileType) IsKnown() bool {
	_, ok := homeLayer[t]
	return ok
}

// HomeLayer returns the layer a tile of this type is stored in.
// Unknown types are treated as boxes.
func (t TileType) HomeLayer() Layer {
	if l, ok := homeLayer[t]; ok {
		return l
	}
	return LayerObject
}

// ParseTileType maps a level file type string onto the enumeration,
// falling back to Box for anything unrecognised.
func ParseTileType(s string) TileType {
	t := TileType(s)
	if t.IsKnown() {
		return t
	}
	return Box
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns p shifted by d
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Scale multiplies both coordinates by n
func (p Position) Scale(n int) Position {
	return Position{X: p.X * n, Y: p.Y * n}
}

// Entity is a single tile on the grid. Identity is the pointer; Pos is
// kept in sync by the grid whenever the entity is relocated.
type Entity struct {
	ID         uint64     `json:"id"`
	Type       TileType   `json:"type"`
	Pos        Position   `json:"position"`
	Directions Directions `json:"directions"`
}

// clone returns a detached copy with the same identity number
func (e *Entity) clone() *Entity {
	c := *e
	return &c
}

// WinOutcome is the terminal state computed after each tick
type WinOutcome string

const (
	WinNone     WinOutcome = ""
	WinOutbound WinOutcome = "outbound"
	WinRemix    WinOutcome = "remix"
	WinNormal   WinOutcome = "normal"
)

// TickResult summarises one ApplyMovement call
type TickResult struct {
	Direction Direction  `json:"direction"`
	Moved     bool       `json:"moved"`
	Pushed    bool       `json:"pushed"`
	MoveCount int        `json:"move_count"`
	Outcome   WinOutcome `json:"outcome,omitempty"`
	Events    []Event    `json:"events,omitempty"`
}

// GameState is a serialisable view of a simulation
type GameState struct {
	LevelID        string                `json:"level_id"`
	LevelName      string                `json:"level_name"`
	FreeRoam       bool                  `json:"freeroam"`
	HideUI         bool                  `json:"hide_ui"`
	NextLevel      string                `json:"next_level,omitempty"`
	RemixLevel     string                `json:"remix_level,omitempty"`
	Bounds         Bounds                `json:"bounds"`
	Layers         map[string][]TileData `json:"layers"`
	CustomText     []TileInfo            `json:"custom_text,omitempty"`
	MoveCount      int                   `json:"move_count"`
	LastActed      TileType              `json:"last_acted,omitempty"`
	Frozen         bool                  `json:"frozen"`
	Outcome        WinOutcome            `json:"outcome,omitempty"`
	UndoAvailable  bool                  `json:"undo_available"`
	UndoDepth      int                   `json:"undo_depth"`
	EditorUndoable bool                  `json:"editor_undoable"`
	EditorRedoable bool                  `json:"editor_redoable"`
}
