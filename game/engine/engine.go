package engine

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Simulation owns one level's grid, undo buffer and counters. It is not
// safe for concurrent use; callers serialise access.
type Simulation struct {
	grid    *Grid
	level   *Level
	levelID string
	bounds  Bounds

	undo   *UndoBuffer
	editor editorHistory

	moveCount int
	lastActed TileType
	frozen    bool
	outcome   WinOutcome

	minEditorDirections int
	progress            CollectibleRecorder
	listeners           []func(Event)
	log                 *logrus.Entry

	// tick is non-nil only while ApplyMovement runs
	tick *tickState
}

// Option configures a Simulation
type Option func(*Simulation)

// WithProgress attaches the store that remembers collected orbs and fragments
func WithProgress(r CollectibleRecorder) Option {
	return func(s *Simulation) { s.progress = r }
}

// WithLogger replaces the default component logger
func WithLogger(l *logrus.Entry) Option {
	return func(s *Simulation) { s.log = l }
}

// WithUndoCapacity changes the undo ring size
func WithUndoCapacity(n int) Option {
	return func(s *Simulation) { s.undo = NewUndoBuffer(n) }
}

// WithEditorMinimumDirections changes how many directions placed objects need
func WithEditorMinimumDirections(n int) Option {
	return func(s *Simulation) { s.minEditorDirections = n }
}

// NewSimulation creates an empty simulation with no level loaded
func NewSimulation(opts ...Option) *Simulation {
	s := &Simulation{
		grid:                NewGrid(),
		undo:                NewUndoBuffer(UndoCapacity),
		minEditorDirections: EditorMinimumDirections,
		log:                 logrus.WithField("component", "engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnEvent registers a listener called synchronously for every event
func (s *Simulation) OnEvent(fn func(Event)) {
	s.listeners = append(s.listeners, fn)
}

// LoadLevel replaces the current level. The new grid is built completely
// before anything is swapped, so a failed load leaves the old state intact.
func (s *Simulation) LoadLevel(id string, level *Level) error {
	skip := func(t TileType, pos Position) bool {
		if s.progress == nil || id == ScratchLevelID {
			return false
		}
		return (t == Orb || t == Fragment) && s.progress.IsCollected(id, t, pos)
	}

	grid, bounds, err := BuildGrid(level, skip)
	if err != nil {
		return fmt.Errorf("load level %q: %w", id, err)
	}

	s.grid = grid
	s.level = level
	s.levelID = id
	s.bounds = bounds
	s.undo.Clear()
	s.editor = editorHistory{}
	s.moveCount = 0
	s.lastActed = ""
	s.frozen = false
	s.outcome = WinNone

	s.log.WithFields(logrus.Fields{
		"level":   id,
		"objects": grid.Count(LayerObject),
		"areas":   grid.Count(LayerArea),
	}).Info("level loaded")
	return nil
}

// ReloadLevel rebuilds the current level from its definition
func (s *Simulation) ReloadLevel() error {
	if s.level == nil {
		return ErrNoLevelLoaded
	}
	return s.LoadLevel(s.levelID, s.level)
}

// ClearLevel drops the level and every piece of per-level state
func (s *Simulation) ClearLevel() {
	s.grid = NewGrid()
	s.level = nil
	s.levelID = ""
	s.bounds = Bounds{}
	s.undo.Clear()
	s.editor = editorHistory{}
	s.moveCount = 0
	s.lastActed = ""
	s.frozen = false
	s.outcome = WinNone
}

// IsPositionInBounds reports whether p is playable. Free-roam levels have
// no edges.
func (s *Simulation) IsPositionInBounds(p Position) bool {
	if s.level == nil {
		return false
	}
	if s.level.FreeRoam {
		return true
	}
	return s.bounds.Contains(p)
}

// GetObjectTiles returns copies of the movable entities in move-list order
func (s *Simulation) GetObjectTiles() []Entity {
	return copyEntities(s.grid.All(LayerObject))
}

// CustomTile is a custom-layer entity together with its payload
type CustomTile struct {
	Entity
	Text string `json:"text,omitempty"`
}

// GetCustomTiles returns the custom-layer tiles and their payloads
func (s *Simulation) GetCustomTiles() []CustomTile {
	all := s.grid.All(LayerCustom)
	out := make([]CustomTile, 0, len(all))
	for _, e := range all {
		out = append(out, CustomTile{Entity: *e, Text: s.grid.Text(e.Pos)})
	}
	return out
}

// TilesAt returns copies of every entity stacked at p, solid layer first
func (s *Simulation) TilesAt(p Position) []Entity {
	var out []Entity
	for _, l := range Layers() {
		if e := s.grid.Get(l, p); e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// LevelID returns the identifier the current level was loaded under
func (s *Simulation) LevelID() string { return s.levelID }

// Level returns the definition the current level reloads from
func (s *Simulation) Level() *Level { return s.level }

// Bounds returns the playable rectangle of a bounded level
func (s *Simulation) Bounds() Bounds { return s.bounds }

// MoveCount returns how many recorded ticks have been applied
func (s *Simulation) MoveCount() int { return s.moveCount }

// LastActed returns the type of the entity that moved first in the last tick
func (s *Simulation) LastActed() TileType { return s.lastActed }

// Frozen reports whether movement is locked (a transition or win fired)
func (s *Simulation) Frozen() bool { return s.frozen }

// SetFrozen lets the host lock or release movement
func (s *Simulation) SetFrozen(v bool) { s.frozen = v }

// Outcome returns the win state computed by the last tick
func (s *Simulation) Outcome() WinOutcome { return s.outcome }

// UndoDepth returns how many ticks can be undone
func (s *Simulation) UndoDepth() int { return s.undo.Len() }

// ExportLevel serialises the current grid into the level contract
func (s *Simulation) ExportLevel() (*Level, error) {
	if s.level == nil {
		return nil, ErrNoLevelLoaded
	}
	return exportGrid(s.grid, *s.level), nil
}

// Snapshot is the persisted form of play in progress. Level is the
// definition ReloadLevel rebuilds from, Grid the tiles as they stand.
type Snapshot struct {
	LevelID   string     `json:"level_id"`
	Level     *Level     `json:"level"`
	Grid      *Level     `json:"grid"`
	Bounds    Bounds     `json:"bounds"`
	MoveCount int        `json:"move_count"`
	LastActed TileType   `json:"last_acted,omitempty"`
	Frozen    bool       `json:"frozen"`
	Outcome   WinOutcome `json:"outcome,omitempty"`
}

// Snapshot captures the current level and counters. Undo frames are not
// part of it.
func (s *Simulation) Snapshot() (*Snapshot, error) {
	if s.level == nil {
		return nil, ErrNoLevelLoaded
	}
	def := *s.level
	return &Snapshot{
		LevelID:   s.levelID,
		Level:     &def,
		Grid:      exportGrid(s.grid, *s.level),
		Bounds:    s.bounds,
		MoveCount: s.moveCount,
		LastActed: s.lastActed,
		Frozen:    s.frozen,
		Outcome:   s.outcome,
	}, nil
}

// Resume replaces the current level with a snapshot. Collectibles already
// missing from the snapshot grid stay missing.
func (s *Simulation) Resume(snap *Snapshot) error {
	if snap == nil || snap.Level == nil || snap.Grid == nil {
		return fmt.Errorf("%w: incomplete snapshot", ErrInvalidLevel)
	}
	if err := ValidateLevel(snap.Level); err != nil {
		return fmt.Errorf("resume level %q: %w", snap.LevelID, err)
	}
	grid, _, err := BuildGrid(snap.Grid, nil)
	if err != nil {
		return fmt.Errorf("resume level %q: %w", snap.LevelID, err)
	}

	s.grid = grid
	s.level = snap.Level
	s.levelID = snap.LevelID
	s.bounds = snap.Bounds
	s.undo.Clear()
	s.editor = editorHistory{}
	s.moveCount = snap.MoveCount
	s.lastActed = snap.LastActed
	s.frozen = snap.Frozen
	s.outcome = snap.Outcome

	s.log.WithFields(logrus.Fields{"level": snap.LevelID, "moves": snap.MoveCount}).Info("level resumed")
	return nil
}

// State builds a serialisable snapshot of the simulation
func (s *Simulation) State() *GameState {
	st := &GameState{
		LevelID:        s.levelID,
		Bounds:         s.bounds,
		Layers:         make(map[string][]TileData, len(Layers())),
		MoveCount:      s.moveCount,
		LastActed:      s.lastActed,
		Frozen:         s.frozen,
		Outcome:        s.outcome,
		UndoAvailable:  s.IsUndoAvailable(),
		UndoDepth:      s.undo.Len(),
		EditorUndoable: s.editor.canUndo(),
		EditorRedoable: s.editor.canRedo(),
	}
	if s.level != nil {
		st.LevelName = s.level.LevelName
		st.FreeRoam = s.level.FreeRoam
		st.HideUI = s.level.HideUI
		st.NextLevel = s.level.NextLevel
		st.RemixLevel = s.level.RemixLevel
	}
	for _, l := range Layers() {
		tiles := make([]TileData, 0, s.grid.Count(l))
		for _, e := range s.grid.All(l) {
			tiles = append(tiles, tileDataOf(e))
		}
		st.Layers[l.String()] = tiles
	}
	texts := s.grid.Texts()
	positions := make([]Position, 0, len(texts))
	for p := range texts {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Y != positions[j].Y {
			return positions[i].Y < positions[j].Y
		}
		return positions[i].X < positions[j].X
	})
	for _, p := range positions {
		st.CustomText = append(st.CustomText, TileInfo{Position: TilePosition{X: p.X, Y: p.Y}, Text: texts[p]})
	}
	return st
}

func copyEntities(list []*Entity) []Entity {
	out := make([]Entity, len(list))
	for i, e := range list {
		out[i] = *e
	}
	return out
}
