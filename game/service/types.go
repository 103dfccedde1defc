package service

import (
	"time"

	"github.com/wricardo/slidepuzzle/game/engine"
)

// MaxBulkMoves caps how many inputs a single BulkMove call will apply
const MaxBulkMoves = 200

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	LevelID        string            `json:"level_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// Transition records that the service followed a win or a level trigger
// into another level after a move
type Transition struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Outcome engine.WinOutcome `json:"outcome,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Moved      bool              `json:"moved"`
	Pushed     bool              `json:"pushed"`
	Outcome    engine.WinOutcome `json:"outcome,omitempty"`
	Events     []engine.Event    `json:"events,omitempty"`
	Transition *Transition       `json:"transition,omitempty"`
	GameState  *engine.GameState `json:"game_state"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	RequestedMoves int               `json:"requested_moves"`
	MovesApplied   int               `json:"moves_applied"`
	MovesMoved     int               `json:"moves_moved"`
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`
	StoppedReason  string            `json:"stopped_reason,omitempty"` // frozen|level_transition
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`
	Events         []engine.Event    `json:"events,omitempty"`
	Transition     *Transition       `json:"transition,omitempty"`
	GameState      *engine.GameState `json:"game_state"`
}

// UndoResult reports whether an undo (tick or editor) changed anything
type UndoResult struct {
	Undone    bool              `json:"undone"`
	GameState *engine.GameState `json:"game_state"`
}

// PlaceTileRequest describes an editor placement
type PlaceTileRequest struct {
	Type       string            `json:"type"`
	X          int               `json:"x"`
	Y          int               `json:"y"`
	Directions engine.Directions `json:"directions"`
	Text       string            `json:"text,omitempty"`
}

// EditResult is returned by editor operations
type EditResult struct {
	Tile      *engine.Entity    `json:"tile,omitempty"`
	GameState *engine.GameState `json:"game_state"`
}

// ExportResult names the level file an editor grid was written to
type ExportResult struct {
	LevelID string        `json:"level_id"`
	Level   *engine.Level `json:"level"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename   string `json:"filename"`
	LevelID    string `json:"level_id"` // The identifier to use for session creation
	Name       string `json:"name"`
	FreeRoam   bool   `json:"freeroam"`
	NextLevel  string `json:"next_level,omitempty"`
	RemixLevel string `json:"remix_level,omitempty"`
	Objects    int    `json:"objects"`
	Areas      int    `json:"areas"`
}
