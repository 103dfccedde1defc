package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/slidepuzzle/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error)
	Undo(ctx context.Context, sessionID string) (*UndoResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	JumpToLevel(ctx context.Context, sessionID, levelID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Editor
	PlaceTile(ctx context.Context, sessionID string, req PlaceTileRequest) (*EditResult, error)
	RemoveTile(ctx context.Context, sessionID string, x, y int) (*EditResult, error)
	EditorUndo(ctx context.Context, sessionID string) (*UndoResult, error)
	EditorRedo(ctx context.Context, sessionID string) (*UndoResult, error)
	ExportLevel(ctx context.Context, sessionID, levelID string) (*ExportResult, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	GetLevel(ctx context.Context, levelID string) (*engine.Level, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.Level) (string, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, level *engine.Level) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(id string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() (string, *engine.Level)
	SaveLevel(id string, level *engine.Level) (string, error)
}

// Session represents an active game session. Sim is not safe for
// concurrent use; hold the session lock while touching it.
type Session struct {
	ID             string
	Sim            *engine.Simulation
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock serialises access to the session's simulation
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock
func (s *Session) Unlock() { s.mu.Unlock() }
