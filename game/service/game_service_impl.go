package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/slidepuzzle/game/engine"
)

// ErrInvalidRequest marks malformed editor or level requests
var ErrInvalidRequest = errors.New("invalid request")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	log      *logrus.Entry
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		log:      logrus.WithField("component", "service"),
	}
}

// CreateSession creates a new game session on the given level, or on the
// default level when levelID is empty
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	var level *engine.Level
	if levelID != "" {
		var err error
		level, err = s.levels.LoadLevel(levelID)
		if err != nil {
			return nil, s.levelError(levelID, err)
		}
	} else {
		levelID, level = s.levels.GetDefault()
	}

	// Let session manager generate the ID
	sess, err := s.sessions.Create("", levelID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.WithFields(logrus.Fields{"session": sess.ID, "level": levelID}).Info("session created")

	sess.Lock()
	defer sess.Unlock()
	return sessionInfo(sess), nil
}

// levelError lists the available levels when the requested one is missing
func (s *gameServiceImpl) levelError(levelID string, err error) error {
	available, listErr := s.levels.ListLevels()
	if listErr != nil || len(available) == 0 {
		return fmt.Errorf("failed to load level %s: %w", levelID, err)
	}
	ids := make([]string, 0, len(available))
	for _, l := range available {
		ids = append(ids, l.LevelID)
	}
	return fmt.Errorf("failed to load level %s (available: %v): %w", levelID, ids, err)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions, most recently used first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, sessionInfo(sess))
		sess.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastAccessedAt.After(result[j].LastAccessedAt)
	})
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	s.log.WithField("session", sessionID).Info("session deleted")
	return nil
}

// Move applies one directional input
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tick := sess.Sim.ApplyMovement(dir)
	result := &MoveResult{
		Moved:   tick.Moved,
		Pushed:  tick.Pushed,
		Outcome: tick.Outcome,
		Events:  tick.Events,
	}
	result.Transition = s.followTransition(sess, tick.Events)
	result.GameState = sess.Sim.State()

	s.persist(sess)
	return result, nil
}

// BulkMove applies inputs in order until one freezes the level
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	dirs := make([]engine.Direction, 0, len(moves))
	for _, m := range moves {
		dir, err := engine.ParseDirection(m)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}

	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &BulkMoveResult{RequestedMoves: len(moves)}

	// Limit moves to prevent abuse
	if len(dirs) > MaxBulkMoves {
		result.Truncated = true
		result.Limit = MaxBulkMoves
		dirs = dirs[:MaxBulkMoves]
	}

	for i, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sess.Sim.Frozen() {
			result.StoppedReason = "frozen"
			result.StoppedOnMove = i + 1
			break
		}

		tick := sess.Sim.ApplyMovement(dir)
		result.MovesApplied++
		if tick.Moved {
			result.MovesMoved++
		}
		result.Events = append(result.Events, tick.Events...)

		if tr := s.followTransition(sess, tick.Events); tr != nil {
			result.Transition = tr
			result.StoppedReason = "level_transition"
			result.StoppedOnMove = i + 1
			break
		}
	}

	result.GameState = sess.Sim.State()
	s.persist(sess)
	return result, nil
}

// Undo reverts the last recorded tick
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*UndoResult, error) {
	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	undone := sess.Sim.Undo()
	if undone {
		s.persist(sess)
	}
	return &UndoResult{Undone: undone, GameState: sess.Sim.State()}, nil
}

// Reset reloads the current level from its definition
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := sess.Sim.ReloadLevel(); err != nil {
		return nil, fmt.Errorf("failed to reset level: %w", err)
	}
	s.persist(sess)
	return sess.Sim.State(), nil
}

// JumpToLevel loads another level into an existing session
func (s *gameServiceImpl) JumpToLevel(ctx context.Context, sessionID, levelID string) (*engine.GameState, error) {
	level, err := s.levels.LoadLevel(levelID)
	if err != nil {
		return nil, s.levelError(levelID, err)
	}

	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := sess.Sim.LoadLevel(levelID, level); err != nil {
		return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
	}
	s.persist(sess)
	return sess.Sim.State(), nil
}

// GetGameState returns the current state of a session
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return sess.Sim.State(), nil
}

// PlaceTile places a tile through the editor command layer
func (s *gameServiceImpl) PlaceTile(ctx context.Context, sessionID string, req PlaceTileRequest) (*EditResult, error) {
	if req.Type == "" {
		return nil, fmt.Errorf("%w: tile type is required", ErrInvalidRequest)
	}

	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t := engine.TileType(req.Type)
	pos := engine.Position{X: req.X, Y: req.Y}

	var placed *engine.Entity
	if t.HomeLayer() == engine.LayerCustom && t.IsKnown() {
		placed, err = sess.Sim.PlaceCustomTile(t, pos, req.Directions, req.Text)
	} else {
		placed, err = sess.Sim.PlaceTile(t, pos, req.Directions)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to place %s at %d,%d: %w", req.Type, req.X, req.Y, err)
	}

	s.persist(sess)
	return &EditResult{Tile: placed, GameState: sess.Sim.State()}, nil
}

// RemoveTile removes the top-most tile at a cell
func (s *gameServiceImpl) RemoveTile(ctx context.Context, sessionID string, x, y int) (*EditResult, error) {
	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	removed, err := sess.Sim.RemoveTile(engine.Position{X: x, Y: y})
	if err != nil {
		return nil, fmt.Errorf("failed to remove tile at %d,%d: %w", x, y, err)
	}

	s.persist(sess)
	return &EditResult{Tile: removed, GameState: sess.Sim.State()}, nil
}

// EditorUndo reverts the most recent editor command
func (s *gameServiceImpl) EditorUndo(ctx context.Context, sessionID string) (*UndoResult, error) {
	return s.editorHistory(sessionID, (*engine.Simulation).EditorUndo)
}

// EditorRedo reapplies the most recently undone editor command
func (s *gameServiceImpl) EditorRedo(ctx context.Context, sessionID string) (*UndoResult, error) {
	return s.editorHistory(sessionID, (*engine.Simulation).EditorRedo)
}

func (s *gameServiceImpl) editorHistory(sessionID string, op func(*engine.Simulation) bool) (*UndoResult, error) {
	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	changed := op(sess.Sim)
	if changed {
		s.persist(sess)
	}
	return &UndoResult{Undone: changed, GameState: sess.Sim.State()}, nil
}

// ExportLevel writes the session's current grid to the level store
func (s *gameServiceImpl) ExportLevel(ctx context.Context, sessionID, levelID string) (*ExportResult, error) {
	sess, unlock, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	level, err := sess.Sim.ExportLevel()
	unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to export level: %w", err)
	}

	id, err := s.levels.SaveLevel(levelID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to save level: %w", err)
	}

	s.log.WithFields(logrus.Fields{"session": sessionID, "level": id}).Info("level exported")
	return &ExportResult{LevelID: id, Level: level}, nil
}

// ListLevels returns the available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// GetLevel returns a level definition
func (s *gameServiceImpl) GetLevel(ctx context.Context, levelID string) (*engine.Level, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel stores a level definition
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.Level) (string, error) {
	if level == nil {
		return "", fmt.Errorf("%w: level is required", ErrInvalidRequest)
	}
	return s.levels.SaveLevel(levelID, level)
}

// acquire looks a session up, locks it and marks it accessed. The caller
// must call the returned unlock.
func (s *gameServiceImpl) acquire(sessionID string) (*Session, func(), error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("session not found: %w", err)
	}
	sess.Lock()
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Debug("failed to update last access")
	}
	return sess, sess.Unlock, nil
}

// followTransition loads the level named by a win or level trigger event.
// A level without a successor stays frozen on its solved state.
func (s *gameServiceImpl) followTransition(sess *Session, events []engine.Event) *Transition {
	var target string
	var outcome engine.WinOutcome
	for _, ev := range events {
		if ev.Type == engine.EventWin || ev.Type == engine.EventLevelTransition {
			target, outcome = ev.Target, ev.Outcome
		}
	}
	if target == "" {
		return nil
	}

	tr := &Transition{From: sess.Sim.LevelID(), To: target, Outcome: outcome}
	logger := s.log.WithFields(logrus.Fields{"session": sess.ID, "from": tr.From, "to": target})

	level, err := s.levels.LoadLevel(target)
	if err == nil {
		err = sess.Sim.LoadLevel(target, level)
	}
	if err != nil {
		logger.WithError(err).Warn("level transition failed")
		tr.Error = err.Error()
		return tr
	}

	logger.Info("level transition")
	return tr
}

// persist saves a session, logging instead of failing the request
func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		s.log.WithError(err).WithField("session", sess.ID).Warn("failed to persist session")
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.Sim.LevelID(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Sim.State(),
	}
}
