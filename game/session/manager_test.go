package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/slidepuzzle/game/engine"
)

func createTestLevel() *engine.Level {
	return &engine.Level{
		LevelName: "Test Level",
		NextLevel: "level-2",
		Tiles: engine.LevelTiles{
			SolidTiles: []engine.TileData{
				{Type: "wall", Position: engine.TilePosition{X: 0, Y: 1}},
			},
			ObjectTiles: []engine.TileData{
				{Type: "box", Directions: engine.AllowsAll(), Position: engine.TilePosition{X: 0, Y: 0}},
			},
			OverlapTiles: []engine.TileData{
				{Type: "area", Position: engine.TilePosition{X: 3, Y: 0}},
			},
			EffectTiles: []engine.TileData{
				{Type: "orb", Position: engine.TilePosition{X: 1, Y: 0}},
			},
		},
	}
}

type memoryRecorder struct {
	mu        sync.Mutex
	collected map[string]bool
}

func (r *memoryRecorder) key(levelID string, kind engine.TileType, pos engine.Position) string {
	return fmt.Sprintf("%s/%s/%d,%d", levelID, kind, pos.X, pos.Y)
}

func (r *memoryRecorder) RecordCollectible(levelID string, kind engine.TileType, pos engine.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.collected == nil {
		r.collected = make(map[string]bool)
	}
	r.collected[r.key(levelID, kind, pos)] = true
	return nil
}

func (r *memoryRecorder) IsCollected(levelID string, kind engine.TileType, pos engine.Position) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collected[r.key(levelID, kind, pos)]
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "level-1", level)
		require.NoError(t, err)
		assert.Equal(t, "test-session", session.ID)
		require.NotNil(t, session.Sim)
		assert.Equal(t, "level-1", session.Sim.LevelID())
		assert.False(t, session.CreatedAt.IsZero())
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "level-1", level)
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9a-f]{8}$`, session.ID)
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", "level-1", level)
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "level-1", level)
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("../escape", "level-1", level)
		assert.ErrorIs(t, err, ErrInvalidSessionID)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := manager.Create("invalid-test", "bad", &engine.Level{})
		assert.ErrorIs(t, err, engine.ErrInvalidLevel)
		_, err = manager.Get("invalid-test")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("get-test", "level-1", createTestLevel())
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "existing session", id: "get-test"},
		{name: "case-insensitive", id: "GET-TEST"},
		{name: "non-existent session", id: "non-existent", wantErr: ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := manager.Get(tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Same(t, created, session)
		})
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	_, err := manager.Create("delete-test", "level-1", createTestLevel())
	require.NoError(t, err)

	require.NoError(t, manager.Delete("delete-test"))
	_, err = manager.Get("delete-test")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, manager.Delete("non-existent"), ErrSessionNotFound)
	assert.ErrorIs(t, manager.DeleteFromMemory("non-existent"), ErrSessionNotFound)
}

func TestManager_ListAndCount(t *testing.T) {
	manager := NewManager()
	assert.Empty(t, manager.List())

	for _, id := range []string{"a", "b", "c"} {
		_, err := manager.Create(id, "level-1", createTestLevel())
		require.NoError(t, err)
	}

	assert.Len(t, manager.List(), 3)
	assert.Equal(t, 3, manager.Count())
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, err := manager.Create("access-test", "level-1", createTestLevel())
	require.NoError(t, err)
	before := session.LastAccessedAt

	time.Sleep(2 * time.Millisecond)
	session.Lock()
	require.NoError(t, manager.UpdateLastAccessed("ACCESS-TEST"))
	session.Unlock()

	assert.True(t, session.LastAccessedAt.After(before))
	assert.ErrorIs(t, manager.UpdateLastAccessed("missing"), ErrSessionNotFound)
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	manager := NewManager()
	old, err := manager.Create("old", "level-1", createTestLevel())
	require.NoError(t, err)
	_, err = manager.Create("fresh", "level-1", createTestLevel())
	require.NoError(t, err)

	old.Lock()
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	old.Unlock()

	removed := manager.CleanupExpiredSessions(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, manager.Count())

	_, err = manager.Get("fresh")
	assert.NoError(t, err)
}

func TestManager_SharedProgress(t *testing.T) {
	recorder := &memoryRecorder{}
	manager := NewManager(WithProgress(recorder))

	first, err := manager.Create("first", "level-1", createTestLevel())
	require.NoError(t, err)
	res := first.Sim.ApplyMovement(engine.Right)
	require.True(t, res.Moved)
	assert.True(t, recorder.IsCollected("level-1", engine.Orb, engine.Position{X: 1, Y: 0}))

	second, err := manager.Create("second", "level-1", createTestLevel())
	require.NoError(t, err)
	for _, tile := range second.Sim.State().Layers[engine.LayerEffect.String()] {
		assert.NotEqual(t, "orb", tile.Type, "a collected orb does not respawn")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", "level-1", level)
			if !assert.NoError(t, err) {
				return
			}
			ids <- session.ID

			got, err := manager.Get(session.ID)
			assert.NoError(t, err)
			got.Lock()
			got.Sim.ApplyMovement(engine.Right)
			assert.NoError(t, manager.UpdateLastAccessed(session.ID))
			got.Unlock()
			manager.List()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, 20, manager.Count())
}
