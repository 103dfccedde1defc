package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/slidepuzzle/game/engine"
	"github.com/wricardo/slidepuzzle/game/service"
)

func newTestSession(t *testing.T, id string) *service.Session {
	t.Helper()
	sim := engine.NewSimulation()
	require.NoError(t, sim.LoadLevel("level-1", createTestLevel()))
	return &service.Session{
		ID:             id,
		Sim:            sim,
		CreatedAt:      time.Now().Add(-time.Minute).Truncate(time.Second),
		LastAccessedAt: time.Now().Truncate(time.Second),
	}
}

func TestFilePersistence(t *testing.T) {
	tempDir := t.TempDir()
	persistence, err := NewFilePersistence(tempDir)
	require.NoError(t, err)

	session := newTestSession(t, "test1")
	session.Sim.ApplyMovement(engine.Right)

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, persistence.Save(session))
		assert.True(t, persistence.Exists("test1"))
		assert.NoFileExists(t, filepath.Join(tempDir, "test1.json.tmp"))

		data, err := persistence.Load("test1")
		require.NoError(t, err)
		assert.Equal(t, "test1", data.ID)
		assert.True(t, session.CreatedAt.Equal(data.CreatedAt))
		require.NotNil(t, data.Snapshot)
		assert.Equal(t, "level-1", data.Snapshot.LevelID)
		assert.Equal(t, 1, data.Snapshot.MoveCount)
		assert.Equal(t, "Test Level", data.Snapshot.Level.LevelName)
	})

	t.Run("list all", func(t *testing.T) {
		require.NoError(t, persistence.Save(newTestSession(t, "test2")))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644))

		ids, err := persistence.ListAll()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"test1", "test2"}, ids)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, persistence.Delete("test2"))
		assert.False(t, persistence.Exists("test2"))
		assert.ErrorIs(t, persistence.Delete("test2"), ErrSessionNotFound)
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := persistence.Load("missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("load corrupt", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "corrupt.json"), []byte("{not json"), 0644))
		_, err := persistence.Load("corrupt")
		assert.Error(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "empty.json"), []byte(`{"id":"empty"}`), 0644))
		_, err = persistence.Load("empty")
		assert.Error(t, err)
	})

	t.Run("rejects path ids", func(t *testing.T) {
		_, err := persistence.Load("../etc/passwd")
		assert.ErrorIs(t, err, ErrInvalidSessionID)
		assert.False(t, persistence.Exists("../test1"))
		assert.ErrorIs(t, persistence.Save(newTestSession(t, "a/b")), ErrInvalidSessionID)
	})
}

func TestManagerWithPersistence(t *testing.T) {
	tempDir := t.TempDir()
	persistence, err := NewFilePersistence(tempDir)
	require.NoError(t, err)

	manager := NewManagerWithPersistence(persistence)

	t.Run("create auto-saves", func(t *testing.T) {
		session, err := manager.Create("auto1", "level-1", createTestLevel())
		require.NoError(t, err)
		assert.True(t, persistence.Exists(session.ID))
	})

	t.Run("save after moves", func(t *testing.T) {
		session, err := manager.Get("auto1")
		require.NoError(t, err)

		session.Lock()
		session.Sim.ApplyMovement(engine.Right)
		session.Sim.ApplyMovement(engine.Right)
		require.NoError(t, manager.Save("auto1"))
		session.Unlock()
	})

	t.Run("get restores from persistence", func(t *testing.T) {
		manager2 := NewManagerWithPersistence(persistence)

		session, err := manager2.Get("auto1")
		require.NoError(t, err)
		assert.Equal(t, "auto1", session.ID)
		assert.Equal(t, 2, session.Sim.MoveCount())
		assert.Equal(t, "level-1", session.Sim.LevelID())

		objects := session.Sim.GetObjectTiles()
		require.Len(t, objects, 1)
		assert.Equal(t, engine.Position{X: 2, Y: 0}, objects[0].Pos)

		again, err := manager2.Get("auto1")
		require.NoError(t, err)
		assert.Same(t, session, again, "restored sessions are cached")

		require.NoError(t, session.Sim.ReloadLevel())
		assert.Equal(t, engine.Position{X: 0, Y: 0}, session.Sim.GetObjectTiles()[0].Pos)
	})

	t.Run("load persisted sessions", func(t *testing.T) {
		_, err := manager.Create("auto2", "level-1", createTestLevel())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "junk.json"), []byte("{"), 0644))

		manager3 := NewManagerWithPersistence(persistence)
		require.NoError(t, manager3.LoadPersistedSessions())
		assert.Equal(t, 2, manager3.Count(), "junk files are skipped")
	})

	t.Run("save all", func(t *testing.T) {
		assert.NoError(t, manager.SaveAllSessions())
	})

	t.Run("delete removes the file", func(t *testing.T) {
		require.NoError(t, manager.Delete("auto2"))
		assert.False(t, persistence.Exists("auto2"))
	})

	t.Run("delete from memory keeps the file", func(t *testing.T) {
		require.NoError(t, manager.DeleteFromMemory("auto1"))
		assert.True(t, persistence.Exists("auto1"))

		_, err := manager.Get("auto1")
		assert.NoError(t, err)
	})
}

func TestManager_NoPersistence(t *testing.T) {
	manager := NewManager()
	assert.NoError(t, manager.Save("anything"))
	assert.NoError(t, manager.SaveAllSessions())
	assert.NoError(t, manager.LoadPersistedSessions())
}
