package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/slidepuzzle/game/engine"
)

var ErrUnknownBackend = errors.New("unknown progress backend")

// Backend names accepted by Open
const (
	BackendJSON     = "json"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Collectible is one orb or fragment that has been picked up
type Collectible struct {
	LevelID     string          `json:"level_id"`
	Kind        engine.TileType `json:"kind"`
	Position    engine.Position `json:"position"`
	CollectedAt time.Time       `json:"collected_at"`
}

// Store defines the interface for progress persistence
type Store interface {
	engine.CollectibleRecorder
	Collected(levelID string) ([]Collectible, error)
	Reset(levelID string) error
	Close() error
}

// Open picks a backend by name. path is the JSON file, dsn the Postgres
// connection string.
func Open(backend, path, dsn string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path)
	case BackendPostgres:
		return NewPostgresStore(dsn)
	case BackendMemory:
		return NewJSONStore("")
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
