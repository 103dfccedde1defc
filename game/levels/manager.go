package levels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/slidepuzzle/game/engine"
	"github.com/wricardo/slidepuzzle/game/service"
)

var (
	ErrLevelNotFound = errors.New("level not found")
	ErrInvalidLevel  = errors.New("invalid level")
)

// DefaultLevelID is tried first when picking the default level
const DefaultLevelID = "level-1"

// extensions are probed in this order when resolving a level id
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultID    string
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
	log          *logrus.Entry
}

// NewManager creates a new level manager
func NewManager(levelDir string) (*Manager, error) {
	// Ensure level directory exists
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.Level),
		log:      logrus.WithField("component", "levels"),
	}

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// LoadLevel loads a level by id. The id is the file name without extension.
func (m *Manager) LoadLevel(id string) (*engine.Level, error) {
	id = trimExtension(id)

	m.mu.RLock()
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level, nil
	}

	path, err := m.resolve(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	level, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	m.levels[id] = level
	m.log.WithFields(logrus.Fields{"level": id, "file": filepath.Base(path)}).Debug("level cached")
	return level, nil
}

// ListLevels returns information about all available levels
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var levels []*service.LevelInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !hasLevelExtension(entry.Name()) {
			continue
		}

		id := trimExtension(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		level, err := m.LoadLevel(id)
		if err != nil {
			// Skip invalid levels
			m.log.WithError(err).WithField("file", entry.Name()).Warn("skipping level")
			continue
		}

		levels = append(levels, Describe(entry.Name(), id, level))
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].LevelID < levels[j].LevelID })
	return levels, nil
}

// GetDefault returns the default level and its id
func (m *Manager) GetDefault() (string, *engine.Level) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID, m.defaultLevel
}

// SetDefault sets the default level by id
func (m *Manager) SetDefault(id string) error {
	level, err := m.LoadLevel(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = trimExtension(id)
	m.defaultLevel = level
	return nil
}

// RefreshCache drops all cached levels and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

// SaveLevel writes a level to disk. An empty id gets a generated one, which
// is returned. The format follows the extension of an existing file with
// the same id, or the extension given in id, defaulting to JSON.
func (m *Manager) SaveLevel(id string, level *engine.Level) (string, error) {
	if err := engine.ValidateLevel(level); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}

	ext := filepath.Ext(id)
	if !hasLevelExtension(id) {
		ext = ".json"
	}
	id = trimExtension(id)
	if id == "" {
		id = NewLevelID()
	}
	if existing, err := m.resolve(id); err == nil {
		ext = filepath.Ext(existing)
	}

	data, err := Encode(level, ext)
	if err != nil {
		return "", err
	}

	path := filepath.Join(m.levelDir, id+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"level": id, "file": filepath.Base(path)}).Info("level saved")
	return id, nil
}

// NewLevelID generates an id for a level exported from the editor
func NewLevelID() string {
	return "custom-" + uuid.NewString()[:8]
}

// Decode parses level data in the format implied by ext and validates it
func Decode(data []byte, ext string) (*engine.Level, error) {
	var level engine.Level
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &level); err != nil {
			return nil, fmt.Errorf("failed to parse level: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &level); err != nil {
			return nil, fmt.Errorf("failed to parse level: %w", err)
		}
	}

	if err := engine.ValidateLevel(&level); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}
	return &level, nil
}

// Encode serialises a level in the format implied by ext
func Encode(level *engine.Level, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(level)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal level: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(level, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal level: %w", err)
		}
		return data, nil
	}
}

// Describe summarises a level for listings
func Describe(filename, id string, level *engine.Level) *service.LevelInfo {
	t := level.Tiles
	areas := 0
	for _, td := range t.OverlapTiles {
		if engine.ParseTileType(td.Type) == engine.Area {
			areas++
		}
	}
	return &service.LevelInfo{
		Filename:   filename,
		LevelID:    id,
		Name:       level.LevelName,
		FreeRoam:   level.FreeRoam,
		NextLevel:  level.NextLevel,
		RemixLevel: level.RemixLevel,
		Objects:    len(t.ObjectTiles),
		Areas:      areas,
	}
}

// resolve finds the file backing a level id
func (m *Manager) resolve(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", ErrLevelNotFound, id)
	}
	for _, ext := range extensions {
		path := filepath.Join(m.levelDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLevelNotFound, id)
}

// loadDefaultLevel loads the default level
func (m *Manager) loadDefaultLevel() error {
	// Try to load level-1 as default
	id := DefaultLevelID
	level, err := m.LoadLevel(id)
	if err != nil {
		// Try to load the first available level
		levels, listErr := m.ListLevels()
		if listErr != nil || len(levels) == 0 {
			m.setDefault("", createMinimalLevel())
			return nil
		}

		id = levels[0].LevelID
		level, err = m.LoadLevel(id)
		if err != nil {
			m.setDefault("", createMinimalLevel())
			return nil
		}
	}

	m.setDefault(id, level)
	return nil
}

func (m *Manager) setDefault(id string, level *engine.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultLevel = level
}

// createMinimalLevel creates a one-box, one-goal level
func createMinimalLevel() *engine.Level {
	box := engine.AllowsAll()
	return &engine.Level{
		LevelName: "default",
		Tiles: engine.LevelTiles{
			ObjectTiles: []engine.TileData{
				{Type: string(engine.Box), Directions: box, Position: engine.TilePosition{X: 1, Y: 1}},
			},
			OverlapTiles: []engine.TileData{
				{Type: string(engine.Area), Position: engine.TilePosition{X: 3, Y: 1}},
			},
		},
		Bounds: &engine.Bounds{MinX: 0, MinY: 0, MaxX: 4, MaxY: 2},
	}
}

func hasLevelExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func trimExtension(name string) string {
	if hasLevelExtension(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
