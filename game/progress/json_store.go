package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/slidepuzzle/game/engine"
)

// JSONStore keeps progress in a local JSON file. An empty path keeps it in
// memory only.
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	data     *JSONData
}

// JSONData represents the structure of the JSON file
type JSONData struct {
	Levels map[string][]Collectible `json:"levels"`
}

// NewJSONStore creates a new JSON progress store
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data:     &JSONData{Levels: make(map[string][]Collectible)},
	}
	if filePath == "" {
		return store, nil
	}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load progress file: %w", err)
		}
	} else if err := store.saveToFile(); err != nil {
		return nil, fmt.Errorf("failed to create progress file: %w", err)
	}

	return store, nil
}

func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Levels == nil {
		js.data.Levels = make(map[string][]Collectible)
	}
	return nil
}

// saveToFile writes the file; callers hold the lock
func (js *JSONStore) saveToFile() error {
	if js.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(js.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(js.filePath, data, 0644)
}

// RecordCollectible remembers a pickup. Recording twice is harmless.
func (js *JSONStore) RecordCollectible(levelID string, kind engine.TileType, pos engine.Position) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	for _, c := range js.data.Levels[levelID] {
		if c.Kind == kind && c.Position == pos {
			return nil
		}
	}
	js.data.Levels[levelID] = append(js.data.Levels[levelID], Collectible{
		LevelID:     levelID,
		Kind:        kind,
		Position:    pos,
		CollectedAt: time.Now().UTC(),
	})
	if err := js.saveToFile(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// IsCollected reports whether the collectible was picked up before
func (js *JSONStore) IsCollected(levelID string, kind engine.TileType, pos engine.Position) bool {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	for _, c := range js.data.Levels[levelID] {
		if c.Kind == kind && c.Position == pos {
			return true
		}
	}
	return false
}

// Collected lists a level's pickups, oldest first
func (js *JSONStore) Collected(levelID string) ([]Collectible, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	out := append([]Collectible(nil), js.data.Levels[levelID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CollectedAt.Before(out[j].CollectedAt) })
	return out, nil
}

// Reset forgets every pickup of a level
func (js *JSONStore) Reset(levelID string) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	delete(js.data.Levels, levelID)
	if err := js.saveToFile(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Close is a no-op; every change is already on disk
func (js *JSONStore) Close() error {
	return nil
}
