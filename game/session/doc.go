// Package session provides session management for the slide puzzle server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs
//   - Optional file persistence of play in progress
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session owns one engine.Simulation created with the manager's
// simulation options, so every session shares the same collectible store.
//
// Persistence:
//
// FilePersistence writes one JSON file per session holding an
// engine.Snapshot: the level definition, the grid as it stands and the
// move counter. Undo history is not persisted. Sessions missing from memory
// are restored from disk on first access.
//
// Concurrency:
//
// The manager's map is guarded by its own lock. A session's simulation is
// guarded by the session lock, which callers take before Save or
// UpdateLastAccessed. The manager never takes a session lock while holding
// its own.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("sessions")
//	manager := session.NewManagerWithPersistence(persistence, session.WithProgress(store))
//
//	sess, err := manager.Create("", "level-1", level)
//	if err != nil {
//		log.Fatal(err)
//	}
package session
