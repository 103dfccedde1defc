// Package service provides the business logic layer for the slide puzzle server.
//
// The service package implements:
//   - Multi-session play, one simulation per session
//   - Move, bulk move, undo and reset
//   - Editor commands and exporting an edited grid as a level
//   - Following wins and level triggers into the next level
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads, lists and saves level definitions.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the simulation. The engine only announces transitions through events; the
// service performs them by loading the target level into the same session.
// Each Session carries its own lock and every operation holds it while it
// touches the simulation.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.WithProgress(store))
//	levelMgr, _ := levels.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, levelMgr)
//
//	info, err := gameService.CreateSession(ctx, "level-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "right")
package service
