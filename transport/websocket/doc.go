// Package websocket provides WebSocket transport for the slide puzzle server.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a read and a
// write goroutine; only the hub's Run loop touches the client registry.
//
// Message Protocol:
//
// Messages are JSON-encoded, one document per frame:
//   - Incoming: {"action": "move", "direction": "up"}, {"action": "undo"}, {"action": "reset"}
//   - Outgoing: {"session_id": "...", "event": "state_update"|"tick", "game_state": {...}, "events": [...]}
//
// Clients pick their session with the URL (/ws?session=abc12345). Updates
// go only to clients of the same session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.OnCommand(handleCommand)
//	go hub.Run(ctx)
//
//	hub.BroadcastEvents(sessionID, result.Events, result.GameState)
package websocket
