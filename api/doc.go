// Package api provides the HTTP REST API for the puzzle service.
//
// Sessions:
//   - POST   /api/sessions                      create a session ({"level_id": "..."} optional)
//   - GET    /api/sessions                      list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}                 session info with game state
//   - DELETE /api/sessions/{id}                 delete a session
//
// Play:
//   - GET  /api/sessions/{id}/state             current game state
//   - POST /api/sessions/{id}/move              {"direction": "up"}
//   - POST /api/sessions/{id}/bulk-move         {"moves": ["up", "left"]}
//   - POST /api/sessions/{id}/undo              undo one tick
//   - POST /api/sessions/{id}/reset             reload the current level
//   - POST /api/sessions/{id}/level             {"level_id": "..."}
//
// Editor:
//   - POST   /api/sessions/{id}/tiles           place a tile
//   - DELETE /api/sessions/{id}/tiles/{x}/{y}   remove the top-most tile
//   - POST   /api/sessions/{id}/editor/undo     revert the last edit
//   - POST   /api/sessions/{id}/editor/redo     reapply it
//   - POST   /api/sessions/{id}/export          save the grid as a level
//
// Levels:
//   - GET  /api/levels                          list level files
//   - GET  /api/levels/{name}                   level definition
//   - PUT  /api/levels/{name}                   write a level
//   - POST /api/levels                          {"level_id": "...", "level": {...}}
//
// GET /ws?session={id} upgrades to a WebSocket that receives state updates
// and accepts move, undo, reset and state commands.
//
// Errors are returned as {"error": "...", "code": N}.
package api
