// Package mcp exposes the puzzle to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so agents and browsers share the same sessions. Grids are
// returned as text drawn by the render package.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state, describe_cell, game_instructions
//   - move, bulk_move, undo, reset_game, jump_level
//   - place_tile, remove_tile, editor_undo, export_level
//   - list_levels
//
// Transports:
//
//	client := mcp.NewClient("http://localhost:8080")
//	client.ServeStdio()                        // local agents
//	server.Mount("/mcp", client.HTTPHandler()) // streamable HTTP
package mcp
