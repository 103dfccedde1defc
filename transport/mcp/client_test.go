package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/slidepuzzle/api"
	"github.com/wricardo/slidepuzzle/game/engine"
	"github.com/wricardo/slidepuzzle/game/levels"
	"github.com/wricardo/slidepuzzle/game/service"
	"github.com/wricardo/slidepuzzle/game/session"
)

func corridor(name string, length int, next string) *engine.Level {
	return &engine.Level{
		LevelName: name,
		NextLevel: next,
		Tiles: engine.LevelTiles{
			ObjectTiles: []engine.TileData{
				{Type: "box", Directions: engine.AllowsAll(), Position: engine.TilePosition{X: 0, Y: 0}},
			},
			OverlapTiles: []engine.TileData{
				{Type: "area", Position: engine.TilePosition{X: length, Y: 0}},
			},
		},
	}
}

// newTestClient runs the REST API over a level directory and returns a
// client pointed at it
func newTestClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	for name, level := range map[string]*engine.Level{
		"level-1.json": corridor("First", 2, "level-2"),
		"level-2.json": corridor("Second", 1, ""),
	} {
		data, err := levels.Encode(level, ".json")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
	}

	levelManager, err := levels.NewManager(dir)
	require.NoError(t, err)
	svc := service.NewGameService(session.NewManager(), levelManager)

	srv := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "text content")
	return text.Text, result.IsError
}

var sessionRE = regexp.MustCompile(`Session: (\S+)`)

func createSession(t *testing.T, c *Client) string {
	t.Helper()
	text, isErr := call(t, c.handleCreateSession, "create_session", map[string]any{})
	require.False(t, isErr, text)
	m := sessionRE.FindStringSubmatch(text)
	require.Len(t, m, 2, text)
	return m[1]
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
	assert.NotNil(t, client.HTTPHandler())
}

func TestToolsList(t *testing.T) {
	client := NewClient("http://localhost:8080")
	srv := client.GetMCPServer()
	ctx := context.Background()

	srv.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`))
	resp := srv.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	var names []string
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"create_session", "list_sessions", "get_session", "game_state",
		"move", "bulk_move", "undo", "reset_game", "jump_level",
		"place_tile", "remove_tile", "editor_undo", "export_level",
		"list_levels", "describe_cell", "game_instructions",
	}, names)
}

func TestClient_apiCall(t *testing.T) {
	t.Run("decodes the result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			json.NewEncoder(w).Encode(map[string]string{"id": "abc"})
		}))
		defer server.Close()

		var out map[string]string
		require.NoError(t, NewClient(server.URL).apiCall(context.Background(), "POST", "/api", map[string]int{"x": 1}, &out))
		assert.Equal(t, "abc", out["id"])
	})

	t.Run("surfaces the API error message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"error": "session not found", "code": 404})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		assert.EqualError(t, err, "session not found")
	})

	t.Run("status without body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		assert.EqualError(t, err, "API error: 500")
	})

	t.Run("unreachable server", func(t *testing.T) {
		err := NewClient("http://127.0.0.1:1").apiCall(context.Background(), "GET", "/api", nil, nil)
		assert.Error(t, err)
	})
}

func TestPlayTools(t *testing.T) {
	client := newTestClient(t)
	id := createSession(t, client)

	t.Run("game state", func(t *testing.T) {
		text, isErr := call(t, client.handleGameState, "game_state", map[string]any{"session_id": id})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Level: First (level-1)")
		assert.Contains(t, text, "B._")
	})

	t.Run("move", func(t *testing.T) {
		text, isErr := call(t, client.handleMove, "move", map[string]any{
			"session_id": id, "direction": "right", "intent": "approach the goal",
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "✓ Moved")
		assert.Contains(t, text, ".B_")
	})

	t.Run("undo", func(t *testing.T) {
		text, isErr := call(t, client.handleUndo, "undo", map[string]any{"session_id": id})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Undid the last move")

		text, _ = call(t, client.handleUndo, "undo", map[string]any{"session_id": id})
		assert.Contains(t, text, "Nothing to undo")
	})

	t.Run("bulk move crosses into the next level", func(t *testing.T) {
		text, isErr := call(t, client.handleBulkMove, "bulk_move", map[string]any{
			"session_id": id, "moves": []any{"right", "right", "right"},
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Applied 2 of 3 moves")
		assert.Contains(t, text, "level changed")
		assert.Contains(t, text, "Level level-1 solved (normal), now playing level-2")
	})

	t.Run("reset and jump", func(t *testing.T) {
		text, isErr := call(t, client.handleJumpLevel, "jump_level", map[string]any{"session_id": id, "level_id": "level-1"})
		require.False(t, isErr, text)
		assert.Contains(t, text, "(level-1)")

		text, isErr = call(t, client.handleReset, "reset_game", map[string]any{"session_id": id})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Level reset")
	})

	t.Run("errors are tool errors", func(t *testing.T) {
		tests := []struct {
			name string
			args map[string]any
		}{
			{name: "missing session", args: map[string]any{"direction": "up"}},
			{name: "unknown session", args: map[string]any{"session_id": "ghost", "direction": "up"}},
			{name: "bad direction", args: map[string]any{"session_id": id, "direction": "north"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, isErr := call(t, client.handleMove, "move", tt.args)
				assert.True(t, isErr)
			})
		}
	})
}

func TestSessionTools(t *testing.T) {
	client := newTestClient(t)
	id := createSession(t, client)

	text, isErr := call(t, client.handleGetSession, "get_session", map[string]any{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Level: level-1")

	text, isErr = call(t, client.handleListSessions, "list_sessions", map[string]any{"limit": 5})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Active sessions: 1 of 1")
	assert.Contains(t, text, id)

	text, isErr = call(t, client.handleCreateSession, "create_session", map[string]any{"level_id": "nope"})
	assert.True(t, isErr, text)
}

func TestEditorTools(t *testing.T) {
	client := newTestClient(t)
	id := createSession(t, client)

	text, isErr := call(t, client.handlePlaceTile, "place_tile", map[string]any{
		"session_id": id, "type": "wall", "x": 1, "y": 0,
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Placed wall at (1,0)")
	assert.Contains(t, text, "B#_")

	text, isErr = call(t, client.handleDescribeCell, "describe_cell", map[string]any{"session_id": id, "x": 0, "y": 0})
	require.False(t, isErr, text)
	assert.Contains(t, text, "object: box (B) directions=up,down,left,right")

	text, isErr = call(t, client.handleDescribeCell, "describe_cell", map[string]any{"session_id": id, "x": 9, "y": 9})
	assert.True(t, isErr, text)

	text, isErr = call(t, client.handleEditorUndo, "editor_undo", map[string]any{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Reverted the last edit")

	text, isErr = call(t, client.handlePlaceTile, "place_tile", map[string]any{
		"session_id": id, "type": "box", "x": 1, "y": 0, "directions": []any{"left"},
	})
	require.False(t, isErr, text)

	text, isErr = call(t, client.handleRemoveTile, "remove_tile", map[string]any{"session_id": id, "x": 1, "y": 0})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Removed box at (1,0)")

	text, isErr = call(t, client.handlePlaceTile, "place_tile", map[string]any{
		"session_id": id, "type": "dragon", "x": 1, "y": 0,
	})
	assert.True(t, isErr, text)

	text, isErr = call(t, client.handleExportLevel, "export_level", map[string]any{"session_id": id, "level_id": "mine"})
	require.False(t, isErr, text)
	assert.Equal(t, "Exported level mine", text)

	text, isErr = call(t, client.handleListLevels, "list_levels", map[string]any{})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Available levels: 3")
	assert.Contains(t, text, "level-1: First (pieces=1, goals=1, next=level-2)")
}

func TestGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")
	text, isErr := call(t, client.handleGameInstructions, "game_instructions", nil)
	require.False(t, isErr)
	assert.Contains(t, text, "SLIDE PUZZLE RULES")
	assert.Contains(t, text, "# wall")
	assert.Contains(t, text, ". empty")
}

func TestFormatDirections(t *testing.T) {
	assert.Equal(t, "up,down,left,right", formatDirections(engine.AllowsAll()))
	assert.Equal(t, "none,(not pushable)", formatDirections(engine.Directions{}))
}
