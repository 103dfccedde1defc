package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/slidepuzzle/game/engine"
	"github.com/wricardo/slidepuzzle/game/render"
	"github.com/wricardo/slidepuzzle/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

var directionEnum = []string{"up", "down", "left", "right"}

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	log        *logrus.Entry
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: logrus.WithField("component", "mcp"),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Slide Puzzle",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(`Slide Puzzle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Every movable piece moves together in the chosen direction. Cover every goal
area with a piece to solve the level; solving loads the next level.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: session management
- game_state: current grid and status
- move / bulk_move: play (bulk_move stops on a level change)
- undo / reset_game / jump_level: navigation
- place_tile / remove_tile / editor_undo / export_level: level editing
- list_levels: available levels
- describe_cell: every tile stacked on one cell
- game_instructions: rules and glyph legend`),
	)

	c.registerTools()
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session, optionally on a given level"),
		mcp.WithString("level_id", mcp.Description("Level to start on (defaults to the first level)")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List active game sessions, most recently used first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to list")),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionArg(),
	), c.handleGetSession)

	// Play
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get the current game state with the grid drawn as text"),
		sessionArg(),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("move",
		mcp.WithDescription("Move every piece one step in a direction"),
		sessionArg(),
		mcp.WithString("direction", mcp.Required(), mcp.Enum(directionEnum...), mcp.Description("Direction to move")),
		mcp.WithString("intent", mcp.Description("Brief explanation of the intent behind this move")),
	), c.handleMove)

	c.mcpServer.AddTool(mcp.NewTool("bulk_move",
		mcp.WithDescription(fmt.Sprintf("Execute up to %d moves in sequence", service.MaxBulkMoves)),
		sessionArg(),
		mcp.WithArray("moves", mcp.Required(), mcp.WithStringItems(mcp.Enum(directionEnum...)), mcp.Description("Directions in order")),
		mcp.WithString("intent", mcp.Description("Brief explanation of the intent behind this sequence")),
	), c.handleBulkMove)

	c.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last move that changed the board"),
		sessionArg(),
	), c.handleUndo)

	c.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Reload the current level from its definition"),
		sessionArg(),
	), c.handleReset)

	c.mcpServer.AddTool(mcp.NewTool("jump_level",
		mcp.WithDescription("Load another level into the session"),
		sessionArg(),
		mcp.WithString("level_id", mcp.Required(), mcp.Description("Level to load")),
	), c.handleJumpLevel)

	// Editor
	c.mcpServer.AddTool(mcp.NewTool("place_tile",
		mcp.WithDescription("Place a tile on the grid, replacing whatever occupies its layer"),
		sessionArg(),
		mcp.WithString("type", mcp.Required(), mcp.Description("Tile type, e.g. wall, box, area, orb")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row")),
		mcp.WithArray("directions", mcp.WithStringItems(mcp.Enum(directionEnum...)),
			mcp.Description("Directions a movable piece may travel (defaults to all four)")),
		mcp.WithString("text", mcp.Description("Payload for level and npc tiles")),
	), c.handlePlaceTile)

	c.mcpServer.AddTool(mcp.NewTool("remove_tile",
		mcp.WithDescription("Remove the top-most tile at a cell"),
		sessionArg(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row")),
	), c.handleRemoveTile)

	c.mcpServer.AddTool(mcp.NewTool("editor_undo",
		mcp.WithDescription("Revert the last editor change"),
		sessionArg(),
	), c.handleEditorUndo)

	c.mcpServer.AddTool(mcp.NewTool("export_level",
		mcp.WithDescription("Save the current grid as a level file"),
		sessionArg(),
		mcp.WithString("level_id", mcp.Description("Level id to write (generated when empty)")),
	), c.handleExportLevel)

	// Levels and help
	c.mcpServer.AddTool(mcp.NewTool("list_levels",
		mcp.WithDescription("List available levels"),
	), c.handleListLevels)

	c.mcpServer.AddTool(mcp.NewTool("describe_cell",
		mcp.WithDescription("List every tile stacked on a cell"),
		sessionArg(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row")),
	), c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Rules of the puzzle and the glyph legend used in grids"),
	), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves the tools over streamable HTTP
func (c *Client) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(c.mcpServer)
}

// ServeStdio serves the tools over stdin/stdout until the input closes
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(id string, parts ...string) string {
	return "/api/sessions/" + url.PathEscape(id) + strings.Join(parts, "")
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if levelID := request.GetString("level_id", ""); levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Created " + formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/sessions"
	if limit := request.GetInt("limit", 0); limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Count    int                   `json:"count"`
		Total    int                   `json:"total"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active sessions: %d of %d\n\n", response.Count, response.Total)
	for _, s := range response.Sessions {
		moves := 0
		if s.GameState != nil {
			moves = s.GameState.MoveCount
		}
		fmt.Fprintf(&sb, "- %s level=%s moves=%d last=%s\n",
			s.ID, s.LevelID, moves, s.LastAccessedAt.Format("2006-01-02 15:04:05"))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := c.fetchState(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render.Text(state)), nil
}

func (c *Client) fetchState(ctx context.Context, request mcp.CallToolRequest) (*engine.GameState, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return nil, err
	}
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, err := request.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.logIntent(sessionID, request)

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	moves, err := request.RequireStringSlice("moves")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.logIntent(sessionID, request)

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), map[string][]string{"moves": moves}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkMoveResult(&result)), nil
}

func (c *Client) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.undoCall(ctx, request, "/undo", "Undid the last move", "Nothing to undo")
}

func (c *Client) handleEditorUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.undoCall(ctx, request, "/editor/undo", "Reverted the last edit", "No edit to revert")
}

func (c *Client) undoCall(ctx context.Context, request mcp.CallToolRequest, path, done, noop string) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.UndoResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, path), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := noop
	if result.Undone {
		msg = done
	}
	return mcp.NewToolResultText(msg + "\n\n" + render.Text(result.GameState)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		State *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Level reset\n\n" + render.Text(response.State)), nil
}

func (c *Client) handleJumpLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	levelID, err := request.RequireString("level_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/level"), map[string]string{"level_id": levelID}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render.Text(&state)), nil
}

func (c *Client) handlePlaceTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tileType, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, y, err := requireCell(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dirs := engine.AllowsAll()
	if names := request.GetStringSlice("directions", nil); len(names) > 0 {
		dirs = engine.Directions{Pushable: true}
		for _, name := range names {
			d, err := engine.ParseDirection(name)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			dirs.Set(d, true)
		}
	}

	req := service.PlaceTileRequest{
		Type:       tileType,
		X:          x,
		Y:          y,
		Directions: dirs,
		Text:       request.GetString("text", ""),
	}
	var result service.EditResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/tiles"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Placed %s at (%d,%d)\n\n%s", tileType, x, y, render.Text(result.GameState))), nil
}

func (c *Client) handleRemoveTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, y, err := requireCell(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.EditResult
	path := sessionPath(sessionID, fmt.Sprintf("/tiles/%d/%d", x, y))
	if err := c.apiCall(ctx, "DELETE", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	removed := "tile"
	if result.Tile != nil {
		removed = string(result.Tile.Type)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %s at (%d,%d)\n\n%s", removed, x, y, render.Text(result.GameState))), nil
}

func (c *Client) handleExportLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{}
	if levelID := request.GetString("level_id", ""); levelID != "" {
		body["level_id"] = levelID
	}
	var result service.ExportResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/export"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Exported level %s", result.LevelID)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var list []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &list); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available levels: %d\n\n", len(list))
	for _, l := range list {
		fmt.Fprintf(&sb, "- %s: %s (pieces=%d, goals=%d", l.LevelID, l.Name, l.Objects, l.Areas)
		if l.NextLevel != "" {
			fmt.Fprintf(&sb, ", next=%s", l.NextLevel)
		}
		sb.WriteString(")\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, y, err := requireCell(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := c.fetchState(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !state.Bounds.Contains(engine.Position{X: x, Y: y}) {
		b := state.Bounds
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds (%d,%d)-(%d,%d)",
			x, y, b.MinX, b.MinY, b.MaxX, b.MaxY)), nil
	}
	return mcp.NewToolResultText(describeCell(state, x, y)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString(`SLIDE PUZZLE RULES

Every move shifts all movable pieces in the chosen direction during the
same tick. A piece only responds to directions it allows, walls and the
level edge stop it, and a piece moving into a pushable one pushes it along
when the whole chain can move.

PIECES
- box: moves one cell
- circle: jumps ahead to the next open cell
- hexagon: moves two cells per step, one when pushed
- mimic: moves opposite to the input

GOALS
- area: must be covered by a piece
- inverse_area: must stay empty
- outbound_area: covering every one of them wins before anything else
Covering every area solves the level and loads the next one. Leaving the
areas empty while every piece rests on an inverse_area solves the remix
variant when the level has one.

EFFECTS
- invert: flips the allowed directions of the piece stepping on it
- arrow / negative_arrow: hand a direction to or take one from the piece
- orb / fragment: collected once, stays collected across sessions
- pull: drags the piece one cell back
- level: moves to the level named in its text
- npc / fake: show dialog

HAZARDS
hazard destroys pieces that land on it; void does too and disappears.

TIPS
- undo keeps the last 100 moves that changed the board.
- bulk_move stops early when the level changes.
- describe_cell shows every layer of a cell when the grid is ambiguous.

LEGEND
`)
	for _, line := range render.Legend() {
		sb.WriteString(line + "\n")
	}
	fmt.Fprintf(&sb, "%c empty\n", render.Empty)
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) logIntent(sessionID string, request mcp.CallToolRequest) {
	if intent := request.GetString("intent", ""); intent != "" {
		c.log.WithFields(logrus.Fields{"session": sessionID, "tool": request.Params.Name}).Info(intent)
	}
}

func requireCell(request mcp.CallToolRequest) (int, int, error) {
	x, err := request.RequireInt("x")
	if err != nil {
		return 0, 0, err
	}
	y, err := request.RequireInt("y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, session.LevelID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		render.Text(session.GameState))
}

func formatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder
	switch {
	case result.Moved:
		sb.WriteString("✓ Moved\n")
	default:
		sb.WriteString("✗ Nothing moved\n")
	}
	if result.Pushed {
		sb.WriteString("Pushed a piece\n")
	}
	writeEvents(&sb, result.Events)
	writeTransition(&sb, result.Transition)

	sb.WriteString("\n" + render.Text(result.GameState))
	return sb.String()
}

func formatBulkMoveResult(result *service.BulkMoveResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Applied %d of %d moves (%d moved pieces)\n",
		result.MovesApplied, result.RequestedMoves, result.MovesMoved)
	if result.Truncated {
		fmt.Fprintf(&sb, "Request truncated to %d moves\n", result.Limit)
	}
	switch result.StoppedReason {
	case "frozen":
		fmt.Fprintf(&sb, "Stopped at move %d: level is frozen\n", result.StoppedOnMove)
	case "level_transition":
		fmt.Fprintf(&sb, "Stopped at move %d: level changed\n", result.StoppedOnMove)
	}
	writeEvents(&sb, result.Events)
	writeTransition(&sb, result.Transition)

	sb.WriteString("\n" + render.Text(result.GameState))
	return sb.String()
}

func writeEvents(sb *strings.Builder, events []engine.Event) {
	if len(events) == 0 {
		return
	}
	sb.WriteString("Events:\n")
	for _, e := range events {
		fmt.Fprintf(sb, "- %s", e.Type)
		if e.TileType != "" {
			fmt.Fprintf(sb, " %s", e.TileType)
		}
		fmt.Fprintf(sb, " at (%d,%d)", e.Position.X, e.Position.Y)
		if e.Text != "" {
			if e.Speaker != "" {
				fmt.Fprintf(sb, " %s:", e.Speaker)
			}
			fmt.Fprintf(sb, " %q", e.Text)
		}
		if e.Target != "" {
			fmt.Fprintf(sb, " -> %s", e.Target)
		}
		sb.WriteByte('\n')
	}
}

func writeTransition(sb *strings.Builder, tr *service.Transition) {
	if tr == nil {
		return
	}
	if tr.Error != "" {
		fmt.Fprintf(sb, "Could not load %s: %s\n", tr.To, tr.Error)
		return
	}
	fmt.Fprintf(sb, "Level %s solved (%s), now playing %s\n", tr.From, tr.Outcome, tr.To)
}

// describeCell lists the tiles of every layer at (x, y)
func describeCell(state *engine.GameState, x, y int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cell (%d,%d)\n", x, y)

	found := false
	for _, layer := range engine.Layers() {
		for _, tile := range state.Layers[layer.String()] {
			if tile.Position.X != x || tile.Position.Y != y {
				continue
			}
			found = true
			fmt.Fprintf(&sb, "- %s: %s (%c)", layer, tile.Type, render.Glyph(engine.TileType(tile.Type)))
			if layer == engine.LayerObject {
				fmt.Fprintf(&sb, " directions=%s", formatDirections(tile.Directions))
			}
			sb.WriteByte('\n')
		}
	}
	for _, info := range state.CustomText {
		if info.Position.X == x && info.Position.Y == y {
			fmt.Fprintf(&sb, "  text: %q\n", info.Text)
		}
	}
	if !found {
		sb.WriteString("- empty\n")
	}
	return sb.String()
}

func formatDirections(d engine.Directions) string {
	var parts []string
	for _, dir := range engine.AllDirections {
		if d.Allows(dir) {
			parts = append(parts, string(dir))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "none")
	}
	if !d.Pushable {
		parts = append(parts, "(not pushable)")
	}
	return strings.Join(parts, ",")
}
