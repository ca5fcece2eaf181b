package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
)

const instructions = `Tiles - MCP Interface

Every tool is forwarded to the tiles REST API.

Slide numbered tiles on a square board. Equal neighbours merge into their sum.
Build the biggest tile you can before the board locks up.

Start with create_session, look before you leap with preview_moves, then
move or bulk_move. game_instructions has the full rules.

The 'intent' argument on move and bulk_move is not sent anywhere: use it to
say why you chose the move.`

// Client exposes the REST API as MCP tools
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		mcpServer: server.NewMCPServer("Tiles", "1.0.0",
			server.WithToolCapabilities(true),
			server.WithInstructions(instructions),
		),
	}
	c.registerTools()
	return c
}

// GetMCPServer returns the server to hand to a transport
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// textTool produces the text of a tool result. Errors become tool errors
// the model can read, not protocol errors.
type textTool func(ctx context.Context, req mcp.CallToolRequest) (string, error)

func textResult(fn textTool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := fn(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func directionNames() []string {
	names := make([]string, len(engine.Directions))
	for i, d := range engine.Directions {
		names[i] = string(d)
	}
	return names
}

func (c *Client) registerTools() {
	session := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
	reset := mcp.WithBoolean("reset", mcp.Description("Start a fresh board before moving"))
	intent := mcp.WithString("intent", mcp.Description("Why you are making this move; not sent to the server"))

	tools := []struct {
		tool mcp.Tool
		run  textTool
	}{
		{mcp.NewTool("create_session",
			mcp.WithDescription("Create a new game session"),
			mcp.WithString("config_name", mcp.Description("Configuration ID, e.g. classic, big or tiny; default when empty")),
		), c.createSession},
		{mcp.NewTool("list_sessions",
			mcp.WithDescription("List active sessions, most recently used first"),
			mcp.WithReadOnlyHintAnnotation(true),
		), c.listSessions},
		{mcp.NewTool("get_session",
			mcp.WithDescription("Show a session and its board"),
			mcp.WithReadOnlyHintAnnotation(true),
			session,
		), c.getSession},
		{mcp.NewTool("game_state",
			mcp.WithDescription("Show the current board and which directions would change it"),
			mcp.WithReadOnlyHintAnnotation(true),
			session,
		), c.gameState},
		{mcp.NewTool("move",
			mcp.WithDescription("Slide every tile in one direction"),
			session,
			mcp.WithString("direction", mcp.Required(), mcp.Enum(directionNames()...), mcp.Description("Direction to slide")),
			intent,
			reset,
		), c.move},
		{mcp.NewTool("bulk_move",
			mcp.WithDescription(fmt.Sprintf("Play up to %d moves in order; stops early when the board is stuck", engine.MaxBulkMoves)),
			session,
			mcp.WithArray("moves", mcp.Required(), mcp.Description("Directions to play"),
				mcp.Items(map[string]interface{}{"type": "string", "enum": directionNames()})),
			intent,
			reset,
		), c.bulkMove},
		{mcp.NewTool("preview_moves",
			mcp.WithDescription("Show the board each direction would produce, before any new tile spawns. Nothing is changed."),
			mcp.WithReadOnlyHintAnnotation(true),
			session,
		), c.previewMoves},
		{mcp.NewTool("reset_game",
			mcp.WithDescription("Start a fresh board with the same configuration; history is kept"),
			session,
		), c.resetGame},
		{mcp.NewTool("move_history",
			mcp.WithDescription("Page through past moves, newest first, plus the moves since the last reset"),
			mcp.WithReadOnlyHintAnnotation(true),
			session,
			mcp.WithNumber("page", mcp.Description("Page number, from 1")),
			mcp.WithNumber("limit", mcp.Description("Moves per page")),
		), c.moveHistory},
		{mcp.NewTool("list_configs",
			mcp.WithDescription("List the available board configurations"),
			mcp.WithReadOnlyHintAnnotation(true),
		), c.listConfigs},
		{mcp.NewTool("game_instructions",
			mcp.WithDescription("Rules, board notation and strategy hints"),
			mcp.WithReadOnlyHintAnnotation(true),
		), c.gameInstructions},
	}

	for _, t := range tools {
		c.mcpServer.AddTool(t.tool, textResult(t.run))
	}
}

// apiCall sends body as JSON and decodes the response into out when non-nil.
// Error responses surface the API's "error" field when there is one.
func (c *Client) apiCall(ctx context.Context, method, path string, body, out interface{}) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
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
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sessionPath(req mcp.CallToolRequest, suffix string) string {
	return "/api/sessions/" + url.PathEscape(req.GetString("session_id", "")) + suffix
}

func (c *Client) createSession(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	body := map[string]string{}
	if name := req.GetString("config_name", ""); name != "" {
		body["config_id"] = name
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", info.ID, info.ConfigName, formatGameState(info.GameState)), nil
}

func (c *Client) listSessions(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	var list struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &list); err != nil {
		return "", err
	}
	return formatSessionList(list.Count, list.Sessions), nil
}

func (c *Client) getSession(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	var info service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(req, ""), nil, &info); err != nil {
		return "", err
	}
	return formatSessionInfo(&info), nil
}

func (c *Client) gameState(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(req, "/state"), nil, &state); err != nil {
		return "", err
	}
	return formatGameState(&state), nil
}

func (c *Client) move(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	body := map[string]interface{}{
		"direction": req.GetString("direction", ""),
		"reset":     req.GetBool("reset", false),
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(req, "/move"), body, &result); err != nil {
		return "", err
	}
	return formatMoveResult(&result), nil
}

// bulkMove forwards the string entries of "moves"; anything else is skipped.
func (c *Client) bulkMove(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	raw, _ := req.GetArguments()["moves"].([]interface{})
	moves := make([]string, 0, len(raw))
	for _, m := range raw {
		if dir, ok := m.(string); ok {
			moves = append(moves, dir)
		}
	}
	body := map[string]interface{}{"moves": moves, "reset": req.GetBool("reset", false)}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(req, "/bulk-move"), body, &result); err != nil {
		return "", err
	}
	return formatBulkMoveResult(req.GetString("session_id", ""), &result), nil
}

func (c *Client) previewMoves(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	var preview service.PreviewResult
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(req, "/preview"), nil, &preview); err != nil {
		return "", err
	}
	return formatPreview(&preview), nil
}

func (c *Client) resetGame(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	var reply struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(req, "/reset"), nil, &reply); err != nil {
		return "", err
	}
	return reply.Message + "\n\n" + formatGameState(reply.State), nil
}

// moveHistory prints the requested page and, when the session can be read,
// the moves since the last reset.
func (c *Client) moveHistory(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	query := url.Values{}
	if page := req.GetInt("page", 0); page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit := req.GetInt("limit", 0); limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(req, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return "", err
	}

	out := formatHistory(&history)
	var info service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(req, ""), nil, &info); err == nil {
		out += "\n" + formatCurrentSegment(info.GameState)
	}
	return out, nil
}

func (c *Client) listConfigs(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return "", err
	}
	return formatConfigs(configs), nil
}

func (c *Client) gameInstructions(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	return rules, nil
}
