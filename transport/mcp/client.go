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
	"github.com/wricardo/courtqueue/game/engine"
	"github.com/wricardo/courtqueue/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// APIError is a non-2xx response from the REST API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Court Queue",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Court Queue - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each play area (a court or table) has a queue of waiting teams and up to two
teams on the court. Teams are referenced by the id returned when they are added.

AVAILABLE TOOLS:
- list_areas: List areas that have a session
- get_queue: Get (and create if missing) an area's session
- configure_area: Set the rotation mode (winner-stays-on or classic)
- add_team: Add a team to the back of the queue
- remove_team: Remove a team from the queue or the court
- reorder_queue: Replace the queue order with a list of team ids
- start_game: Move the two longest-waiting teams onto the court
- record_result: Finish the current game
- update_score: Set the live score
- rotation_rules: Explain the rotation modes

NOTE: Sessions are cleared every night, so ids do not survive a reset.`),
	)

	// Register all tools
	c.registerTools()
}

func areaProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Area identifier, e.g. court-1",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Areas
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_areas",
		Description: "List all areas that currently have a session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListAreas)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_queue",
		Description: "Get an area's mode, queue, teams in play and score. Creates an empty session when the area is new.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
			},
			Required: []string{"area"},
		},
	}, c.handleGetQueue)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "configure_area",
		Description: "Set an area's rotation mode, keeping its teams",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(engine.ModeWinnerStaysOn), string(engine.ModeClassic)},
					"description": "Rotation mode",
				},
			},
			Required: []string{"area", "mode"},
		},
	}, c.handleConfigure)

	// Queue operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_team",
		Description: "Add a team to the back of an area's queue. Names are unique per area.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Team name",
				},
			},
			Required: []string{"area", "name"},
		},
	}, c.handleAddTeam)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_team",
		Description: "Remove a team from the queue or the court",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
				"team_id": map[string]interface{}{
					"type":        "string",
					"description": "Team ID",
				},
			},
			Required: []string{"area", "team_id"},
		},
	}, c.handleRemoveTeam)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reorder_queue",
		Description: "Replace the queue order. Pass every queued team id in the new order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
				"team_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Queued team ids, front of the queue first",
				},
			},
			Required: []string{"area", "team_ids"},
		},
	}, c.handleReorder)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Move the two longest-waiting teams onto the court and reset the score",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
			},
			Required: []string{"area"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "record_result",
		Description: "Finish the current game. Winner-stays-on needs winner and loser ids unless both_lose is set; classic only accepts both_lose.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
				"winner": map[string]interface{}{
					"type":        "string",
					"description": "Winning team id",
				},
				"loser": map[string]interface{}{
					"type":        "string",
					"description": "Losing team id",
				},
				"both_lose": map[string]interface{}{
					"type":        "boolean",
					"description": "Send both teams back to the queue",
				},
			},
			Required: []string{"area"},
		},
	}, c.handleRecordResult)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "update_score",
		Description: "Set the live score. Omitted sides are left unchanged; negative or non-numeric values become 0.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"area": areaProperty(),
				"team1": map[string]interface{}{
					"type":        "number",
					"description": "Score of the first team in play",
				},
				"team2": map[string]interface{}{
					"type":        "number",
					"description": "Score of the second team in play",
				},
			},
			Required: []string{"area"},
		},
	}, c.handleUpdateScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rotation_rules",
		Description: "Explain how the rotation modes move teams between the queue and the court",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRotationRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
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
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		apiErr := &APIError{Status: resp.StatusCode, Code: errResp["code"], Message: errResp["error"]}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func queuePath(area string, parts ...string) string {
	p := "/api/queue/" + url.PathEscape(area)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func requireArea(args map[string]interface{}) (string, *mcp.CallToolResult) {
	area, _ := args["area"].(string)
	if area == "" {
		return "", mcp.NewToolResultError("area is required")
	}
	return area, nil
}

// sessionCall performs a request that answers with a session and renders it
func (c *Client) sessionCall(ctx context.Context, method, path string, body interface{}, header string) (*mcp.CallToolResult, error) {
	var session engine.Session
	if err := c.apiCall(ctx, method, path, body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(header + formatSession(&session)), nil
}

// Tool handlers

func (c *Client) handleListAreas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var areas []string
	if err := c.apiCall(ctx, http.MethodGet, "/api/areas", nil, &areas); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(areas) == 0 {
		return mcp.NewToolResultText("No areas yet.\n"), nil
	}

	result := fmt.Sprintf("Areas (%d):\n", len(areas))
	for _, a := range areas {
		result += fmt.Sprintf("- %s\n", a)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	area, errResult := requireArea(arguments(request))
	if errResult != nil {
		return errResult, nil
	}
	return c.sessionCall(ctx, http.MethodGet, queuePath(area), nil, fmt.Sprintf("Area %s\n", area))
}

func (c *Client) handleConfigure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	area, errResult := requireArea(args)
	if errResult != nil {
		return errResult, nil
	}
	mode, _ := args["mode"].(string)

	return c.sessionCall(ctx, http.MethodPost, queuePath(area), map[string]string{"mode": mode},
		fmt.Sprintf("Area %s configured\n", area))
}

func (c *Client) handleAddTeam(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	area, errResult := requireArea(args)
	if errResult != nil {
		return errResult, nil
	}
	name, _ := args["name"].(string)

	return c.sessionCall(ctx, http.MethodPost, queuePath(area, "teams"), map[string]string{"name": name},
		fmt.Sprintf("Added %s\n", strings.TrimSpace(name)))
}

func (c *Client) handleRemoveTeam(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	area, errResult := requireArea(args)
	if errResult != nil {
		return errResult, nil
	}
	teamID, _ := args["team_id"].(string)
	if teamID == "" {
		return mcp.NewToolResultError("team_id is required"), nil
	}

	return c.sessionCall(ctx, http.MethodDelete, queuePath(area, "teams", teamID), nil,
		fmt.Sprintf("Removed %s\n", teamID))
}

func (c *Client) handleReorder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	area, errResult := requireArea(args)
	if errResult != nil {
		return errResult, nil
	}

	rawIDs, ok := args["team_ids"].([]interface{})
	if !ok {
		return mcp.NewToolResultError("team_ids must be an array of team ids"), nil
	}

	// the API takes whole team objects, so names are looked up first
	var current engine.Session
	if err := c.apiCall(ctx, http.MethodGet, queuePath(area), nil, &current); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	order := make([]engine.Team, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, _ := raw.(string)
		team, found := current.FindQueued(id)
		if !found {
			team = engine.Team{ID: id}
		}
		order = append(order, team)
	}

	var result service.ReorderResult
	if err := c.apiCall(ctx, http.MethodPost, queuePath(area, "reorder"), map[string]interface{}{"teams": order}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Queue reordered (%d teams):\n", len(result.Teams))
	text += formatTeams(result.Teams)
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	area, errResult := requireArea(arguments(request))
	if errResult != nil {
		return errResult, nil
	}
	return c.sessionCall(ctx, http.MethodPost, queuePath(area, "start-game"), map[string]string{}, "Game started\n")
}

func (c *Client) handleRecordResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	area, errResult := requireArea(args)
	if errResult != nil {
		return errResult, nil
	}

	body := service.GameResult{}
	body.Winner, _ = args["winner"].(string)
	body.Loser, _ = args["loser"].(string)
	body.BothLose, _ = args["both_lose"].(bool)

	return c.sessionCall(ctx, http.MethodPost, queuePath(area, "game-result"), body, "Result recorded\n")
}

func (c *Client) handleUpdateScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	area, errResult := requireArea(args)
	if errResult != nil {
		return errResult, nil
	}

	body := map[string]interface{}{}
	for _, key := range []string{"team1", "team2"} {
		if v, ok := args[key]; ok && v != nil {
			body[key] = v
		}
	}

	return c.sessionCall(ctx, http.MethodPost, queuePath(area, "score"), body, "Score updated\n")
}

func (c *Client) handleRotationRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rules := `ROTATION RULES

An area must be configured with a mode before a result can be recorded.
start_game needs at least two queued teams and an empty court; it moves the
two longest-waiting teams onto the court and resets the score to 0-0.

WINNER-STAYS-ON:
- record_result with winner and loser: the winner stays, the loser goes to
  the back of the queue, and the front of the queue steps onto the court.
- record_result with both_lose: both teams go to the back of the queue
  (first team in play first) and the next two queued teams step on.

CLASSIC:
- Only both_lose is accepted. Both teams return to the queue, the court is
  left empty and the score resets. Call start_game for the next game.

OTHER NOTES:
- Team names are unique per area, ignoring surrounding whitespace.
- Removing a team that is in play leaves its court slot empty.
- Changing the mode does not end a game in progress.
- Scores below 0 or that are not numbers are stored as 0.
`
	return mcp.NewToolResultText(rules), nil
}

// Formatting helpers

func formatTeams(teams []engine.Team) string {
	if len(teams) == 0 {
		return "  (none)\n"
	}
	var b strings.Builder
	for i, t := range teams {
		fmt.Fprintf(&b, "  %d. %s [%s]\n", i+1, t.Name, t.ID)
	}
	return b.String()
}

func formatSession(s *engine.Session) string {
	var b strings.Builder

	mode := "not set"
	if s.Mode != engine.ModeUnset {
		mode = string(s.Mode)
	}
	fmt.Fprintf(&b, "Mode: %s\n", mode)

	switch len(s.InPlay) {
	case 0:
		b.WriteString("Court: empty\n")
	case 1:
		fmt.Fprintf(&b, "Court: %s [%s] waiting for an opponent\n", s.InPlay[0].Name, s.InPlay[0].ID)
	default:
		fmt.Fprintf(&b, "Court: %s [%s] vs %s [%s]\n", s.InPlay[0].Name, s.InPlay[0].ID, s.InPlay[1].Name, s.InPlay[1].ID)
		fmt.Fprintf(&b, "Score: %d - %d\n", s.Score.Team1, s.Score.Team2)
	}

	fmt.Fprintf(&b, "Queue (%d):\n", len(s.Queue))
	b.WriteString(formatTeams(s.Queue))
	return b.String()
}
