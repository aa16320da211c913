package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/courtqueue/api"
	"github.com/wricardo/courtqueue/game/engine"
	"github.com/wricardo/courtqueue/game/service"
	"github.com/wricardo/courtqueue/game/session"
)

// newBackend starts a REST API over an in-memory store
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.NewRotationService(session.NewMemoryStore())
	srv := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(srv.Close)
	return srv
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "game already in progress", "code": "game_in_progress"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.apiCall(context.Background(), http.MethodPost, "/api/queue/a/start-game", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != "game_in_progress" {
		t.Errorf("Unexpected error %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "game already in progress") {
		t.Errorf("Expected message in error, got %q", err.Error())
	}
}

func TestClient_apiCall_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall(context.Background(), http.MethodGet, "/api/areas", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	if err := client.apiCall(context.Background(), http.MethodGet, "/api/areas", nil, nil); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestQueuePath(t *testing.T) {
	if got := queuePath("north court", "teams", "a/b"); got != "/api/queue/north%20court/teams/a%2Fb" {
		t.Errorf("Unexpected path %s", got)
	}
}

func TestTools_MissingArea(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	result, err := client.handleStartGame(context.Background(), callTool("start_game", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error for missing area")
	}
}

func TestTools_Rotation(t *testing.T) {
	backend := newBackend(t)
	client := NewClient(backend.URL)
	ctx := context.Background()

	result, _ := client.handleConfigure(ctx, callTool("configure_area", map[string]interface{}{
		"area": "court-1", "mode": "winner-stays-on",
	}))
	if text := resultText(t, result); !strings.Contains(text, "Mode: winner-stays-on") {
		t.Errorf("Expected mode in output, got: %s", text)
	}

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		result, _ = client.handleAddTeam(ctx, callTool("add_team", map[string]interface{}{"area": "court-1", "name": name}))
		if result.IsError {
			t.Fatalf("add_team %s failed: %s", name, resultText(t, result))
		}
	}

	result, _ = client.handleAddTeam(ctx, callTool("add_team", map[string]interface{}{"area": "court-1", "name": "Alpha"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "duplicate_name") {
		t.Errorf("Expected duplicate_name tool error, got: %s", resultText(t, result))
	}

	result, _ = client.handleStartGame(ctx, callTool("start_game", map[string]interface{}{"area": "court-1"}))
	if text := resultText(t, result); !strings.Contains(text, "Alpha") || !strings.Contains(text, " vs ") {
		t.Errorf("Expected game on court, got: %s", text)
	}

	result, _ = client.handleUpdateScore(ctx, callTool("update_score", map[string]interface{}{
		"area": "court-1", "team1": float64(11), "team2": float64(-2),
	}))
	if text := resultText(t, result); !strings.Contains(text, "Score: 11 - 0") {
		t.Errorf("Expected clamped score, got: %s", text)
	}

	var sess engine.Session
	if err := client.apiCall(ctx, http.MethodGet, "/api/queue/court-1", nil, &sess); err != nil {
		t.Fatalf("Failed to fetch session: %v", err)
	}

	result, _ = client.handleRecordResult(ctx, callTool("record_result", map[string]interface{}{
		"area": "court-1", "winner": sess.InPlay[0].ID, "loser": sess.InPlay[1].ID,
	}))
	if text := resultText(t, result); !strings.Contains(text, "Charlie") || !strings.Contains(text, "1. Bravo") {
		t.Errorf("Expected Charlie promoted and Bravo queued, got: %s", text)
	}

	result, _ = client.handleListAreas(ctx, callTool("list_areas", nil))
	if text := resultText(t, result); !strings.Contains(text, "court-1") {
		t.Errorf("Expected area in list, got: %s", text)
	}
}

func TestTools_AreaWithSlash(t *testing.T) {
	backend := newBackend(t)
	client := NewClient(backend.URL)
	ctx := context.Background()
	area := "Court 1/2"

	result, _ := client.handleConfigure(ctx, callTool("configure_area", map[string]interface{}{"area": area, "mode": "classic"}))
	if result.IsError {
		t.Fatalf("configure_area failed: %s", resultText(t, result))
	}
	result, _ = client.handleAddTeam(ctx, callTool("add_team", map[string]interface{}{"area": area, "name": "Alpha"}))
	if text := resultText(t, result); result.IsError || !strings.Contains(text, "1. Alpha") {
		t.Errorf("Expected Alpha queued, got: %s", text)
	}

	result, _ = client.handleListAreas(ctx, callTool("list_areas", nil))
	if text := resultText(t, result); !strings.Contains(text, area) {
		t.Errorf("Expected %q in area list, got: %s", area, text)
	}
}

func TestTools_ReorderAndRemove(t *testing.T) {
	backend := newBackend(t)
	client := NewClient(backend.URL)
	ctx := context.Background()

	result, _ := client.handleAddTeam(ctx, callTool("add_team", map[string]interface{}{"area": "x", "name": "A"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "not_found") {
		t.Errorf("Expected not_found before the area exists, got: %s", resultText(t, result))
	}

	// areas come into existence on first read
	client.handleGetQueue(ctx, callTool("get_queue", map[string]interface{}{"area": "x"}))
	for _, name := range []string{"A", "B", "C"} {
		client.handleAddTeam(ctx, callTool("add_team", map[string]interface{}{"area": "x", "name": name}))
	}

	var sess engine.Session
	if err := client.apiCall(ctx, http.MethodGet, "/api/queue/x", nil, &sess); err != nil {
		t.Fatalf("Failed to fetch session: %v", err)
	}
	if len(sess.Queue) != 3 {
		t.Fatalf("Expected 3 queued teams, got %d", len(sess.Queue))
	}

	ids := []interface{}{sess.Queue[2].ID, sess.Queue[0].ID, sess.Queue[1].ID}
	result, _ = client.handleReorder(ctx, callTool("reorder_queue", map[string]interface{}{"area": "x", "team_ids": ids}))
	text := resultText(t, result)
	if !strings.Contains(text, "1. C") || !strings.Contains(text, "3. B") {
		t.Errorf("Unexpected reorder output: %s", text)
	}

	result, _ = client.handleReorder(ctx, callTool("reorder_queue", map[string]interface{}{"area": "x", "team_ids": "nope"}))
	if !result.IsError {
		t.Error("Expected error for non-array team_ids")
	}

	result, _ = client.handleRemoveTeam(ctx, callTool("remove_team", map[string]interface{}{"area": "x", "team_id": sess.Queue[0].ID}))
	if text := resultText(t, result); !strings.Contains(text, "Queue (2)") {
		t.Errorf("Expected two teams left, got: %s", text)
	}
}

func TestFormatSession(t *testing.T) {
	s := &engine.Session{
		Mode:   engine.ModeClassic,
		Queue:  []engine.Team{{ID: "3", Name: "C"}},
		InPlay: []engine.Team{{ID: "1", Name: "A"}},
	}

	result := formatSession(s)
	for _, want := range []string{"Mode: classic", "A [1] waiting", "Queue (1)", "1. C [3]"} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in output, got: %s", want, result)
		}
	}

	if !strings.Contains(formatSession(engine.NewSession()), "Mode: not set") {
		t.Error("Expected unset mode to be reported")
	}
}
