package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/sokoban/api"
	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
)

// newTestClient points a client at a real API server over a temporary
// puzzle directory holding one corridor puzzle.
func newTestClient(t *testing.T) *Client {
	t.Helper()

	configs, err := config.NewManager(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, configs.SaveConfig("corridor", &engine.PuzzleConfig{
		Name:        "Corridor",
		Description: "One block, one target",
		Layout: []string{
			"#######",
			"#@ $ .#",
			"#     #",
			"#######",
		},
	}))

	svc := service.NewGameService(session.NewManager(), configs)
	ts := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(ts.Close)

	return NewClient(ts.URL)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, result.IsError
}

func createSession(t *testing.T, c *Client) string {
	t.Helper()
	text, isErr := call(t, c.handleCreateSession, map[string]interface{}{"config_name": "corridor"})
	require.False(t, isErr, text)

	first := strings.SplitN(text, "\n", 2)[0]
	id := strings.TrimPrefix(first, "Created session: ")
	require.NotEqual(t, first, id, text)
	return id
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080")

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error: 500")
}

func TestClient_apiCall_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"session not found: abc"}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
	require.EqualError(t, err, "session not found: abc")
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	assert.Error(t, client.apiCall(context.Background(), "GET", "/api", nil, nil))
}

func TestTools_PlayThrough(t *testing.T) {
	c := newTestClient(t)
	id := createSession(t, c)

	text, isErr := call(t, c.handleGameState, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Position: (1,1)")
	assert.Contains(t, text, " 1 #@ $ .#")

	text, isErr = call(t, c.handleMove, map[string]interface{}{"session_id": id, "direction": "up"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "✗ Move failed")
	assert.Contains(t, text, "wall")

	text, _ = call(t, c.handleMove, map[string]interface{}{"session_id": id, "direction": "right"})
	assert.Contains(t, text, "✓ Move successful")

	text, _ = call(t, c.handleUndo, map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "Position: (1,1)")

	text, isErr = call(t, c.handleSolveSession, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "length: 3 moves: [ → → → ]")
	assert.Contains(t, text, "Moves: right,right,right")

	text, isErr = call(t, c.handleHint, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Equal(t, "Next move: right →", text)

	text, isErr = call(t, c.handleBulkMove, map[string]interface{}{
		"session_id": id,
		"moves":      []interface{}{"right", "right", "right"},
		"intent":     "apply the solver's answer",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Executed 3/3 moves, pushes +2")
	assert.Contains(t, text, "SOLVED!")

	text, _ = call(t, c.handleHint, map[string]interface{}{"session_id": id})
	assert.Equal(t, "Puzzle already solved", text)

	text, _ = call(t, c.handleMoveHistory, map[string]interface{}{
		"session_id": id, "order": "asc", "limit": float64(2),
	})
	assert.Contains(t, text, "#1 ")
	assert.Contains(t, text, "More moves on page 2")

	text, _ = call(t, c.handleReset, map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "Position: (1,1)")

	text, _ = call(t, c.handleListSessions, nil)
	assert.Contains(t, text, "Active Sessions (1)")
	assert.Contains(t, text, id)

	text, _ = call(t, c.handleGetSession, map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "Puzzle: corridor")
}

func TestTools_Errors(t *testing.T) {
	c := newTestClient(t)

	text, isErr := call(t, c.handleGameState, map[string]interface{}{})
	assert.True(t, isErr)
	assert.Contains(t, text, "session_id is required")

	text, isErr = call(t, c.handleGameState, map[string]interface{}{"session_id": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, "session not found")

	text, isErr = call(t, c.handleCreateSession, map[string]interface{}{"config_name": "nope"})
	assert.True(t, isErr)
	assert.Contains(t, text, "Available configs")
}

func TestTools_SolveLayout(t *testing.T) {
	c := newTestClient(t)

	text, isErr := call(t, c.handleSolveLayout, map[string]interface{}{
		"layout": []interface{}{"#####", "#@$.#", "#####"},
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "length: 1 moves: [ → ]")

	text, isErr = call(t, c.handleSolveLayout, map[string]interface{}{
		"layout": []interface{}{"#$@.#"},
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "no solution found")

	text, isErr = call(t, c.handleSolveLayout, map[string]interface{}{
		"layout": []interface{}{"@$$."},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid layout")

	_, isErr = call(t, c.handleSolveLayout, map[string]interface{}{})
	assert.True(t, isErr)
}

func TestTools_ConfigsAndInstructions(t *testing.T) {
	c := newTestClient(t)

	text, isErr := call(t, c.handleListConfigs, nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "corridor (Corridor)")
	assert.Contains(t, text, "Board: 7x4, Blocks: 1")

	text, _ = call(t, c.handleGameInstructions, nil)
	assert.Contains(t, text, "BOARD LEGEND")
}

func TestServeHTTP(t *testing.T) {
	c := NewClient("http://localhost:0")

	w := httptest.NewRecorder()
	c.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
	w = httptest.NewRecorder()
	c.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Sokoban"`)
}

func TestFormatGameState(t *testing.T) {
	state := &engine.GameState{
		PlayerPos:      engine.Position{X: 2, Y: 1},
		Layout:         []string{"#####", "#.@$#", "#####"},
		BlocksOnTarget: 0,
		TotalBlocks:    1,
		TotalMoves:     4,
		Pushes:         1,
		Message:        "Keep going",
	}

	got := formatGameState(state)
	for _, want := range []string{
		"Position: (2,1) | On target: 0/1 | Moves: 4 | Pushes: 1",
		"   01234\n",
		" 1 #.@$#\n",
		"Message: Keep going",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "SOLVED")

	state.Solved = true
	assert.Contains(t, formatGameState(state), "SOLVED!")
	assert.Equal(t, "No game state available", formatGameState(nil))
}
