// internal/mcpserver/server_test.go
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/canvasmcp/internal/canvas"
	"github.com/mwiater/canvasmcp/internal/logging"
	"github.com/mwiater/canvasmcp/internal/tools"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// newCanvasStub serves fixed bodies keyed by API path.
func newCanvasStub(t *testing.T, bodies map[string]string, statuses map[string]int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, canvas.APIPrefix)
		if status, ok := statuses[path]; ok {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"errors":"boom"}`))
			return
		}
		body, ok := bodies[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T, canvasServer *httptest.Server) *Server {
	t.Helper()
	deps := tools.Dependencies{Clock: func() time.Time { return testNow }}
	if canvasServer != nil {
		deps.HTTPClient = canvasServer.Client()
	}
	reg, err := tools.NewRegistry(deps)
	require.NoError(t, err)
	srv, err := NewServer(Config{Registry: reg, Version: "test", CallTimeout: 5 * time.Second})
	require.NoError(t, err)
	return srv
}

func decodeResponse(t *testing.T, resp *jsonrpcResponse) map[string]any {
	t.Helper()
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func callBody(t *testing.T, id int, name string, args map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)
	return data
}

func TestNewServerRequiresRegistry(t *testing.T) {
	_, err := NewServer(Config{})
	require.Error(t, err)
}

func TestInitializeAndPing(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.handleMessage(context.Background(), "test", []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26"}}`))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	out := decodeResponse(t, resp)
	result := out["result"].(map[string]any)
	assert.Equal(t, "2025-03-26", result["protocolVersion"])
	assert.Equal(t, "canvasmcp", result["serverInfo"].(map[string]any)["name"])
	assert.Equal(t, float64(1), out["id"])

	resp = srv.handleMessage(context.Background(), "test", []byte(`{"jsonrpc":"2.0","id":"abc","method":"ping"}`))
	require.NotNil(t, resp)
	assert.Equal(t, `"abc"`, string(resp.ID))
	assert.Nil(t, resp.Error)
}

func TestInitializeUnknownVersionGetsLatest(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.handleMessage(context.Background(), "test", []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`))
	result := decodeResponse(t, resp)["result"].(map[string]any)
	assert.Equal(t, latestProtocolVersion, result["protocolVersion"])
}

func TestToolsList(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.handleMessage(context.Background(), "test", []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	out := decodeResponse(t, resp)
	list := out["result"].(map[string]any)["tools"].([]any)
	require.NotEmpty(t, list)

	names := map[string]bool{}
	for _, item := range list {
		tool := item.(map[string]any)
		names[tool["name"].(string)] = true
		assert.Contains(t, tool, "inputSchema")
	}
	for _, name := range []string{tools.UpcomingAssignmentsName, tools.TodosName, tools.DashboardCoursesName, tools.CourseAssignmentsName} {
		assert.True(t, names[name], "missing %s", name)
	}
}

func TestProtocolErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "bad json", body: `{"jsonrpc":`, code: codeParseError},
		{name: "batch", body: `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, code: codeInvalidRequest},
		{name: "wrong version", body: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, code: codeInvalidRequest},
		{name: "unknown method", body: `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, code: codeMethodNotFound},
		{name: "unknown tool", body: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_weather"}}`, code: codeInvalidParams},
		{name: "missing tool name", body: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, code: codeInvalidParams},
		{name: "bad params", body: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":"nope"}`, code: codeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.handleMessage(context.Background(), "test", []byte(tt.body))
			require.NotNil(t, resp)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestNotificationGetsNoResponse(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.handleMessage(context.Background(), "test", []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, resp)
}

func TestToolsCallSuccess(t *testing.T) {
	canvasServer := newCanvasStub(t, map[string]string{
		"courses":               `[{"id":1,"name":"Algebra"}]`,
		"courses/1/assignments": `[{"id":11,"name":"Homework 1","due_at":"2025-03-12T12:00:00Z"}]`,
	}, nil)
	srv := newTestServer(t, canvasServer)

	body := callBody(t, 3, tools.UpcomingAssignmentsName, map[string]any{
		"canvas_url": canvasServer.URL,
		"api_token":  "tok",
		"days_ahead": 7,
	})
	resp := srv.handleMessage(context.Background(), "test", body)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(callToolResult)
	require.True(t, ok)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)

	var payload canvas.UpcomingAssignments
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	require.Len(t, payload.Assignments, 1)
	assert.Equal(t, "Homework 1", payload.Assignments[0].Name)
}

func TestToolsCallFailureIsToolError(t *testing.T) {
	canvasServer := newCanvasStub(t, nil, map[string]int{"users/self/todo": http.StatusUnauthorized})
	srv := newTestServer(t, canvasServer)

	resp := srv.handleMessage(context.Background(), "test", callBody(t, 4, tools.TodosName, map[string]any{
		"canvas_url": canvasServer.URL,
		"api_token":  "expired-token",
	}))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result := resp.Result.(callToolResult)
	assert.True(t, result.IsError)
	var payload tools.ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, canvas.KindAuth, payload.Error.Kind)
	assert.NotContains(t, result.Content[0].Text, "expired-token")
}

func TestToolsCallKeepsCredentialsOutOfLogs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "canvasmcp.log")
	require.NoError(t, logging.Init(logPath))
	t.Cleanup(func() { _ = logging.Close() })

	canvasServer := newCanvasStub(t, map[string]string{"users/self/todo": `[]`}, nil)
	srv := newTestServer(t, canvasServer)
	resp := srv.handleMessage(context.Background(), "stdio", callBody(t, 6, tools.TodosName, map[string]any{
		"canvas_url": canvasServer.URL,
		"api_token":  "secret-token",
	}))
	require.NotNil(t, resp)
	assert.False(t, resp.Result.(callToolResult).IsError)

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()
	resp = srv.handleMessage(context.Background(), "stdio", callBody(t, 7, tools.TodosName, map[string]any{
		"canvas_url": downURL,
		"api_token":  "secret-token",
	}))
	require.NotNil(t, resp)
	failed := resp.Result.(callToolResult)
	assert.True(t, failed.IsError)
	assert.NotContains(t, failed.Content[0].Text, strings.TrimPrefix(downURL, "http://"))

	require.NoError(t, logging.Close())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	logged := string(data)
	assert.Contains(t, logged, "tool=get_todos")
	for _, secret := range []string{
		"secret-token",
		canvasServer.URL,
		strings.TrimPrefix(canvasServer.URL, "http://"),
		strings.TrimPrefix(downURL, "http://"),
	} {
		assert.NotContains(t, logged, secret)
	}
}

func TestToolsCallInvalidArgument(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.handleMessage(context.Background(), "test", callBody(t, 5, tools.CourseAssignmentsName, map[string]any{
		"canvas_url": "https://canvas.test",
		"api_token":  "tok",
		"course_id":  1,
		"bucket":     "later",
	}))
	result := resp.Result.(callToolResult)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, string(canvas.KindInvalidArgument))
}

func TestHTTPTransport(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out, "result")
}

func TestHTTPTransportNotificationAccepted(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHTTPTransportRejectsGetAndLargeBodies(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	big := bytes.Repeat([]byte("a"), MaxMessageSize+10)
	resp, err = http.Post(ts.URL+"/mcp", "application/json", bytes.NewReader(big))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out jsonrpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Error)
	assert.Equal(t, codeInvalidRequest, out.Error.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
