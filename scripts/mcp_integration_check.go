// scripts/mcp_integration_check.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mwiater/canvasmcp/internal/appconfig"
	"github.com/mwiater/canvasmcp/internal/util"
)

// toolCall is one tools/call made against the running server.
type toolCall struct {
	tool string
	args map[string]any
}

func main() {
	configPath := flag.String("config", appconfig.DefaultConfigPath, "Path to config JSON")
	serverURL := flag.String("url", "", "Override canvasmcp base URL (default http://localhost<listen>)")
	courseID := flag.Int("course", 0, "Course id for the course-scoped tool calls")
	timeout := flag.Duration("timeout", 30*time.Second, "HTTP timeout")
	flag.Parse()

	base, err := resolveTarget(*configPath, *serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	client := &http.Client{Timeout: *timeout}

	fmt.Printf("Target server: %s\n\n", base)

	if err := checkHealth(client, base); err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}
	if err := listTools(client, base); err != nil {
		fmt.Fprintf(os.Stderr, "tools/list failed: %v\n", err)
	}

	canvasURL := strings.TrimSpace(os.Getenv("CANVAS_URL"))
	token := strings.TrimSpace(os.Getenv("CANVAS_API_TOKEN"))
	if canvasURL == "" || token == "" {
		fmt.Println("CANVAS_URL or CANVAS_API_TOKEN not set; skipping tool calls.")
		return
	}
	callTools(client, base, canvasURL, token, *courseID)
}

func resolveTarget(configPath, overrideURL string) (string, error) {
	if overrideURL != "" {
		return strings.TrimRight(overrideURL, "/"), nil
	}
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return "", err
	}
	addr := cfg.ListenAddress()
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr, nil
}

func checkHealth(client *http.Client, base string) error {
	fmt.Println("== /healthz ==")
	resp, err := client.Get(base + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s body=%s\n\n", resp.Status, strings.TrimSpace(string(body)))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func listTools(client *http.Client, base string) error {
	fmt.Println("== tools/list ==")
	status, body, err := rpc(client, base, "tools/list", nil)
	if err != nil {
		return err
	}
	var parsed struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		fmt.Printf("Status: %d Parse: %v\n\n", status, err)
		return nil
	}
	fmt.Printf("Status: %d tools=%d\n", status, len(parsed.Result.Tools))
	for _, t := range parsed.Result.Tools {
		fmt.Printf("  - %s\n", t.Name)
	}
	fmt.Println()
	return nil
}

func callTools(client *http.Client, base, canvasURL, token string, courseID int) {
	fmt.Println("== tools/call ==")
	conn := map[string]any{"canvas_url": canvasURL, "api_token": token}
	calls := []toolCall{
		{tool: "get_dashboard_courses"},
		{tool: "get_todos"},
		{tool: "get_upcoming_assignments", args: map[string]any{"days_ahead": 7}},
		{tool: "get_missing_assignments"},
		{tool: "get_calendar_events"},
		{tool: "get_quizzes"},
		{tool: "get_discussions"},
		{tool: "get_notifications"},
	}
	if courseID > 0 {
		for _, bucket := range []string{"upcoming", "past", "undated"} {
			calls = append(calls, toolCall{tool: "get_course_assignments", args: map[string]any{"course_id": courseID, "bucket": bucket}})
		}
	}

	for _, p := range calls {
		args := cloneMap(conn)
		for k, v := range p.args {
			args[k] = v
		}
		start := time.Now()
		status, body, err := rpc(client, base, "tools/call", map[string]any{"name": p.tool, "arguments": args})
		if err != nil {
			fmt.Printf("%s: error=%v\n", p.tool, err)
			continue
		}
		var parsed struct {
			Result struct {
				IsError bool `json:"isError"`
			} `json:"result"`
		}
		_ = json.Unmarshal(body, &parsed)
		fmt.Printf("%s: status=%d isError=%v elapsed=%s body=%s\n", p.tool, status, parsed.Result.IsError,
			time.Since(start).Round(time.Millisecond), util.TruncateRunes(strings.TrimSpace(string(body)), 200))
	}
	fmt.Println()
}

func rpc(client *http.Client, base, method string, params map[string]any) (int, []byte, error) {
	payload := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		payload["params"] = params
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/mcp", bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func cloneMap(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out
}
