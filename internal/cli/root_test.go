// internal/cli/root_test.go
package canvasmcp

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/mwiater/canvasmcp/internal/canvas"
	"github.com/mwiater/canvasmcp/internal/logging"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// useConfig points the root command at a temp config and log file for one test.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := writeTempConfig(t, content)

	prevCfgFile := cfgFile
	cfgFile = configPath
	viper.SetConfigFile(configPath)
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
	})
	t.Cleanup(func() { _ = logging.Close() })

	for _, name := range []string{"debug", "logFile", "timeout", "maxConcurrency", "userAgent"} {
		resetFlag(name)
	}
	_ = callCmd.Flags().Set("args", "")
	_ = callCmd.Flags().Set("pretty", "false")
	_ = rootCmd.PersistentFlags().Set("logFile", filepath.Join(t.TempDir(), "canvasmcp.log"))
	return configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	_, err := rootCmd.ExecuteC()
	return buf.String(), err
}

// TestRootCmd verifies running the root command with an invalid subcommand reports an error.
func TestRootCmd(t *testing.T) {
	out, err := execute(t, "nonexistent")
	if err == nil {
		t.Error("Expected an error for a nonexistent command, but got none")
	}
	expected := "unknown command \"nonexistent\" for \"canvasmcp\""
	if !strings.Contains(out, expected) {
		t.Errorf("Expected output to contain '%s', but got '%s'", expected, out)
	}
}

func TestPersistentPreRunEUsesFlagValues(t *testing.T) {
	configPath := useConfig(t, `{"maxConcurrency": 2, "daysAhead": 10}`)

	_ = rootCmd.PersistentFlags().Set("debug", "true")
	_ = rootCmd.PersistentFlags().Set("timeout", "12")

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}
	if currentConfig == nil || currentConfig.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s", configPath)
	}
	if !currentConfig.Debug {
		t.Fatalf("expected flag values to flow into config: %+v", currentConfig)
	}
	if currentConfig.RequestTimeout() != 12*time.Second {
		t.Fatalf("expected timeout of 12s, got %s", currentConfig.RequestTimeout())
	}
	if currentConfig.MaxConcurrency() != 2 || currentConfig.DefaultDaysAhead() != 10 {
		t.Fatalf("expected file values to survive, got %+v", currentConfig)
	}
}

func TestPersistentPreRunEInvalidTransport(t *testing.T) {
	useConfig(t, `{"transport": "smoke-signals"}`)
	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err == nil {
		t.Fatalf("expected error for invalid transport")
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	configPath := useConfig(t, `{}`)

	out, err := execute(t, "--debug", "show", "config")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	if !strings.Contains(out, "Config file: "+configPath) {
		t.Fatalf("expected config file path in output, got %s", out)
	}
	if !strings.Contains(out, "Debug:            true") {
		t.Fatalf("expected debug in output, got %s", out)
	}
}

func TestListCommandsOutput(t *testing.T) {
	useConfig(t, `{}`)

	out, err := execute(t, "list", "commands")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	for _, want := range []string{"canvasmcp serve", "canvasmcp call", "canvasmcp show config", "canvasmcp upcoming"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %s", want, out)
		}
	}
	if strings.Contains(out, "completion") {
		t.Fatalf("completion commands should be hidden, got %s", out)
	}
}

func TestToolsCommandOutput(t *testing.T) {
	useConfig(t, `{}`)

	out, err := execute(t, "tools")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	for _, want := range []string{"get_upcoming_assignments", "get_todos", "get_dashboard_courses", "get_course_assignments"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %s", want, out)
		}
	}
}

func newCanvasStub(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer env-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := bodies[strings.TrimPrefix(r.URL.Path, canvas.APIPrefix)]
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

func TestCallCommandUsesEnvironmentConnection(t *testing.T) {
	useConfig(t, `{}`)
	server := newCanvasStub(t, map[string]string{
		"courses": `[{"id":1,"name":"Algebra","course_code":"MATH101","is_favorite":true}]`,
	})
	t.Setenv(envCanvasURL, server.URL)
	t.Setenv(envCanvasToken, "env-token")

	out, err := execute(t, "call", "get_dashboard_courses")
	if err != nil {
		t.Fatalf("ExecuteC error: %v (output %s)", err, out)
	}
	if !strings.Contains(out, `"course_code":"MATH101"`) {
		t.Fatalf("expected course JSON in output, got %s", out)
	}
}

func TestCallCommandReportsToolError(t *testing.T) {
	useConfig(t, `{}`)
	server := newCanvasStub(t, map[string]string{})
	t.Setenv(envCanvasURL, server.URL)
	t.Setenv(envCanvasToken, "env-token")

	out, err := execute(t, "call", "get_course_assignments", "--args", `{"course_id": 5, "bucket": "later"}`)
	if err == nil {
		t.Fatalf("expected error for bad bucket, got output %s", out)
	}
	if !strings.Contains(out, `"kind":"InvalidArgument"`) {
		t.Fatalf("expected structured error in output, got %s", out)
	}
	if strings.Contains(out, "env-token") {
		t.Fatalf("token leaked into output: %s", out)
	}
}

func TestParseToolArgs(t *testing.T) {
	args, err := parseToolArgs(`{"days_ahead": 3}`)
	if err != nil {
		t.Fatalf("parseToolArgs error: %v", err)
	}
	if args["days_ahead"] != float64(3) {
		t.Fatalf("unexpected args %+v", args)
	}
	if _, err := parseToolArgs(`[1,2]`); err == nil {
		t.Fatal("expected error for non-object args")
	}
	args, err = parseToolArgs("")
	if err != nil || len(args) != 0 {
		t.Fatalf("expected empty args, got %+v, %v", args, err)
	}
}

func TestFillConnectionDefaultsKeepsExplicitValues(t *testing.T) {
	t.Setenv(envCanvasURL, "https://env.example")
	t.Setenv(envCanvasToken, "env-token")

	args := map[string]any{"canvas_url": "https://explicit.example"}
	fillConnectionDefaults(args)
	if args["canvas_url"] != "https://explicit.example" {
		t.Fatalf("explicit canvas_url overwritten: %v", args["canvas_url"])
	}
	if args["api_token"] != "env-token" {
		t.Fatalf("expected api_token from environment, got %v", args["api_token"])
	}
}
