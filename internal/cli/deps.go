// internal/cli/deps.go
package canvasmcp

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/canvasmcp/internal/appconfig"
	"github.com/mwiater/canvasmcp/internal/canvas"
	"github.com/mwiater/canvasmcp/internal/tools"
)

// Environment fallbacks for one-shot commands. They are read per invocation
// and never written anywhere.
const (
	envCanvasURL   = "CANVAS_URL"
	envCanvasToken = "CANVAS_API_TOKEN"
)

// activeConfig returns the merged configuration, or defaults before PersistentPreRunE ran.
func activeConfig() appconfig.Config {
	if cfg := GetConfig(); cfg != nil {
		return *cfg
	}
	return appconfig.Config{}
}

func httpClientFor(cfg appconfig.Config) *http.Client {
	return &http.Client{Timeout: cfg.RequestTimeout()}
}

// newRegistry builds the tool registry from cfg.
func newRegistry(cfg appconfig.Config) (*tools.Registry, error) {
	return tools.NewRegistry(tools.Dependencies{
		HTTPClient:       httpClientFor(cfg),
		MaxConcurrency:   cfg.MaxConcurrency(),
		UserAgent:        cfg.UserAgentString(appVersion),
		Debug:            cfg.Debug,
		DefaultDaysAhead: cfg.DefaultDaysAhead(),
	})
}

// connectionFromEnv reads the Canvas connection for CLI commands.
func connectionFromEnv() canvas.Connection {
	return canvas.Connection{
		BaseURL:  strings.TrimSpace(os.Getenv(envCanvasURL)),
		APIToken: strings.TrimSpace(os.Getenv(envCanvasToken)),
	}
}

// newEnvClient builds a Canvas client from the environment for the display commands.
func newEnvClient(cfg appconfig.Config) (*canvas.Client, error) {
	return canvas.NewClient(connectionFromEnv(),
		canvas.WithHTTPClient(httpClientFor(cfg)),
		canvas.WithMaxConcurrency(cfg.MaxConcurrency()),
		canvas.WithUserAgent(cfg.UserAgentString(appVersion)),
		canvas.WithDebug(cfg.Debug),
	)
}

// withCallTimeout bounds a one-shot command by the configured request timeout.
func withCallTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, activeConfig().RequestTimeout())
}
