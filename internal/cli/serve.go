// internal/cli/serve.go
package canvasmcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/canvasmcp/internal/appconfig"
	"github.com/mwiater/canvasmcp/internal/logging"
	"github.com/mwiater/canvasmcp/internal/mcpserver"
)

// serveCmd implements 'serve', which runs the MCP server on stdio or HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server (stdio or http)",
	Long:  `The 'serve' command exposes the Canvas tools over MCP. The stdio transport reads Content-Length framed or newline-delimited JSON-RPC from stdin; the http transport answers POST /mcp on the listen address (PORT is honoured when no address is configured).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := activeConfig()
		cfg.Transport = viper.GetString("transport")
		cfg.ListenAddr = viper.GetString("listen")
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func runServe(ctx context.Context, cfg appconfig.Config) error {
	registry, err := newRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}
	server, err := mcpserver.NewServer(mcpserver.Config{
		Registry:    registry,
		Version:     appVersion,
		CallTimeout: cfg.RequestTimeout(),
	})
	if err != nil {
		return err
	}

	logging.LogEvent("canvasmcp %s starting: transport=%s tools=%d", appVersion, cfg.TransportName(), len(registry.Definitions()))
	switch cfg.TransportName() {
	case "http":
		return server.ListenAndServe(ctx, cfg.ListenAddress())
	default:
		return server.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
}

func init() {
	serveCmd.Flags().String("transport", "", "MCP transport: stdio or http (default stdio)")
	serveCmd.Flags().String("listen", "", "listen address for the http transport (default :$PORT or :8000)")
	_ = viper.BindPFlag("transport", serveCmd.Flags().Lookup("transport"))
	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	rootCmd.AddCommand(serveCmd)
}
