// internal/cli/call.go
package canvasmcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/canvasmcp/internal/tools"
)

// callCmd implements 'call', which invokes one tool in-process.
var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke a tool once and print its result",
	Long:  `The 'call' command runs a tool in-process with the JSON arguments given by --args. canvas_url and api_token default to the CANVAS_URL and CANVAS_API_TOKEN environment variables when absent.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawArgs, _ := cmd.Flags().GetString("args")
		pretty, _ := cmd.Flags().GetBool("pretty")

		toolArgs, err := parseToolArgs(rawArgs)
		if err != nil {
			return err
		}
		fillConnectionDefaults(toolArgs)

		registry, err := newRegistry(activeConfig())
		if err != nil {
			return err
		}
		ctx, cancel := withCallTimeout(cmd)
		defer cancel()

		parts, err := registry.Call(ctx, args[0], toolArgs)
		if err != nil {
			if errors.Is(err, tools.ErrUnknownTool) {
				return fmt.Errorf("%w (run 'canvasmcp tools' for the list)", err)
			}
			printToolError(cmd.ErrOrStderr(), err)
			return err
		}
		return printParts(cmd.OutOrStdout(), parts, pretty)
	},
}

func parseToolArgs(raw string) (map[string]any, error) {
	toolArgs := map[string]any{}
	if raw == "" {
		return toolArgs, nil
	}
	if err := json.Unmarshal([]byte(raw), &toolArgs); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if toolArgs == nil {
		toolArgs = map[string]any{}
	}
	return toolArgs, nil
}

// fillConnectionDefaults copies the environment connection into args where the caller left it out.
func fillConnectionDefaults(args map[string]any) {
	conn := connectionFromEnv()
	if _, ok := args["canvas_url"]; !ok && conn.BaseURL != "" {
		args["canvas_url"] = conn.BaseURL
	}
	if _, ok := args["api_token"]; !ok && conn.APIToken != "" {
		args["api_token"] = conn.APIToken
	}
}

func printToolError(w io.Writer, err error) {
	red := color.New(color.FgRed).SprintFunc()
	for _, part := range tools.ErrorContent(err) {
		fmt.Fprintln(w, red(part.Text))
	}
}

func printParts(w io.Writer, parts []tools.ContentPart, pretty bool) error {
	for _, part := range parts {
		if !pretty {
			fmt.Fprintln(w, part.Text)
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(part.Text), &decoded); err != nil {
			fmt.Fprintln(w, part.Text)
			continue
		}
		if _, err := pp.Fprintln(w, decoded); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	callCmd.Flags().String("args", "", `tool arguments as a JSON object, e.g. '{"days_ahead": 3}'`)
	callCmd.Flags().Bool("pretty", false, "pretty-print the result")
	rootCmd.AddCommand(callCmd)
}
