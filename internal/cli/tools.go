// internal/cli/tools.go
package canvasmcp

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// toolsCmd implements 'tools', which lists the registered tools.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools exposed over MCP",
	Long:  `The 'tools' command prints every registered tool with its description.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newRegistry(activeConfig())
		if err != nil {
			return err
		}
		name := color.New(color.FgGreen, color.Bold).SprintFunc()
		out := cmd.OutOrStdout()
		defs := registry.Definitions()
		width := 0
		for _, def := range defs {
			width = max(width, len(def.Name))
		}
		for _, def := range defs {
			fmt.Fprintf(out, "  %s%*s  %s\n", name(def.Name), width-len(def.Name), "", def.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
