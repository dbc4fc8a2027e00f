// internal/tools/available_tools.go
package tools

import "context"

// AvailableToolsName lists every registered tool.
const AvailableToolsName = "available_tools"

// AvailableToolsDefinition describes the discovery tool. It needs no credentials.
func AvailableToolsDefinition() Definition {
	return Definition{
		Name:        AvailableToolsName,
		Description: "List the Canvas tools this server provides.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

type toolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *Registry) availableTools(_ context.Context, _ map[string]any) ([]ContentPart, error) {
	summaries := make([]toolSummary, 0, len(r.order))
	for _, def := range r.Definitions() {
		summaries = append(summaries, toolSummary{Name: def.Name, Description: def.Description})
	}
	return TextContent(summaries)
}
