// internal/tools/schema.go
package tools

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/canvasmcp/internal/canvas"
)

// integerPattern admits integers passed as strings by loosely typed hosts.
const integerPattern = `^\s*-?[0-9]+\s*$`

func connectionProperties() map[string]any {
	return map[string]any{
		"canvas_url": map[string]any{
			"type":        "string",
			"minLength":   1,
			"description": "Base URL of the Canvas instance, e.g. https://school.instructure.com",
		},
		"api_token": map[string]any{
			"type":        "string",
			"minLength":   1,
			"description": "Canvas API access token. Used for this call only.",
		},
	}
}

// objectSchema merges the connection arguments into props and marks them required.
func objectSchema(props map[string]any, required ...string) map[string]any {
	all := connectionProperties()
	for k, v := range props {
		all[k] = v
	}
	return map[string]any{
		"type":       "object",
		"properties": all,
		"required":   append([]string{"canvas_url", "api_token"}, required...),
	}
}

func integerProperty(description string, minimum, maximum int) map[string]any {
	p := map[string]any{
		"type":        []string{"integer", "string"},
		"pattern":     integerPattern,
		"description": description,
		"minimum":     minimum,
	}
	if maximum > 0 {
		p["maximum"] = maximum
	}
	return p
}

func idProperty(description string) map[string]any {
	return integerProperty(description, 1, 0)
}

func validateArgs(schema *gojsonschema.Schema, args map[string]any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &canvas.Error{Kind: canvas.KindInvalidArgument, Message: "arguments could not be validated", Err: err}
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return &canvas.Error{Kind: canvas.KindInvalidArgument, Message: strings.Join(msgs, "; ")}
}
