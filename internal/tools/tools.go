// internal/tools/tools.go
// Package tools registers the Canvas tools exposed over MCP: their names,
// descriptions, input schemas and handlers.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/canvasmcp/internal/canvas"
	"github.com/mwiater/canvasmcp/internal/logging"
)

// ErrUnknownTool is returned by Call when no tool is registered under the name.
var ErrUnknownTool = errors.New("unknown tool")

// Definition describes a tool for discovery by the MCP host.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentPart is one piece of a tool result.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Handler runs a tool with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) ([]ContentPart, error)

// Tool pairs a definition with its handler and compiled argument schema.
type Tool struct {
	Definition Definition
	Handler    Handler
	schema     *gojsonschema.Schema
}

// Dependencies are the process-wide settings every tool call shares. None of
// them carry Canvas credentials.
type Dependencies struct {
	HTTPClient       *http.Client
	Clock            func() time.Time
	MaxConcurrency   int
	UserAgent        string
	Debug            bool
	DefaultDaysAhead int
}

// Registry maps tool names to tools. It is built once at startup and only read
// afterwards, so it is safe for concurrent use.
type Registry struct {
	deps  Dependencies
	order []string
	tools map[string]Tool
}

// NewRegistry builds the registry with every Canvas tool.
func NewRegistry(deps Dependencies) (*Registry, error) {
	if deps.DefaultDaysAhead <= 0 {
		deps.DefaultDaysAhead = 7
	}
	r := &Registry{deps: deps, tools: map[string]Tool{}}
	for _, t := range r.canvasTools() {
		if err := r.register(t.Definition, t.Handler); err != nil {
			return nil, err
		}
	}
	if err := r.register(AvailableToolsDefinition(), r.availableTools); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) register(def Definition, handler Handler) error {
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %q registered twice", def.Name)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.InputSchema))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", def.Name, err)
	}
	r.tools[def.Name] = Tool{Definition: def, Handler: handler, schema: schema}
	r.order = append(r.order, def.Name)
	return nil
}

// Definitions returns every tool definition in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Call validates args against the tool's schema and runs it.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) ([]ContentPart, error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(tool.schema, args); err != nil {
		return nil, err
	}

	start := time.Now()
	parts, err := tool.Handler(ctx, args)
	logging.LogDebug("tool %s finished in %s (error=%v)", name, time.Since(start).Round(time.Millisecond), err != nil)
	return parts, err
}

// newClient builds a Canvas client scoped to the credentials in args.
func (r *Registry) newClient(args map[string]any) (*canvas.Client, error) {
	conn := canvas.Connection{
		BaseURL:  stringArg(args, "canvas_url"),
		APIToken: stringArg(args, "api_token"),
	}
	opts := []canvas.Option{
		canvas.WithHTTPClient(r.deps.HTTPClient),
		canvas.WithClock(r.deps.Clock),
		canvas.WithMaxConcurrency(r.deps.MaxConcurrency),
		canvas.WithUserAgent(r.deps.UserAgent),
		canvas.WithDebug(r.deps.Debug),
	}
	return canvas.NewClient(conn, opts...)
}

// TextContent renders v as the single JSON text part of a tool result.
func TextContent(v any) ([]ContentPart, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error preparing tool response: %w", err)
	}
	return []ContentPart{{Type: "text", Text: string(data)}}, nil
}

// ErrorPayload is the body of a failed tool call.
type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure kind and a human readable message.
type ErrorDetail struct {
	Kind    canvas.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// ErrorContent renders err as the text part of a failed tool call.
func ErrorContent(err error) []ContentPart {
	payload := ErrorPayload{Error: ErrorDetail{Kind: canvas.KindOf(err), Message: err.Error()}}
	data, mErr := json.Marshal(payload)
	if mErr != nil {
		return []ContentPart{{Type: "text", Text: err.Error()}}
	}
	return []ContentPart{{Type: "text", Text: string(data)}}
}
