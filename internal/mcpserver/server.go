// internal/mcpserver/server.go
// Package mcpserver speaks MCP (JSON-RPC 2.0) over stdio and stateless HTTP
// and dispatches tools/call requests to the tool registry.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/canvasmcp/internal/logging"
	"github.com/mwiater/canvasmcp/internal/tools"
)

// MaxMessageSize bounds a single JSON-RPC message on either transport (1MB).
const MaxMessageSize = 1 << 20

// latestProtocolVersion is advertised when the client asks for a version we do not know.
const latestProtocolVersion = "2025-06-18"

var supportedProtocolVersions = map[string]bool{
	"2024-11-05": true,
	"2025-03-26": true,
	"2025-06-18": true,
}

// Standard JSON-RPC error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// --- Protocol data types ---

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r jsonrpcRequest) isNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// callToolResult is the result for tools/call.
type callToolResult struct {
	Content []tools.ContentPart `json:"content"`
	IsError bool                `json:"isError,omitempty"`
}

// Config holds configuration for the MCP server.
type Config struct {
	Registry *tools.Registry
	Name     string
	Version  string
	// CallTimeout bounds each tools/call. Zero means no extra deadline.
	CallTimeout time.Duration
}

// Server routes JSON-RPC requests to the tool registry. It holds no
// per-session state, so one Server may serve any number of connections.
type Server struct {
	registry    *tools.Registry
	name        string
	version     string
	callTimeout time.Duration
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	name := cfg.Name
	if name == "" {
		name = "canvasmcp"
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Server{registry: cfg.Registry, name: name, version: version, callTimeout: cfg.CallTimeout}, nil
}

// --- RPC Helpers ---

func makeResult(id json.RawMessage, result any) *jsonrpcResponse {
	return &jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func makeError(id json.RawMessage, code int, msg string) *jsonrpcResponse {
	return &jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: &jsonrpcError{Code: code, Message: msg}}
}

// handleMessage decodes one raw message and returns the response to send, or
// nil when the message is a notification.
func (s *Server) handleMessage(ctx context.Context, transport string, body []byte) *jsonrpcResponse {
	if !json.Valid(body) {
		return makeError(nil, codeParseError, "Parse error")
	}
	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return makeError(nil, codeInvalidRequest, "Invalid request")
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return makeError(req.ID, codeInvalidRequest, "Invalid request")
	}
	if req.isNotification() {
		logging.LogDebug("mcp notification: transport=%s method=%s", transport, req.Method)
		return nil
	}
	return s.handleRequest(ctx, transport, req)
}

// --- MCP Request Handler ---

func (s *Server) handleRequest(ctx context.Context, transport string, req jsonrpcRequest) *jsonrpcResponse {
	switch req.Method {
	case "initialize":
		var p initializeParams
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params, &p)
		}
		version := latestProtocolVersion
		if supportedProtocolVersions[p.ProtocolVersion] {
			version = p.ProtocolVersion
		}
		return makeResult(req.ID, map[string]any{
			"protocolVersion": version,
			"serverInfo":      map[string]any{"name": s.name, "version": s.version},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		})

	case "ping":
		return makeResult(req.ID, map[string]any{})

	case "tools/list":
		return makeResult(req.ID, map[string]any{"tools": s.registry.Definitions()})

	case "tools/call":
		var p toolsCallParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return makeError(req.ID, codeInvalidParams, "Invalid params")
			}
		}
		if strings.TrimSpace(p.Name) == "" {
			return makeError(req.ID, codeInvalidParams, "Invalid params: tool name is required")
		}
		if p.Arguments == nil {
			p.Arguments = map[string]any{}
		}
		return s.callTool(ctx, transport, req.ID, p)
	}

	return makeError(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
}

func (s *Server) callTool(ctx context.Context, transport string, id json.RawMessage, p toolsCallParams) *jsonrpcResponse {
	logging.LogRequest("request", transport, p.Name, p.Arguments)

	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	start := time.Now()
	content, err := s.registry.Call(ctx, p.Name, p.Arguments)
	elapsed := time.Since(start).Round(time.Millisecond)
	if errors.Is(err, tools.ErrUnknownTool) {
		logging.LogRequest("response", transport, p.Name, map[string]any{"error": "unknown tool"})
		return makeError(id, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", p.Name))
	}
	if err != nil {
		logging.LogRequest("response", transport, p.Name, map[string]any{"isError": true, "error": err.Error(), "elapsed": elapsed.String()})
		return makeResult(id, callToolResult{Content: tools.ErrorContent(err), IsError: true})
	}
	logging.LogRequest("response", transport, p.Name, map[string]any{"parts": len(content), "elapsed": elapsed.String()})
	return makeResult(id, callToolResult{Content: content})
}
