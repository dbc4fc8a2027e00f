// internal/mcpserver/http.go
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/canvasmcp/internal/logging"
)

// RequestIDHeader carries the per-request correlation id on HTTP responses.
const RequestIDHeader = "X-Request-Id"

// Handler returns the stateless HTTP transport: POST /mcp and GET /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/healthz", handleHealth)
	return mux
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.New().String()
	w.Header().Set(RequestIDHeader, requestID)

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxMessageSize+1))
	if err != nil {
		sendJSON(w, makeError(nil, codeParseError, "failed to read request body"))
		return
	}
	if len(body) > MaxMessageSize {
		sendJSON(w, makeError(nil, codeInvalidRequest, "request body too large"))
		return
	}

	logging.LogDebug("MCP http request: request_id=%s bytes=%d", requestID, len(body))
	resp := s.handleMessage(r.Context(), "http request_id="+requestID, body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	sendJSON(w, resp)
}

func sendJSON(w http.ResponseWriter, resp *jsonrpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.LogEvent("failed to write MCP response: %v", err)
	}
}

// ListenAndServe runs the HTTP transport on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("MCP http transport listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
