// internal/mcpserver/stdio.go
package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mwiater/canvasmcp/internal/logging"
)

// framing is how a message arrived, and so how its response is written.
type framing int

const (
	framingHeader framing = iota // Content-Length headers, blank line, body
	framingLine                  // one JSON document per line
)

// --- Framing Helpers ---

func writeMessage(w *bufio.Writer, f framing, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if f == framingLine {
		if _, err := w.Write(data); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		return w.Flush()
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}

// readMessage returns the next message body. A message whose first
// non-blank byte opens a JSON value is read as a line; anything else is a
// header block.
func readMessage(r *bufio.Reader) ([]byte, framing, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return nil, framingHeader, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = r.ReadByte()
			continue
		case '{', '[':
			line, err := r.ReadSlice('\n')
			if errors.Is(err, bufio.ErrBufferFull) {
				line, err = readLongLine(r, line)
			}
			if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
				return nil, framingLine, err
			}
			return bytes.Clone(bytes.TrimSpace(line)), framingLine, nil
		}
		break
	}

	// Read headers until blank line
	headers := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, framingHeader, err
		}
		s := strings.TrimRight(line, "\r\n")
		if s == "" {
			break
		}
		if i := strings.IndexByte(s, ':'); i >= 0 {
			key := strings.ToLower(strings.TrimSpace(s[:i]))
			headers[key] = strings.TrimSpace(s[i+1:])
		}
	}
	clStr, ok := headers["content-length"]
	if !ok {
		return nil, framingHeader, fmt.Errorf("missing Content-Length")
	}
	length, err := strconv.Atoi(clStr)
	if err != nil || length < 0 {
		return nil, framingHeader, fmt.Errorf("invalid Content-Length: %q", clStr)
	}
	if length > MaxMessageSize {
		return nil, framingHeader, fmt.Errorf("message of %d bytes exceeds limit of %d", length, MaxMessageSize)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, framingHeader, err
	}
	return body, framingHeader, nil
}

// readLongLine finishes a line that did not fit in the reader's buffer.
func readLongLine(r *bufio.Reader, head []byte) ([]byte, error) {
	buf := append([]byte(nil), head...)
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > MaxMessageSize {
			return nil, fmt.Errorf("message exceeds limit of %d bytes", MaxMessageSize)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, err
	}
}

// ServeStdio answers requests read from in until in is exhausted or ctx is
// cancelled. Requests are handled one at a time, in order.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)
	logging.LogEvent("MCP stdio transport ready")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		body, f, err := readMessage(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// The stream is out of sync; report once and stop.
			_ = writeMessage(w, f, makeError(nil, codeParseError, err.Error()))
			return fmt.Errorf("read stdio message: %w", err)
		}
		if len(body) == 0 {
			continue
		}
		resp := s.handleMessage(ctx, "stdio", body)
		if resp == nil {
			continue
		}
		if err := writeMessage(w, f, resp); err != nil {
			return fmt.Errorf("write stdio message: %w", err)
		}
	}
}
