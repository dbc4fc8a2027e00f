// internal/canvas/errors.go
package canvas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwiater/canvasmcp/internal/util"
)

// ErrorKind names a class of failure surfaced to tool callers.
type ErrorKind string

const (
	// KindAuth means the upstream rejected the bearer token.
	KindAuth ErrorKind = "AuthError"
	// KindNotFound means the requested course or resource does not exist or is not visible.
	KindNotFound ErrorKind = "NotFoundError"
	// KindInvalidArgument means the caller supplied a bad argument.
	KindInvalidArgument ErrorKind = "InvalidArgument"
	// KindUpstream covers unexpected statuses, malformed payloads and transport failures.
	KindUpstream ErrorKind = "UpstreamError"
	// KindPartialFailure is only ever recorded in Diagnostics, never returned.
	KindPartialFailure ErrorKind = "PartialFailure"
)

// bodySnippetRunes bounds how much of an upstream error body is kept.
const bodySnippetRunes = 256

// Error is the structured failure returned by every operation in this package.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Body    string
	Err     error
}

// Sentinels for errors.Is matching on kind.
var (
	ErrAuth            = &Error{Kind: KindAuth}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the ErrorKind of err, defaulting to KindUpstream for foreign errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUpstream
}

func invalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func upstreamError(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// statusError maps a non-2xx upstream status onto the error taxonomy.
func statusError(status int, path string, body []byte) *Error {
	snippet := util.TruncateRunes(strings.TrimSpace(string(body)), bodySnippetRunes)
	switch {
	case status == 401 || status == 403:
		return &Error{
			Kind:    KindAuth,
			Status:  status,
			Message: fmt.Sprintf("canvas rejected the request for %s, check your API token", path),
		}
	case status == 404:
		return &Error{
			Kind:    KindNotFound,
			Status:  status,
			Message: fmt.Sprintf("canvas resource %s not found", path),
		}
	default:
		return &Error{
			Kind:    KindUpstream,
			Status:  status,
			Message: fmt.Sprintf("canvas returned an unexpected status for %s", path),
			Body:    snippet,
		}
	}
}
