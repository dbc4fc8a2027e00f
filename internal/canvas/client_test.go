// internal/canvas/client_test.go
package canvas

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		conn Connection
		ok   bool
	}{
		{name: "valid", conn: Connection{BaseURL: "https://canvas.example.edu", APIToken: "t"}, ok: true},
		{name: "missing url", conn: Connection{APIToken: "t"}},
		{name: "missing token", conn: Connection{BaseURL: "https://canvas.example.edu"}},
		{name: "relative url", conn: Connection{BaseURL: "canvas.example.edu", APIToken: "t"}},
		{name: "bad scheme", conn: Connection{BaseURL: "ftp://canvas.example.edu", APIToken: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conn.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestGetSendsBearerTokenAndPrefix(t *testing.T) {
	fake, server := newFakeCanvas(t)
	fake.route("courses", 200, `[{"id":1}]`)
	client := newTestClient(t, server)

	query := url.Values{}
	query.Set("enrollment_state", "active")
	raw, err := client.Get(context.Background(), "/courses", query)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(raw))
	assert.Equal(t, []string{"Bearer secret-token"}, fake.authHeaders())
	assert.Equal(t, "enrollment_state=active", fake.query("courses"))
}

func TestGetRejectsVersionPrefixInPath(t *testing.T) {
	_, server := newFakeCanvas(t)
	client := newTestClient(t, server)

	_, err := client.Get(context.Background(), "/api/v1/courses", nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetMapsStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
		substr string
	}{
		{name: "unauthorized", status: 401, want: ErrAuth, substr: "check your API token"},
		{name: "forbidden", status: 403, want: ErrAuth, substr: "check your API token"},
		{name: "not found", status: 404, want: ErrNotFound, substr: "not found"},
		{name: "server error", status: 500, want: ErrUpstream, substr: "status 500"},
		{name: "teapot", status: 418, want: ErrUpstream, substr: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, server := newFakeCanvas(t)
			fake.route("thing", tt.status, `{"message":"boom"}`)
			client := newTestClient(t, server)

			_, err := client.Get(context.Background(), "thing", nil)
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.substr)

			var ce *Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.status, ce.Status)
		})
	}
}

func TestGetTruncatesUpstreamBody(t *testing.T) {
	fake, server := newFakeCanvas(t)
	fake.route("big", 502, strings.Repeat("x", 1000))
	client := newTestClient(t, server)

	_, err := client.Get(context.Background(), "big", nil)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, bodySnippetRunes+1, len([]rune(ce.Body)))
}

func TestGetMalformedJSON(t *testing.T) {
	fake, server := newFakeCanvas(t)
	fake.route("courses", 200, `<html>login</html>`)
	client := newTestClient(t, server)

	_, err := client.Get(context.Background(), "courses", nil)
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestGetIntoShapeMismatch(t *testing.T) {
	fake, server := newFakeCanvas(t)
	fake.route("courses", 200, `{"not":"a list"}`)
	client := newTestClient(t, server)

	var out []rawCourse
	err := client.GetInto(context.Background(), "courses", nil, &out)
	require.ErrorIs(t, err, ErrUpstream)
}

func TestGetTransportFailure(t *testing.T) {
	_, server := newFakeCanvas(t)
	client := newTestClient(t, server)
	server.Close()

	_, err := client.Get(context.Background(), "courses", nil)
	require.ErrorIs(t, err, ErrUpstream)
	host := strings.TrimPrefix(server.URL, "http://")
	assert.NotContains(t, err.Error(), host)
	assert.NotContains(t, err.Error(), server.URL)
	assert.Contains(t, err.Error(), "request failed")
}

func TestGetCancelledContext(t *testing.T) {
	fake, server := newFakeCanvas(t)
	fake.route("courses", 200, `[]`)
	client := newTestClient(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Get(ctx, "courses", nil)
	require.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(&Error{Kind: KindNotFound}))
	assert.Equal(t, KindUpstream, KindOf(errors.New("plain")))
}
