// internal/canvas/canvas_test.go
package canvas

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fixedNow is the clock every test in this package runs against.
var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeCanvas serves canned JSON bodies keyed by API path (without the prefix).
type fakeCanvas struct {
	t       *testing.T
	mu      sync.Mutex
	routes  map[string]fakeRoute
	hits    map[string]int
	queries map[string]string
	auth    []string
}

type fakeRoute struct {
	status int
	body   string
}

func newFakeCanvas(t *testing.T) (*fakeCanvas, *httptest.Server) {
	t.Helper()
	f := &fakeCanvas{
		t:       t,
		routes:  map[string]fakeRoute{},
		hits:    map[string]int{},
		queries: map[string]string{},
	}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeCanvas) route(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = fakeRoute{status: status, body: body}
}

func (f *fakeCanvas) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, APIPrefix)
	f.mu.Lock()
	f.hits[path]++
	f.queries[path] = r.URL.RawQuery
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	rt, ok := f.routes[path]
	f.mu.Unlock()
	if !ok {
		http.Error(w, `{"errors":[{"message":"The specified resource does not exist."}]}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rt.status)
	_, _ = w.Write([]byte(rt.body))
}

func (f *fakeCanvas) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeCanvas) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func (f *fakeCanvas) query(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(
		Connection{BaseURL: server.URL + "/", APIToken: "secret-token"},
		WithHTTPClient(server.Client()),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return client
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func days(n float64) time.Time {
	return fixedNow.Add(time.Duration(n * float64(24*time.Hour)))
}
