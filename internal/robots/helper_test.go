package robots_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "site-crawler-test/1.0"

type metadataSinkSpy struct {
	metadata.NoopSink
	mu     sync.Mutex
	causes []metadata.ErrorCause
}

func (m *metadataSinkSpy) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.causes = append(m.causes, cause)
}

func (m *metadataSinkSpy) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.causes)
}

// robotsServer serves robots.txt with the given status and body and counts
// how often it was requested.
func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}
