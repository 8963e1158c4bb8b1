package storage_test

import (
	"sync"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/results"
)

type recordedError struct {
	packageName string
	action      string
	cause       metadata.ErrorCause
	attrs       []metadata.Attribute
}

type metadataSinkMock struct {
	metadata.NoopSink
	mu     sync.Mutex
	errors []recordedError
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, recordedError{
		packageName: packageName,
		action:      action,
		cause:       cause,
		attrs:       attrs,
	})
}

func (m *metadataSinkMock) recorded() []recordedError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedError(nil), m.errors...)
}

func sampleResults() []results.CrawlResult {
	body := "<html><body>home</body></html>"
	return []results.CrawlResult{
		{
			ID:           1,
			RequestPath:  "https://example.com/",
			Depth:        1,
			StatusCode:   200,
			Errors:       []string{},
			ResponseBody: &body,
			ContentType:  "text/html",
			LinksFound:   1,
		},
		{
			ID:          2,
			RequestPath: "https://example.com/missing",
			FoundURL:    "https://example.com/",
			Depth:       2,
			StatusCode:  404,
			Errors:      []string{"client error (status 404): not found"},
		},
	}
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}
