package fetcher_test

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/stretchr/testify/require"
)

// metadataSinkSpy is a test double for metadata.MetadataSink
type metadataSinkSpy struct {
	mu          sync.Mutex
	fetchEvents []fetchEvent
	errorEvents []errorEvent
}

type fetchEvent struct {
	fetchUrl    string
	httpStatus  int
	contentType string
	crawlDepth  int
}

type errorEvent struct {
	packageName string
	action      string
	cause       metadata.ErrorCause
}

func (m *metadataSinkSpy) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchEvents = append(m.fetchEvents, fetchEvent{
		fetchUrl:    fetchUrl,
		httpStatus:  httpStatus,
		contentType: contentType,
		crawlDepth:  crawlDepth,
	})
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
	m.errorEvents = append(m.errorEvents, errorEvent{
		packageName: packageName,
		action:      action,
		cause:       cause,
	})
}

func (m *metadataSinkSpy) RecordAdmission(targetUrl string, depth int, reason string) {}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}
