package metadata

import "time"

// MetadataSink is injected into every pipeline stage. Implementations are
// write-only: no component may read metadata to influence crawl decisions.
type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		crawlDepth int,
	)

	// RecordAdmission observes a frontier decision for a discovered link.
	RecordAdmission(
		targetUrl string,
		depth int,
		reason string,
	)
}

type CrawlFinalizer interface {
	RecordFinalCrawlStats(stats CrawlStats)
}

// NoopSink implements MetadataSink and CrawlFinalizer but does nothing.
// Scheduler (or tests) decide whether to inject a Recorder or NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
}

func (n *NoopSink) RecordAdmission(targetUrl string, depth int, reason string) {}

func (n *NoopSink) RecordFinalCrawlStats(stats CrawlStats) {}
