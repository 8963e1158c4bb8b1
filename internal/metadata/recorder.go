package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Fetch timestamps, durations and HTTP status codes
- Frontier admission decisions
- Classified errors
- Final crawl stats

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the frontier

Metadata is write-only.
No component may read metadata to influence crawl decisions.
*/

/*
Recorder captures structured crawl events as zerolog lines and, when metrics
are attached, as prometheus observations.

Ordering guarantees:
- Events are recorded synchronously in the order they are received by a single worker.
- No global ordering across workers is guaranteed.
*/
type Recorder struct {
	logger  zerolog.Logger
	metrics *Metrics
}

// NewRecorder returns a recorder writing to logger. metrics may be nil.
func NewRecorder(logger zerolog.Logger, metrics *Metrics) *Recorder {
	return &Recorder{
		logger:  logger,
		metrics: metrics,
	}
}

// WithRun returns a recorder whose lines carry the run id.
func (r *Recorder) WithRun(runID string) *Recorder {
	return &Recorder{
		logger:  r.logger.With().Str("run_id", runID).Logger(),
		metrics: r.metrics,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	event := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Str("cause", cause.String())
	for _, attr := range attrs {
		event = event.Str(string(attr.Key), attr.Value)
	}
	event.Msg(errorString)

	if r.metrics != nil {
		r.metrics.observeError(packageName, cause)
	}
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
	r.logger.Debug().
		Str("url", fetchUrl).
		Int("status", httpStatus).
		Dur("duration", duration).
		Str("content_type", contentType).
		Int("depth", crawlDepth).
		Msg("fetched")

	if r.metrics != nil {
		r.metrics.observeFetch(httpStatus, duration)
	}
}

func (r *Recorder) RecordAdmission(targetUrl string, depth int, reason string) {
	r.logger.Debug().
		Str("url", targetUrl).
		Int("depth", depth).
		Str("reason", reason).
		Msg("admission")

	if r.metrics != nil {
		r.metrics.observeAdmission(reason)
	}
}

/*
RecordFinalCrawlStats records a terminal, derived summary of a completed crawl.

Contract:
  - MUST be called exactly once per crawl execution.
  - MUST be called only after crawl termination
    (frontier exhausted or run cancelled).
  - The provided CrawlStats MUST be derived from scheduler state,
    not accumulated incrementally via the recorder.
*/
func (r *Recorder) RecordFinalCrawlStats(stats CrawlStats) {
	r.logger.Info().
		Str("state", stats.FinalState).
		Int("pages", stats.TotalPages).
		Int("errors", stats.TotalErrors).
		Int("accepted", stats.AcceptedCandidates).
		Int("dropped_progress", stats.DroppedProgress).
		Int64("duration_ms", stats.Duration.Milliseconds()).
		Msg("crawl finished")

	if r.metrics != nil {
		r.metrics.observeRun(stats.FinalState)
	}
}
