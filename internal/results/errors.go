package results

import (
	"fmt"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
)

// ErrorKind classifies a per-page failure.
type ErrorKind string

const (
	// KindTransient covers 5xx responses and connection failures.
	KindTransient ErrorKind = "transient"
	KindTimeout   ErrorKind = "timeout"
	// KindClient covers 4xx, other non-2xx responses and unfetchable links.
	KindClient    ErrorKind = "client"
	KindParse     ErrorKind = "parse"
	KindCancelled ErrorKind = "cancelled"
	// KindInternal marks a recovered panic while processing the page.
	KindInternal ErrorKind = "internal"
)

// CrawlError is a failure attached to a CrawlResult. It never stops the run.
type CrawlError struct {
	Message    string
	URL        string
	StatusCode int
	Depth      int
	Kind       ErrorKind
	Cause      error
}

func (e *CrawlError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// Severity is always recoverable: page failures are recorded and the crawl
// moves on.
func (e *CrawlError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// MetadataCause maps the kind to the canonical metadata.ErrorCause table.
// Observational only.
func (e *CrawlError) MetadataCause() metadata.ErrorCause {
	switch e.Kind {
	case KindTransient, KindTimeout:
		return metadata.CauseNetworkFailure
	case KindClient:
		if e.StatusCode == 401 || e.StatusCode == 403 {
			return metadata.CausePolicyDisallow
		}
		return metadata.CauseContentInvalid
	case KindParse:
		return metadata.CauseContentInvalid
	case KindCancelled:
		return metadata.CauseCancelled
	case KindInternal:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
