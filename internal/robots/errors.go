package robots

import (
	"fmt"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
)

type RobotsErrorCause string

const (
	ErrCausePreFetchFailure      RobotsErrorCause = "failed to build robots.txt request"
	ErrCauseHttpFetchFailure     RobotsErrorCause = "failed to fetch robots.txt"
	ErrCauseHttpTooManyRequests  RobotsErrorCause = "rate limited fetching robots.txt"
	ErrCauseHttpUnexpectedStatus RobotsErrorCause = "unexpected robots.txt status"
	ErrCauseParseError           RobotsErrorCause = "failed to parse robots.txt"
)

type RobotsError struct {
	Message   string
	Retryable bool
	Cause     RobotsErrorCause
}

func (e *RobotsError) Error() string {
	return fmt.Sprintf("robots error: %s: %s", e.Cause, e.Message)
}

func (e *RobotsError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapRobotsErrorToMetadataCause maps robots-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapRobotsErrorToMetadataCause(err *RobotsError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseHttpFetchFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseHttpTooManyRequests:
		return metadata.CausePolicyDisallow
	case ErrCauseParseError, ErrCauseHttpUnexpectedStatus:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
