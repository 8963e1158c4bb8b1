package robots

import (
	"net/url"
	"time"
)

type DecisionReason string

const (
	AllowedByRobots    DecisionReason = "allowed_by_robots"
	DisallowedByRobots DecisionReason = "disallowed_by_robots"
	// RobotsUnavailable means robots.txt could not be fetched or parsed and
	// the URL is allowed.
	RobotsUnavailable DecisionReason = "robots_unavailable"
)

type Decision struct {
	Url url.URL

	Allowed bool

	// Why this decision was made (for logging/debugging)
	Reason DecisionReason

	// Optional delay override (robots crawl-delay)
	CrawlDelay *time.Duration
}
