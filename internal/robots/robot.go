package robots

import (
	"context"
	"net/url"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/robots/cache"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
	"github.com/rohmanhakim/site-crawler/pkg/timeutil"
)

/*
Responsibilities

- Fetch robots.txt per host (through RobotsFetcher)
- Cache rules for crawl duration
- Answer allow/disallow for a URL before it enters the frontier
- Expose the host's Crawl-delay to the politeness pause

Robots checks occur before a URL enters the frontier. Infrastructure failures
never block crawling: the URL is allowed and the error is recorded.
*/

type Robot struct {
	metadataSink metadata.MetadataSink
	fetcher      *RobotsFetcher
	userAgent    string
}

// NewRobot builds the default robots gate. A nil fetcher gets one with an
// in-memory cache.
func NewRobot(metadataSink metadata.MetadataSink, userAgent string, fetcher *RobotsFetcher) *Robot {
	if fetcher == nil {
		fetcher = NewRobotsFetcher(userAgent, nil, cache.NewMemoryCache[RobotsFetchResult]())
	}
	return &Robot{
		metadataSink: metadataSink,
		fetcher:      fetcher,
		userAgent:    userAgent,
	}
}

func (r *Robot) Decide(ctx context.Context, target url.URL) (Decision, failure.ClassifiedError) {
	result, err := r.fetcher.Fetch(ctx, target.Scheme, target.Host)
	if err != nil {
		r.metadataSink.RecordError(
			time.Now(),
			"robots",
			"Robot.Decide",
			mapRobotsErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, target.String()),
				metadata.NewAttr(metadata.AttrHost, target.Host),
			},
		)
		return Decision{Url: target, Allowed: true, Reason: RobotsUnavailable}, err
	}
	if result.Unavailable || result.Data == nil {
		return Decision{Url: target, Allowed: true, Reason: RobotsUnavailable}, nil
	}

	decision := Decision{
		Url:     target,
		Allowed: result.Data.TestAgent(robotsPath(target), r.userAgent),
		Reason:  AllowedByRobots,
	}
	if !decision.Allowed {
		decision.Reason = DisallowedByRobots
	}
	if group := result.Data.FindGroup(r.userAgent); group != nil && group.CrawlDelay > 0 {
		decision.CrawlDelay = timeutil.DurationPtr(group.CrawlDelay)
	}
	return decision, nil
}

func (r *Robot) IsAllowed(ctx context.Context, target url.URL) bool {
	decision, _ := r.Decide(ctx, target)
	return decision.Allowed
}

// CrawlDelay returns the Crawl-delay robots.txt sets for our agent on the
// target's host, or zero.
func (r *Robot) CrawlDelay(ctx context.Context, target url.URL) time.Duration {
	decision, _ := r.Decide(ctx, target)
	if decision.CrawlDelay == nil {
		return 0
	}
	return *decision.CrawlDelay
}

func robotsPath(target url.URL) string {
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return path
}

var (
	_ Gate         = (*Robot)(nil)
	_ CrawlDelayer = (*Robot)(nil)
	_ Gate         = AllowAll{}
)
