package robots

import (
	"context"
	"net/url"
	"time"
)

// Gate answers whether a URL may be crawled. Implementations must be safe for
// concurrent use and must not block forever: when in doubt, allow.
type Gate interface {
	IsAllowed(ctx context.Context, target url.URL) bool
}

// CrawlDelayer is implemented by gates that know a per-host crawl delay.
type CrawlDelayer interface {
	CrawlDelay(ctx context.Context, target url.URL) time.Duration
}

// AllowAll is a Gate that permits everything.
type AllowAll struct{}

func (AllowAll) IsAllowed(context.Context, url.URL) bool { return true }
