package fetcher

import (
	"context"

	"github.com/rohmanhakim/site-crawler/pkg/failure"
)

// Fetcher is the only HTTP surface the crawl engine depends on.
// Resilience policies (retries, caching) belong to implementations.
type Fetcher interface {
	Fetch(
		ctx context.Context,
		crawlDepth int,
		fetchParam FetchParam,
	) (FetchResult, failure.ClassifiedError)
}
