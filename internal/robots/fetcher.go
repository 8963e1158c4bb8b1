package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/robots/cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

/*
RobotsFetcher

Responsibilities:
- Fetch robots.txt per scheme and host using net/http
- Parse the body with temoto/robotstxt
- Cache one result per host for the crawl duration
- Collapse concurrent fetches of the same host into one request

Status handling follows robotstxt.FromStatusAndBytes: 2xx is parsed, 4xx
allows everything, 5xx disallows everything. Transport failures and 429 are
errors; the host is then cached as unavailable so the run does not keep
retrying it.

The fetcher does not make decisions about URL permissions.
*/

// maxRobotsBytes caps how much of a robots.txt body is read.
const maxRobotsBytes = 500 * 1024

type RobotsFetcher struct {
	httpClient *http.Client
	userAgent  string
	cache      cache.Cache[RobotsFetchResult]
	inflight   singleflight.Group
}

// RobotsFetchResult represents the result of fetching a robots.txt file.
type RobotsFetchResult struct {
	Data        *robotstxt.RobotsData
	FetchedAt   time.Time
	SourceURL   string
	HTTPStatus  int
	Unavailable bool
}

// NewRobotsFetcher creates a new RobotsFetcher. A nil cache disables caching;
// a nil httpClient gets a client with a 30s timeout.
func NewRobotsFetcher(
	userAgent string,
	httpClient *http.Client,
	resultCache cache.Cache[RobotsFetchResult],
) *RobotsFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RobotsFetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		cache:      resultCache,
	}
}

func cacheKey(scheme, host string) string {
	return fmt.Sprintf("%s://%s/robots.txt", scheme, host)
}

// Fetch returns the robots.txt rules of scheme://host. The host may carry a
// port. An error result still carries an allow-all Data so callers can fail
// open.
func (f *RobotsFetcher) Fetch(ctx context.Context, scheme, host string) (RobotsFetchResult, *RobotsError) {
	key := cacheKey(scheme, host)
	if f.cache != nil {
		if cached, found := f.cache.Get(key); found {
			return cached, nil
		}
	}

	value, err, _ := f.inflight.Do(key, func() (any, error) {
		if f.cache != nil {
			if cached, found := f.cache.Get(key); found {
				return cached, nil
			}
		}

		result, fetchErr := f.fetch(ctx, key)
		if fetchErr != nil {
			result = unavailable(key)
		}
		// a cancelled run says nothing about the host
		if f.cache != nil && ctx.Err() == nil {
			f.cache.Put(key, result)
		}
		if fetchErr != nil {
			return result, fetchErr
		}
		return result, nil
	})

	result, _ := value.(RobotsFetchResult)
	if err != nil {
		var robotsErr *RobotsError
		if !errors.As(err, &robotsErr) {
			robotsErr = &RobotsError{
				Message:   err.Error(),
				Retryable: true,
				Cause:     ErrCauseHttpFetchFailure,
			}
		}
		return result, robotsErr
	}
	return result, nil
}

func (f *RobotsFetcher) fetch(ctx context.Context, robotsURL string) (RobotsFetchResult, *RobotsError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return RobotsFetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCausePreFetchFailure,
		}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain,text/html,*/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return RobotsFetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("failed to fetch robots.txt: %v", err),
			Retryable: true,
			Cause:     ErrCauseHttpFetchFailure,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return RobotsFetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("rate limited (429) when fetching %s", robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpTooManyRequests,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return RobotsFetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("failed to read robots.txt body: %v", err),
			Retryable: true,
			Cause:     ErrCauseHttpFetchFailure,
		}
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		cause := ErrCauseParseError
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			cause = ErrCauseHttpUnexpectedStatus
		}
		return RobotsFetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("%s (status %d): %v", robotsURL, resp.StatusCode, err),
			Retryable: false,
			Cause:     cause,
		}
	}

	return RobotsFetchResult{
		Data:       data,
		FetchedAt:  time.Now(),
		SourceURL:  robotsURL,
		HTTPStatus: resp.StatusCode,
	}, nil
}

func unavailable(robotsURL string) RobotsFetchResult {
	// a 404 is robotstxt's allow-all
	data, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	return RobotsFetchResult{
		Data:        data,
		FetchedAt:   time.Now(),
		SourceURL:   robotsURL,
		Unavailable: true,
	}
}

func (f *RobotsFetcher) UserAgent() string {
	return f.userAgent
}
