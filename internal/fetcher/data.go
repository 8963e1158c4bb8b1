package fetcher

import (
	"net/url"
	"time"
)

// HTTP boundary

type FetchParam struct {
	fetchUrl  url.URL
	userAgent string
	timeout   time.Duration
}

// NewFetchParam builds the request parameters. A zero timeout leaves the
// deadline to the caller's context.
func NewFetchParam(fetchUrl url.URL, userAgent string, timeout time.Duration) FetchParam {
	return FetchParam{
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (p FetchParam) URL() url.URL {
	return p.fetchUrl
}

func (p FetchParam) UserAgent() string {
	return p.userAgent
}

func (p FetchParam) Timeout() time.Duration {
	return p.timeout
}

// FetchResult is a received response. HTTP error statuses are results too;
// only transport failures are reported as errors.
type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

// URL is the final URL after redirects.
func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) ContentType() string {
	return f.meta.contentType
}

func (f *FetchResult) Elapsed() time.Duration {
	return f.meta.elapsed
}

// Truncated reports whether the body was cut at the size cap.
func (f *FetchResult) Truncated() bool {
	return f.meta.truncated
}

type ResponseMeta struct {
	statusCode  int
	contentType string
	elapsed     time.Duration
	truncated   bool
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	contentType string,
	elapsed time.Duration,
) FetchResult {
	return FetchResult{
		url:  url,
		body: body,
		meta: ResponseMeta{
			statusCode:  statusCode,
			contentType: contentType,
			elapsed:     elapsed,
		},
	}
}
