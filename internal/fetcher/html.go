package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
	"golang.org/x/time/rate"
)

/*
Responsibilities

- Perform HTTP GET requests
- Apply headers and timeouts
- Follow redirects within a bounded chain
- Classify transport failures

Fetch Semantics

- Every received response is returned, whatever its status
- Bodies are capped at maxBodyBytes
- An optional process-wide rate cap spaces out all requests
- All fetches are recorded with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

const (
	DefaultMaxBodyBytes int64 = 10 << 20
	DefaultMaxRedirects       = 10
)

var errRedirectLimit = errors.New("stopped after too many redirects")

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxBodyBytes int64
}

type Option func(*HtmlFetcher)

// WithHTTPClient replaces the underlying client. Its CheckRedirect is
// replaced by the bounded redirect policy.
func WithHTTPClient(client *http.Client) Option {
	return func(h *HtmlFetcher) {
		c := *client
		h.httpClient = &c
	}
}

// WithRateLimit caps the request rate of this fetcher across all workers.
// A non-positive requestsPerSecond disables the cap.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(h *HtmlFetcher) {
		if requestsPerSecond <= 0 {
			h.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(h *HtmlFetcher) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
	opts ...Option,
) *HtmlFetcher {
	h := &HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.httpClient.CheckRedirect = limitRedirects
	return h
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	crawlDepth int,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"

	if fetchParam.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fetchParam.timeout)
		defer cancel()
	}

	startTime := time.Now()
	result, err := h.fetch(ctx, fetchParam)
	duration := time.Since(startTime)

	h.metadataSink.RecordFetch(
		fetchParam.fetchUrl.String(),
		result.Code(),
		duration,
		result.ContentType(),
		crawlDepth,
	)

	if err != nil {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchParam.fetchUrl.String()),
			},
		)
		return FetchResult{meta: ResponseMeta{elapsed: duration}}, err
	}

	result.meta.elapsed = duration
	return result, nil
}

func (h *HtmlFetcher) fetch(ctx context.Context, fetchParam FetchParam) (FetchResult, *FetchError) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return FetchResult{}, classifyTransportError(ctx, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchParam.fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
			Err:       err,
		}
	}

	for key, value := range requestHeaders(fetchParam.userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	// read one byte past the cap to detect truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBodyBytes+1))
	if err != nil {
		fetchErr := classifyTransportError(ctx, err)
		if fetchErr.Cause == ErrCauseNetworkFailure {
			fetchErr.Cause = ErrCauseReadResponseBodyError
		}
		return FetchResult{}, fetchErr
	}
	truncated := int64(len(body)) > h.maxBodyBytes
	if truncated {
		body = body[:h.maxBodyBytes]
	}

	return FetchResult{
		url:  *resp.Request.URL,
		body: body,
		meta: ResponseMeta{
			statusCode:  resp.StatusCode,
			contentType: resp.Header.Get("Content-Type"),
			truncated:   truncated,
		},
	}, nil
}

func classifyTransportError(ctx context.Context, err error) *FetchError {
	switch {
	case errors.Is(err, errRedirectLimit):
		return &FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseRedirectLimitExceeded,
			Err:       err,
		}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || isNetTimeout(err):
		return &FetchError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseTimeout,
			Err:       err,
		}
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return &FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseCancelled,
			Err:       err,
		}
	default:
		return &FetchError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Err:       err,
		}
	}
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= DefaultMaxRedirects {
		return fmt.Errorf("%w (%d)", errRedirectLimit, len(via))
	}
	return nil
}

// IsHTMLContent reports whether a Content-Type header denotes an HTML document.
func IsHTMLContent(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// LooksLikeHTML decides whether a response should be parsed. The header wins
// when present; otherwise the body is sniffed.
func LooksLikeHTML(contentType string, body []byte) bool {
	if contentType != "" {
		return IsHTMLContent(contentType)
	}
	return IsHTMLContent(http.DetectContentType(body))
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
	}
}

var _ Fetcher = (*HtmlFetcher)(nil)
