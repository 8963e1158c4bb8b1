package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/config"
	"github.com/rohmanhakim/site-crawler/internal/extractor"
	"github.com/rohmanhakim/site-crawler/internal/fetcher"
	"github.com/rohmanhakim/site-crawler/internal/frontier"
	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/results"
	"github.com/rohmanhakim/site-crawler/internal/robots"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
	"github.com/rohmanhakim/site-crawler/pkg/hashutil"
)

const reasonRobotsDisallowed = "robots_disallowed"

/*
pageProcessor Responsibilities
- Turn one task into one finalized CrawlResult
- Fetch under the per-page time budget
- Parse HTML responses and extract candidate links
- Submit candidates to the frontier, after scope and robots checks

Process and submit are separate steps: the worker calls submit only when the
task holds its commit turn. Every failure ends up on the result. Nothing here
stops the run.
*/
type pageProcessor struct {
	options      config.CrawlOptions
	seedHost     string
	fetcher      fetcher.Fetcher
	parser       extractor.Parser
	gate         robots.Gate
	frontier     *frontier.Frontier
	metadataSink metadata.MetadataSink
}

func newResult(task frontier.CrawlTask) results.CrawlResult {
	return results.CrawlResult{
		ID:          task.ID,
		RequestPath: task.URL,
		FoundURL:    task.FoundFrom,
		Depth:       task.Depth,
		Errors:      []string{},
	}
}

// Process fetches and parses the task's page. It returns the result and the
// candidate links found on it; the links are not submitted yet.
func (p *pageProcessor) Process(ctx context.Context, task frontier.CrawlTask) (results.CrawlResult, []extractor.CandidateLink) {
	result := newResult(task)

	pageUrl, err := url.Parse(task.URL)
	if err != nil {
		result.AddError(&results.CrawlError{
			Message: "unfetchable url",
			URL:     task.URL,
			Depth:   task.Depth,
			Kind:    results.KindClient,
			Cause:   err,
		})
		return result, nil
	}

	pageCtx := ctx
	if timeout := p.options.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fetchParam := fetcher.NewFetchParam(*pageUrl, p.options.UserAgent, p.options.Timeout())
	fetchResult, fetchErr := p.fetcher.Fetch(pageCtx, task.Depth, fetchParam)
	if fetchErr != nil {
		result.ElapsedMilliseconds = fetchResult.Elapsed().Milliseconds()
		result.AddError(fetchFailure(task, fetchErr))
		return result, nil
	}

	body := fetchResult.Body()
	bodyText := string(body)
	result.StatusCode = fetchResult.Code()
	result.ResponseBody = &bodyText
	result.ContentType = fetchResult.ContentType()
	result.ContentHash = hashutil.ContentHash(body)
	result.ElapsedMilliseconds = fetchResult.Elapsed().Milliseconds()
	result.Truncated = fetchResult.Truncated()

	if code := fetchResult.Code(); code < 200 || code > 299 {
		p.fail(&result, statusFailure(task, code))
		return result, nil
	}

	if !fetcher.LooksLikeHTML(fetchResult.ContentType(), body) {
		return result, nil
	}

	if err := pageCtx.Err(); err != nil {
		p.fail(&result, contextFailure(task, err))
		return result, nil
	}

	baseUrl := fetchResult.URL()
	if baseUrl.Host == "" {
		baseUrl = *pageUrl
	}

	doc, parseErr := p.parser.Parse(baseUrl, body)
	if parseErr != nil {
		result.AddError(&results.CrawlError{
			Message:    parseErr.Error(),
			URL:        task.URL,
			StatusCode: result.StatusCode,
			Depth:      task.Depth,
			Kind:       results.KindParse,
			Cause:      parseErr,
		})
		return result, nil
	}

	links := extractor.ExtractLinks(doc, baseUrl, p.seedHost)

	// a budget that ran out while parsing discards the links
	if err := pageCtx.Err(); err != nil {
		p.fail(&result, contextFailure(task, err))
		return result, nil
	}
	result.LinksFound = len(links)

	return result, links
}

// submit hands the page's candidates to the frontier. External links are
// dropped here when they may not be followed, and robots.txt is consulted
// only for links that could still be admitted.
func (p *pageProcessor) submit(ctx context.Context, task frontier.CrawlTask, links []extractor.CandidateLink) {
	childDepth := task.Depth + 1

	for _, link := range links {
		if ctx.Err() != nil {
			return
		}

		if link.Kind == extractor.External && !p.options.FollowExternalLinks {
			p.metadataSink.RecordAdmission(link.URL, childDepth, string(frontier.ReasonExternal))
			continue
		}

		admissible := childDepth <= p.options.MaxDepth &&
			p.frontier.AcceptedCount() < p.options.MaxPages &&
			!p.frontier.Seen(link.URL)
		if admissible && p.gate != nil && !p.allowedByRobots(ctx, link.URL) {
			p.metadataSink.RecordAdmission(link.URL, childDepth, reasonRobotsDisallowed)
			continue
		}

		admission := p.frontier.TryAccept(link.URL, childDepth, task.URL)
		p.metadataSink.RecordAdmission(admission.URL, childDepth, string(admission.Reason))
	}
}

func (p *pageProcessor) allowedByRobots(ctx context.Context, rawUrl string) bool {
	target, err := url.Parse(rawUrl)
	if err != nil {
		return true
	}
	return p.gate.IsAllowed(ctx, *target)
}

// fail attaches a failure detected by the processor itself. Failures from
// the fetcher and parser were already recorded by those stages.
func (p *pageProcessor) fail(result *results.CrawlResult, crawlErr *results.CrawlError) {
	result.AddError(crawlErr)
	p.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		"pageProcessor.Process",
		crawlErr.MetadataCause(),
		crawlErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, crawlErr.URL),
			metadata.NewAttr(metadata.AttrDepth, fmt.Sprint(crawlErr.Depth)),
			metadata.NewAttr(metadata.AttrHTTPStatus, fmt.Sprint(crawlErr.StatusCode)),
		},
	)
}

// panicResult is the result of a task whose processing panicked.
func (p *pageProcessor) panicResult(task frontier.CrawlTask, recovered any) results.CrawlResult {
	result := newResult(task)
	p.recordPanic(&result, task, "pageProcessor.Process", recovered)
	return result
}

// recordPanic attaches a recovered panic to result as an internal error.
func (p *pageProcessor) recordPanic(result *results.CrawlResult, task frontier.CrawlTask, action string, recovered any) {
	message := fmt.Sprintf("panic while processing page: %v", recovered)
	result.AddError(&results.CrawlError{
		Message: message,
		URL:     task.URL,
		Depth:   task.Depth,
		Kind:    results.KindInternal,
	})

	p.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		action,
		metadata.CauseInvariantViolation,
		message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, task.URL),
			metadata.NewAttr(metadata.AttrTaskID, fmt.Sprint(task.ID)),
		},
	)
}

func statusFailure(task frontier.CrawlTask, code int) *results.CrawlError {
	kind := results.KindClient
	if code >= 500 {
		kind = results.KindTransient
	}
	message := http.StatusText(code)
	if message == "" {
		message = "unexpected status"
	}
	return &results.CrawlError{
		Message:    message,
		URL:        task.URL,
		StatusCode: code,
		Depth:      task.Depth,
		Kind:       kind,
	}
}

func contextFailure(task frontier.CrawlTask, err error) *results.CrawlError {
	kind := results.KindCancelled
	message := "crawl cancelled"
	if errors.Is(err, context.DeadlineExceeded) {
		kind = results.KindTimeout
		message = "page time budget exceeded"
	}
	return &results.CrawlError{
		Message: message,
		URL:     task.URL,
		Depth:   task.Depth,
		Kind:    kind,
		Cause:   err,
	}
}

func fetchFailure(task frontier.CrawlTask, err failure.ClassifiedError) *results.CrawlError {
	crawlErr := &results.CrawlError{
		Message: err.Error(),
		URL:     task.URL,
		Depth:   task.Depth,
		Kind:    results.KindTransient,
		Cause:   err,
	}

	var fetchErr *fetcher.FetchError
	switch {
	case errors.As(err, &fetchErr):
		switch fetchErr.Cause {
		case fetcher.ErrCauseTimeout:
			crawlErr.Kind = results.KindTimeout
		case fetcher.ErrCauseCancelled:
			crawlErr.Kind = results.KindCancelled
		case fetcher.ErrCauseInvalidRequest, fetcher.ErrCauseRedirectLimitExceeded:
			crawlErr.Kind = results.KindClient
		}
	case errors.Is(err, context.DeadlineExceeded):
		crawlErr.Kind = results.KindTimeout
	case errors.Is(err, context.Canceled):
		crawlErr.Kind = results.KindCancelled
	}
	return crawlErr
}
