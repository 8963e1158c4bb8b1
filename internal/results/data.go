package results

// CrawlResult is the per-page record of a run. It is finalized once page
// processing completes or fails and is never modified afterwards.
type CrawlResult struct {
	ID          int    `json:"id"`
	RequestPath string `json:"requestPath"`
	// FoundURL is the page the link was discovered on; empty for the seed.
	FoundURL   string   `json:"foundUrl"`
	Depth      int      `json:"depth"`
	StatusCode int      `json:"statusCode"`
	Errors     []string `json:"errors"`
	// ResponseBody is nil when nothing was received.
	ResponseBody        *string `json:"responseBody,omitempty"`
	ContentType         string  `json:"contentType,omitempty"`
	ContentHash         string  `json:"contentHash,omitempty"`
	// Truncated is set when the body hit the fetcher's size cap; ResponseBody
	// and ContentHash then cover only the kept prefix.
	Truncated           bool    `json:"truncated,omitempty"`
	ElapsedMilliseconds int64   `json:"elapsedMilliseconds"`
	LinksFound          int     `json:"linksFound"`

	Failures []*CrawlError `json:"-"`
}

func (r *CrawlResult) AddError(err *CrawlError) {
	r.Failures = append(r.Failures, err)
	r.Errors = append(r.Errors, err.Error())
}

func (r CrawlResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// WithoutBody returns a copy with the response body dropped.
func (r CrawlResult) WithoutBody() CrawlResult {
	r.ResponseBody = nil
	return r
}
