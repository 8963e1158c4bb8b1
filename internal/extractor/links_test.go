package extractor_test

import (
	"testing"

	"github.com/rohmanhakim/site-crawler/internal/extractor"
	"github.com/stretchr/testify/assert"
)

func TestExtractLinks_ResolvesAndClassifies(t *testing.T) {
	doc := mustParseDocument(t, `<html><body>
<a href="/docs/intro">intro</a>
<a href="guide?page=2#top">relative</a>
<a href="https://EXAMPLE.com/about">absolute same</a>
<a href="https://other.org/x">external</a>
<a href="//cdn.example.net/lib">protocol relative</a>
</body></html>`)

	links := extractor.ExtractLinks(doc, mustParseURL(t, "https://example.com/docs/start"), "example.com")

	assert.Equal(t, []extractor.CandidateLink{
		{URL: "https://example.com/docs/intro", Kind: extractor.SameDomain},
		{URL: "https://example.com/docs/guide", Kind: extractor.SameDomain},
		{URL: "https://example.com/about", Kind: extractor.SameDomain},
		{URL: "https://other.org/x", Kind: extractor.External},
		{URL: "https://cdn.example.net/lib", Kind: extractor.External},
	}, links)
}

func TestExtractLinks_SkipsNonCrawlableHrefs(t *testing.T) {
	doc := staticDocument{hrefs: []string{
		"",
		"   ",
		"#section",
		"javascript:void(0)",
		"JavaScript:alert(1)",
		"mailto:team@example.com",
		"tel:+123",
		"data:text/html,hi",
		"ftp://example.com/file",
		"http://[::1",
		"/kept",
	}}

	links := extractor.ExtractLinks(doc, mustParseURL(t, "https://example.com/"), "example.com")

	assert.Equal(t, []extractor.CandidateLink{
		{URL: "https://example.com/kept", Kind: extractor.SameDomain},
	}, links)
}

func TestExtractLinks_DeduplicatesWithinPage(t *testing.T) {
	doc := staticDocument{hrefs: []string{
		"/a",
		"/a#one",
		"/a?x=1",
		" /a ",
		"/b",
		"/a",
	}}

	links := extractor.ExtractLinks(doc, mustParseURL(t, "https://example.com/"), "example.com")

	assert.Equal(t, []extractor.CandidateLink{
		{URL: "https://example.com/a", Kind: extractor.SameDomain},
		{URL: "https://example.com/b", Kind: extractor.SameDomain},
	}, links)
}

func TestExtractLinks_HonorsBaseHref(t *testing.T) {
	doc := staticDocument{
		hrefs: []string{"page", "/root"},
		base:  "https://example.com/v2/",
	}

	links := extractor.ExtractLinks(doc, mustParseURL(t, "https://example.com/v1/index"), "example.com")

	assert.Equal(t, []extractor.CandidateLink{
		{URL: "https://example.com/v2/page", Kind: extractor.SameDomain},
		{URL: "https://example.com/root", Kind: extractor.SameDomain},
	}, links)
}

func TestExtractLinks_IgnoresNonHTTPBaseHref(t *testing.T) {
	doc := staticDocument{
		hrefs: []string{"page"},
		base:  "javascript:alert(1)",
	}

	links := extractor.ExtractLinks(doc, mustParseURL(t, "https://example.com/v1/index"), "example.com")

	assert.Equal(t, []extractor.CandidateLink{
		{URL: "https://example.com/v1/page", Kind: extractor.SameDomain},
	}, links)
}

func TestExtractLinks_PortMakesHostDistinct(t *testing.T) {
	doc := staticDocument{hrefs: []string{
		"http://127.0.0.1:8080/a",
		"http://127.0.0.1:9090/b",
	}}

	links := extractor.ExtractLinks(doc, mustParseURL(t, "http://127.0.0.1:8080/"), "127.0.0.1:8080")

	assert.Equal(t, []extractor.CandidateLink{
		{URL: "http://127.0.0.1:8080/a", Kind: extractor.SameDomain},
		{URL: "http://127.0.0.1:9090/b", Kind: extractor.External},
	}, links)
}

func TestExtractLinks_NoAnchors(t *testing.T) {
	links := extractor.ExtractLinks(staticDocument{}, mustParseURL(t, "https://example.com/"), "example.com")

	assert.Empty(t, links)
}

func TestLinkKindString(t *testing.T) {
	assert.Equal(t, "same_domain", extractor.SameDomain.String())
	assert.Equal(t, "external", extractor.External.String())
}
