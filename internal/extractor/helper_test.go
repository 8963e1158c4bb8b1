package extractor_test

import (
	"net/url"
	"testing"

	"github.com/rohmanhakim/site-crawler/internal/extractor"
	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func mustParseDocument(t *testing.T, body string) extractor.Document {
	t.Helper()
	parser := extractor.NewHTMLParser(&metadata.NoopSink{})
	doc, err := parser.Parse(mustParseURL(t, "https://example.com/"), []byte(body))
	require.Nil(t, err)
	return doc
}

// staticDocument is a Document with fixed anchors.
type staticDocument struct {
	hrefs []string
	base  string
}

func (d staticDocument) Hrefs() []string  { return d.hrefs }
func (d staticDocument) BaseHref() string { return d.base }
