package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse HTML bytes into a DOM tree
- Expose the anchors of a document to the link extractor

The crawl engine only needs anchor enumeration, so Document stays narrow and
any parser able to list hrefs can stand in for the default one.
*/

// Document is a parsed page.
type Document interface {
	// Hrefs returns the raw href attribute of every anchor, in document order.
	Hrefs() []string
	// BaseHref returns the href of the first <base> element, or "".
	BaseHref() string
}

type Parser interface {
	Parse(sourceUrl url.URL, body []byte) (Document, failure.ClassifiedError)
}

type HTMLParser struct {
	metadataSink metadata.MetadataSink
}

func NewHTMLParser(metadataSink metadata.MetadataSink) *HTMLParser {
	return &HTMLParser{
		metadataSink: metadataSink,
	}
}

func (p *HTMLParser) Parse(sourceUrl url.URL, body []byte) (Document, failure.ClassifiedError) {
	doc, err := parse(body)
	if err != nil {
		p.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"HTMLParser.Parse",
			mapParseErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
			},
		)
		return nil, err
	}
	return doc, nil
}

func parse(body []byte) (*htmlDocument, *ParseError) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseMalformedDOM,
		}
	}

	if !hasHTMLElement(root) {
		return nil, &ParseError{
			Message:   "input is not a valid HTML document",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	return &htmlDocument{doc: goquery.NewDocumentFromNode(root)}, nil
}

// hasHTMLElement checks if the parsed document has an <html> element
func hasHTMLElement(doc *html.Node) bool {
	var findHTML func(*html.Node) bool
	findHTML = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "html" {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if findHTML(c) {
				return true
			}
		}
		return false
	}
	return findHTML(doc)
}

type htmlDocument struct {
	doc *goquery.Document
}

func (d *htmlDocument) Hrefs() []string {
	var hrefs []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}

func (d *htmlDocument) BaseHref() string {
	href, _ := d.doc.Find("base[href]").First().Attr("href")
	return strings.TrimSpace(href)
}
