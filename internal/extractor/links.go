package extractor

import (
	"net/url"
	"strings"

	"github.com/rohmanhakim/site-crawler/pkg/urlutil"
)

type LinkKind int

const (
	SameDomain LinkKind = iota
	External
)

func (k LinkKind) String() string {
	if k == External {
		return "external"
	}
	return "same_domain"
}

// CandidateLink is an absolute http(s) URL found on a page, with query and
// fragment removed. It is only a candidate: the frontier decides admission.
type CandidateLink struct {
	URL  string
	Kind LinkKind
}

// ignoredSchemes are href prefixes that never lead to a crawlable page.
var ignoredSchemes = []string{"javascript:", "mailto:", "tel:", "data:", "ftp:", "file:"}

// ExtractLinks resolves every anchor of doc against baseUrl (or the
// document's <base href>) and classifies the result against seedHost, the
// normalized host[:port] of the seed. Empty, fragment-only, malformed and
// non-http(s) hrefs are skipped. Each URL is returned once, in the order it
// first appears.
//
// ExtractLinks is pure: it depends only on its arguments.
func ExtractLinks(doc Document, baseUrl url.URL, seedHost string) []CandidateLink {
	base := effectiveBase(doc, baseUrl)

	seen := make(map[string]struct{})
	var links []CandidateLink
	for _, raw := range doc.Hrefs() {
		href := strings.TrimSpace(raw)
		if href == "" || strings.HasPrefix(href, "#") || hasIgnoredScheme(href) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if !urlutil.IsHTTP(*resolved) || resolved.Host == "" {
			continue
		}

		canonical := urlutil.Canonicalize(*resolved)
		key := canonical.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		kind := SameDomain
		if urlutil.HostKey(canonical) != seedHost {
			kind = External
		}
		links = append(links, CandidateLink{URL: key, Kind: kind})
	}
	return links
}

func effectiveBase(doc Document, pageUrl url.URL) *url.URL {
	base := &pageUrl
	href := doc.BaseHref()
	if href == "" {
		return base
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base
	}
	resolved := pageUrl.ResolveReference(ref)
	if !urlutil.IsHTTP(*resolved) || resolved.Host == "" {
		return base
	}
	return resolved
}

func hasIgnoredScheme(href string) bool {
	lower := strings.ToLower(href)
	for _, scheme := range ignoredSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}
