package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrNotAbsolute       = errors.New("url is not absolute")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrMissingHost       = errors.New("url has no host")
)

// Canonicalize applies a deterministic normalization to a URL, producing the
// key used for visited-set membership.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Fragments are removed
//   - Query parameters are removed
//   - Default ports are omitted (:80 for http, :443 for https)
//   - An empty path becomes "/"
//
// Path case and trailing slashes are preserved: "/a" and "/a/" are distinct
// resources for most servers.
//
// Properties:
//   - Pure: no state, no memory
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)
	canonical.Host = stripDefaultPort(canonical.Scheme, canonical.Host)

	if canonical.Path == "" && canonical.Opaque == "" {
		canonical.Path = "/"
		canonical.RawPath = ""
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// ParseAbsolute parses raw and checks that it is an absolute http(s) URL
// with a host.
func ParseAbsolute(raw string) (url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return url.URL{}, err
	}
	if !parsed.IsAbs() {
		return url.URL{}, fmt.Errorf("%w: %q", ErrNotAbsolute, raw)
	}
	if !IsHTTP(*parsed) {
		return url.URL{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
	}
	if parsed.Host == "" {
		return url.URL{}, fmt.Errorf("%w: %q", ErrMissingHost, raw)
	}
	return *parsed, nil
}

// IsHTTP reports whether the URL uses the http or https scheme.
func IsHTTP(u url.URL) bool {
	scheme := lowerASCII(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// HostKey returns the normalized authority used for same-domain checks:
// lowercased host with the scheme's default port dropped.
func HostKey(u url.URL) string {
	return stripDefaultPort(lowerASCII(u.Scheme), lowerASCII(u.Host))
}

func stripDefaultPort(scheme, host string) string {
	h, port, found := cutPort(host)
	if !found {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return h
	}
	return host
}

// cutPort splits "host:port", leaving bracketed IPv6 literals intact.
func cutPort(host string) (string, string, bool) {
	i := strings.LastIndexByte(host, ':')
	if i < 0 || i < strings.LastIndexByte(host, ']') {
		return host, "", false
	}
	return host[:i], host[i+1:], true
}

// lowerASCII converts ASCII characters to lowercase without allocating when
// the input is already lowercase.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
