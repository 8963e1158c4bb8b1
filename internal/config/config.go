package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rohmanhakim/site-crawler/pkg/timeutil"
	"github.com/rohmanhakim/site-crawler/pkg/urlutil"
)

const DefaultUserAgent = "site-crawler/1.0"

// CrawlOptions is passed by value and never modified during a run.
type CrawlOptions struct {
	// Maximum number of distinct pages fetched in one run
	MaxPages int `json:"maxPages" yaml:"maxPages"`
	// Maximum number of link hops from the seed, which sits at depth 0
	MaxDepth int `json:"maxDepth" yaml:"maxDepth"`
	// Pause each worker takes after finishing a page, in milliseconds
	RequestDelayMs   int    `json:"requestDelayMs" yaml:"requestDelayMs"`
	RespectRobotsTxt bool   `json:"respectRobotsTxt" yaml:"respectRobotsTxt"`
	UserAgent        string `json:"userAgent" yaml:"userAgent"`
	// Whether links to hosts other than the seed host are admitted
	FollowExternalLinks   bool `json:"followExternalLinks" yaml:"followExternalLinks"`
	MaxConcurrentRequests int  `json:"maxConcurrentRequests" yaml:"maxConcurrentRequests"`
	// Per-page budget covering fetch and parse. 0 disables it.
	TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

func DefaultOptions() CrawlOptions {
	return CrawlOptions{
		MaxPages:              100,
		MaxDepth:              3,
		RequestDelayMs:        1000,
		RespectRobotsTxt:      true,
		UserAgent:             DefaultUserAgent,
		FollowExternalLinks:   false,
		MaxConcurrentRequests: 4,
		TimeoutSeconds:        30,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (o CrawlOptions) Validate() error {
	switch {
	case o.MaxPages <= 0:
		return fmt.Errorf("%w: maxPages must be positive, got %d", ErrInvalidConfig, o.MaxPages)
	case o.MaxDepth <= 0:
		return fmt.Errorf("%w: maxDepth must be positive, got %d", ErrInvalidConfig, o.MaxDepth)
	case o.MaxConcurrentRequests <= 0:
		return fmt.Errorf("%w: maxConcurrentRequests must be positive, got %d", ErrInvalidConfig, o.MaxConcurrentRequests)
	case o.RequestDelayMs < 0:
		return fmt.Errorf("%w: requestDelayMs cannot be negative, got %d", ErrInvalidConfig, o.RequestDelayMs)
	case o.TimeoutSeconds < 0:
		return fmt.Errorf("%w: timeoutSeconds cannot be negative, got %d", ErrInvalidConfig, o.TimeoutSeconds)
	case o.UserAgent == "":
		return fmt.Errorf("%w: userAgent cannot be empty", ErrInvalidConfig)
	}
	return nil
}

func (o CrawlOptions) RequestDelay() time.Duration {
	return timeutil.Millis(o.RequestDelayMs)
}

// Timeout is zero when no per-page budget applies.
func (o CrawlOptions) Timeout() time.Duration {
	return timeutil.Seconds(o.TimeoutSeconds)
}

// ParseSeed validates the crawl entry point: absolute, http or https, with
// a host.
func ParseSeed(raw string) (url.URL, error) {
	seed, err := urlutil.ParseAbsolute(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("%w: seed url: %w", ErrInvalidConfig, err)
	}
	return seed, nil
}

type Builder struct {
	options CrawlOptions
}

// WithDefault starts a builder from DefaultOptions.
func WithDefault() *Builder {
	return &Builder{options: DefaultOptions()}
}

// FromOptions starts a builder from already-loaded options.
func FromOptions(options CrawlOptions) *Builder {
	return &Builder{options: options}
}

func (b *Builder) WithMaxPages(pages int) *Builder {
	b.options.MaxPages = pages
	return b
}

func (b *Builder) WithMaxDepth(depth int) *Builder {
	b.options.MaxDepth = depth
	return b
}

func (b *Builder) WithRequestDelayMs(delayMs int) *Builder {
	b.options.RequestDelayMs = delayMs
	return b
}

func (b *Builder) WithRespectRobotsTxt(respect bool) *Builder {
	b.options.RespectRobotsTxt = respect
	return b
}

func (b *Builder) WithUserAgent(agent string) *Builder {
	b.options.UserAgent = agent
	return b
}

func (b *Builder) WithFollowExternalLinks(follow bool) *Builder {
	b.options.FollowExternalLinks = follow
	return b
}

func (b *Builder) WithMaxConcurrentRequests(concurrency int) *Builder {
	b.options.MaxConcurrentRequests = concurrency
	return b
}

func (b *Builder) WithTimeoutSeconds(seconds int) *Builder {
	b.options.TimeoutSeconds = seconds
	return b
}

// Options returns the current values without validating them.
func (b *Builder) Options() CrawlOptions {
	return b.options
}

func (b *Builder) Build() (CrawlOptions, error) {
	if err := b.options.Validate(); err != nil {
		return CrawlOptions{}, err
	}
	return b.options, nil
}
