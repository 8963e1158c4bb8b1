package config

import (
	"fmt"
	"strconv"
)

const EnvPrefix = "CRAWLER_"

const (
	EnvMaxPages              = EnvPrefix + "MAX_PAGES"
	EnvMaxDepth              = EnvPrefix + "MAX_DEPTH"
	EnvRequestDelayMs        = EnvPrefix + "REQUEST_DELAY_MS"
	EnvRespectRobotsTxt      = EnvPrefix + "RESPECT_ROBOTS_TXT"
	EnvUserAgent             = EnvPrefix + "USER_AGENT"
	EnvFollowExternalLinks   = EnvPrefix + "FOLLOW_EXTERNAL_LINKS"
	EnvMaxConcurrentRequests = EnvPrefix + "MAX_CONCURRENT_REQUESTS"
	EnvTimeoutSeconds        = EnvPrefix + "TIMEOUT_SECONDS"
)

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv overrides base with every CRAWLER_* variable that is set.
// Malformed values are reported as ErrInvalidConfig.
func FromEnv(base CrawlOptions, lookup LookupFunc) (CrawlOptions, error) {
	options := base

	ints := []struct {
		key    string
		target *int
	}{
		{EnvMaxPages, &options.MaxPages},
		{EnvMaxDepth, &options.MaxDepth},
		{EnvRequestDelayMs, &options.RequestDelayMs},
		{EnvMaxConcurrentRequests, &options.MaxConcurrentRequests},
		{EnvTimeoutSeconds, &options.TimeoutSeconds},
	}
	for _, field := range ints {
		raw, ok := lookup(field.key)
		if !ok {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return CrawlOptions{}, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, field.key, raw)
		}
		*field.target = value
	}

	bools := []struct {
		key    string
		target *bool
	}{
		{EnvRespectRobotsTxt, &options.RespectRobotsTxt},
		{EnvFollowExternalLinks, &options.FollowExternalLinks},
	}
	for _, field := range bools {
		raw, ok := lookup(field.key)
		if !ok {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return CrawlOptions{}, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, field.key, raw)
		}
		*field.target = value
	}

	if agent, ok := lookup(EnvUserAgent); ok {
		options.UserAgent = agent
	}

	return options, nil
}
