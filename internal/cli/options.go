package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rohmanhakim/site-crawler/internal/config"
)

const defaultEnvFile = ".env"

// CrawlFlags holds the crawl command's flag values.
type CrawlFlags struct {
	ConfigFile  string
	EnvFile     string
	Output      string
	IncludeBody bool
	MetricsAddr string
	LogLevel    string
	LogPretty   bool
	MaxRPS      float64

	MaxPages              int
	MaxDepth              int
	RequestDelayMs        int
	RespectRobotsTxt      bool
	UserAgent             string
	FollowExternalLinks   bool
	MaxConcurrentRequests int
	TimeoutSeconds        int
}

// CrawlFlagDefaults mirrors config.DefaultOptions so flag help shows the
// real defaults.
func CrawlFlagDefaults() CrawlFlags {
	defaults := config.DefaultOptions()
	return CrawlFlags{
		MaxPages:              defaults.MaxPages,
		MaxDepth:              defaults.MaxDepth,
		RequestDelayMs:        defaults.RequestDelayMs,
		RespectRobotsTxt:      defaults.RespectRobotsTxt,
		UserAgent:             defaults.UserAgent,
		FollowExternalLinks:   defaults.FollowExternalLinks,
		MaxConcurrentRequests: defaults.MaxConcurrentRequests,
		TimeoutSeconds:        defaults.TimeoutSeconds,
	}
}

// ResolveOptions layers the crawl options: defaults, then the config file,
// then CRAWLER_* variables, then flags the user set explicitly.
func ResolveOptions(flags CrawlFlags, changed func(name string) bool, lookup config.LookupFunc) (config.CrawlOptions, error) {
	builder := config.WithDefault()
	if flags.ConfigFile != "" {
		fileBuilder, err := config.WithConfigFile(flags.ConfigFile)
		if err != nil {
			return config.CrawlOptions{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		builder = fileBuilder
	}

	options, err := config.FromEnv(builder.Options(), lookup)
	if err != nil {
		return config.CrawlOptions{}, err
	}
	builder = config.FromOptions(options)

	if changed("max-pages") {
		builder.WithMaxPages(flags.MaxPages)
	}
	if changed("max-depth") {
		builder.WithMaxDepth(flags.MaxDepth)
	}
	if changed("request-delay-ms") {
		builder.WithRequestDelayMs(flags.RequestDelayMs)
	}
	if changed("respect-robots-txt") {
		builder.WithRespectRobotsTxt(flags.RespectRobotsTxt)
	}
	if changed("user-agent") {
		builder.WithUserAgent(flags.UserAgent)
	}
	if changed("follow-external-links") {
		builder.WithFollowExternalLinks(flags.FollowExternalLinks)
	}
	if changed("max-concurrent-requests") {
		builder.WithMaxConcurrentRequests(flags.MaxConcurrentRequests)
	}
	if changed("timeout-seconds") {
		builder.WithTimeoutSeconds(flags.TimeoutSeconds)
	}

	return builder.Build()
}

// envLookup resolves CRAWLER_* variables from the process environment first
// and then from the dotenv file, without modifying the environment. A
// missing default file is not an error; a missing explicit one is.
func envLookup(envFile string, explicit bool) (config.LookupFunc, error) {
	fileEnv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = values
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("error reading env file %s: %w", envFile, err)
		}
	}

	return func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := fileEnv[key]
		return value, ok
	}, nil
}
