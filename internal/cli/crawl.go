package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohmanhakim/site-crawler/internal/build"
	"github.com/rohmanhakim/site-crawler/internal/fetcher"
	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/progress"
	"github.com/rohmanhakim/site-crawler/internal/scheduler"
	"github.com/rohmanhakim/site-crawler/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	flags := CrawlFlags{}

	crawlCmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl a site starting from the seed URL",
		Long: `Crawl a site starting from the seed URL and print the results as JSON.

Options are layered: built-in defaults, then --config-file (JSON or YAML),
then CRAWLER_* environment variables (also read from --env-file), then flags.
SIGINT or SIGTERM stops the crawl; results gathered so far are still written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args[0], flags)
		},
	}

	f := crawlCmd.Flags()
	f.StringVar(&flags.ConfigFile, "config-file", "", "config file path (e.g., /home/myuser/crawler.yaml)")
	f.StringVar(&flags.EnvFile, "env-file", defaultEnvFile, "dotenv file with CRAWLER_* variables")
	f.StringVarP(&flags.Output, "output", "o", "", "write results to this file instead of stdout")
	f.BoolVar(&flags.IncludeBody, "include-body", false, "include response bodies in the results")
	f.StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the crawl (e.g., :9090)")
	f.StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.BoolVar(&flags.LogPretty, "log-pretty", false, "human-readable console logs instead of JSON")
	f.Float64Var(&flags.MaxRPS, "max-rps", 0, "cap on requests per second across all workers (0 disables it)")

	defaults := CrawlFlagDefaults()
	f.IntVar(&flags.MaxPages, "max-pages", defaults.MaxPages, "maximum number of pages to fetch")
	f.IntVar(&flags.MaxDepth, "max-depth", defaults.MaxDepth, "maximum link depth from the seed URL")
	f.IntVar(&flags.RequestDelayMs, "request-delay-ms", defaults.RequestDelayMs, "pause each worker takes after a page, in milliseconds")
	f.BoolVar(&flags.RespectRobotsTxt, "respect-robots-txt", defaults.RespectRobotsTxt, "skip links disallowed by robots.txt")
	f.StringVar(&flags.UserAgent, "user-agent", defaults.UserAgent, "user agent string for HTTP requests")
	f.BoolVar(&flags.FollowExternalLinks, "follow-external-links", defaults.FollowExternalLinks, "follow links to other hosts")
	f.IntVar(&flags.MaxConcurrentRequests, "max-concurrent-requests", defaults.MaxConcurrentRequests, "number of concurrent workers")
	f.IntVar(&flags.TimeoutSeconds, "timeout-seconds", defaults.TimeoutSeconds, "time budget per page in seconds (0 disables it)")

	return crawlCmd
}

func runCrawl(cmd *cobra.Command, seedUrl string, flags CrawlFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lookup, err := envLookup(flags.EnvFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return err
	}
	options, err := ResolveOptions(flags, cmd.Flags().Changed, lookup)
	if err != nil {
		return err
	}

	// workers log concurrently
	logger, err := metadata.NewLogger(zerolog.SyncWriter(cmd.ErrOrStderr()), flags.LogLevel, flags.LogPretty)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder := metadata.NewRecorder(logger, metadata.NewMetrics(registry))

	if flags.MetricsAddr != "" {
		shutdown := serveMetrics(flags.MetricsAddr, registry, logger)
		defer shutdown()
	}

	logger.Info().
		Str("seed", seedUrl).
		Str("version", build.FullVersion()).
		Int("max_pages", options.MaxPages).
		Int("max_depth", options.MaxDepth).
		Int("workers", options.MaxConcurrentRequests).
		Bool("robots", options.RespectRobotsTxt).
		Float64("max_rps", flags.MaxRPS).
		Msg("crawl starting")

	s := scheduler.NewScheduler(
		scheduler.WithMetadataSink(recorder),
		scheduler.WithFetcherOptions(fetcher.WithRateLimit(flags.MaxRPS, 1)),
		scheduler.WithStateObserver(func(from, to scheduler.RunState) {
			logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("run state")
		}),
	)
	execution, err := s.Execute(ctx, seedUrl, options, progress.NewLogSink(logger))
	if err != nil {
		return err
	}

	if flags.Output == "" {
		sink := storage.NewStreamSink(recorder, cmd.OutOrStdout(), flags.IncludeBody)
		if _, err := sink.Write(execution.Results); err != nil {
			return err
		}
		return nil
	}
	sink := storage.NewLocalSink(recorder, flags.Output, flags.IncludeBody)
	written, writeErr := sink.Write(execution.Results)
	if writeErr != nil {
		return writeErr
	}
	logger.Info().
		Str("path", written.Path()).
		Int("results", written.Count()).
		Str("content_hash", written.ContentHash()).
		Msg("results written")
	return nil
}

// serveMetrics exposes registry on addr until the returned shutdown is called.
func serveMetrics(addr string, registry *prometheus.Registry, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
