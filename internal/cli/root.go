package cmd

import (
	"os"

	"github.com/rohmanhakim/site-crawler/pkg/failure"
	"github.com/spf13/cobra"
)

// exitTempFail is sysexits' EX_TEMPFAIL.
const exitTempFail = 75

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "site-crawler",
		Short: "A concurrent, polite website crawler.",
		Long: `site-crawler starts from a seed URL and follows links breadth-first,
fetching every discovered page at most once. The crawl is bounded by a page
budget and a depth limit, stays on the seed's host unless told otherwise, and
pauses between requests.

Each fetched page becomes one JSON result: status, timing, errors, and the
page it was found on.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(ExitCode(err))
	}
}

// ExitCode is 75 for recoverable failures, such as a full disk while writing
// results, so a wrapper can rerun the crawl. Everything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if failure.SeverityOf(err) == failure.SeverityRecoverable {
		return exitTempFail
	}
	return 1
}
