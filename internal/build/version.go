package build

import "fmt"

// Set through -ldflags "-X github.com/rohmanhakim/site-crawler/internal/build.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// UserAgent is the default crawler user agent for this build.
func UserAgent() string {
	return "site-crawler/" + Version
}

// Summary is the multi-line text printed by the version command.
func Summary() string {
	return fmt.Sprintf("site-crawler %s\ncommit: %s\nbuilt: %s", Version, Commit, BuildTime)
}
