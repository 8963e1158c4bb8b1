package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rohmanhakim/site-crawler/pkg/fileutil"
	"gopkg.in/yaml.v3"
)

// optionsDTO mirrors CrawlOptions with pointer fields so that a key missing
// from the file keeps its default, including booleans whose zero value is
// meaningful.
type optionsDTO struct {
	MaxPages              *int    `json:"maxPages,omitempty" yaml:"maxPages,omitempty"`
	MaxDepth              *int    `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	RequestDelayMs        *int    `json:"requestDelayMs,omitempty" yaml:"requestDelayMs,omitempty"`
	RespectRobotsTxt      *bool   `json:"respectRobotsTxt,omitempty" yaml:"respectRobotsTxt,omitempty"`
	UserAgent             *string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	FollowExternalLinks   *bool   `json:"followExternalLinks,omitempty" yaml:"followExternalLinks,omitempty"`
	MaxConcurrentRequests *int    `json:"maxConcurrentRequests,omitempty" yaml:"maxConcurrentRequests,omitempty"`
	TimeoutSeconds        *int    `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
}

func (dto optionsDTO) applyTo(b *Builder) *Builder {
	if dto.MaxPages != nil {
		b.WithMaxPages(*dto.MaxPages)
	}
	if dto.MaxDepth != nil {
		b.WithMaxDepth(*dto.MaxDepth)
	}
	if dto.RequestDelayMs != nil {
		b.WithRequestDelayMs(*dto.RequestDelayMs)
	}
	if dto.RespectRobotsTxt != nil {
		b.WithRespectRobotsTxt(*dto.RespectRobotsTxt)
	}
	if dto.UserAgent != nil {
		b.WithUserAgent(*dto.UserAgent)
	}
	if dto.FollowExternalLinks != nil {
		b.WithFollowExternalLinks(*dto.FollowExternalLinks)
	}
	if dto.MaxConcurrentRequests != nil {
		b.WithMaxConcurrentRequests(*dto.MaxConcurrentRequests)
	}
	if dto.TimeoutSeconds != nil {
		b.WithTimeoutSeconds(*dto.TimeoutSeconds)
	}
	return b
}

// WithConfigFile returns a builder holding the defaults overridden by the
// keys present in the file. JSON and YAML are chosen by file extension.
// The result is not validated until Build.
func WithConfigFile(path string) (*Builder, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	dto := optionsDTO{}
	switch strings.ToLower(fileutil.GetFileExtension(path)) {
	case "json":
		err = json.Unmarshal(content, &dto)
	case "yaml", "yml":
		err = yaml.Unmarshal(content, &dto)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return dto.applyTo(WithDefault()), nil
}
