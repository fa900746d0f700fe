package config

import (
	"os"
	"time"

	"github.com/ccollicutt/logscope/pkg/category"
	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/severity"
	"github.com/ccollicutt/logscope/pkg/source"
	"github.com/ccollicutt/logscope/pkg/splitter"
)

// Default values for configuration.
const (
	DefaultHostVersion    = string(source.HostModern)
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvSource      = "LOGSCOPE_SOURCE"
	EnvHostVersion = "LOGSCOPE_HOST_VERSION"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			HostVersion: DefaultHostVersion,
		},
		Search: SearchConfig{
			ExactCounts:  true,
			DefaultLimit: query.DefaultLimit,
		},
		Severity: *severity.DefaultTable(),
		Splitter: SplitterConfig{
			FramePrefixes: append([]string(nil), splitter.DefaultFramePrefixes...),
		},
		Categories: category.DefaultSets(),
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if path := os.Getenv(EnvSource); path != "" {
		c.Source.Path = path
	}
	if v := os.Getenv(EnvHostVersion); v != "" {
		c.Source.HostVersion = v
	}
}
