// Package config provides configuration loading and validation for logscope.
package config

import (
	"time"

	"github.com/ccollicutt/logscope/pkg/severity"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Source     SourceConfig                   `yaml:"source"`
	Search     SearchConfig                   `yaml:"search"`
	Severity   severity.Table                 `yaml:"severity"`
	Splitter   SplitterConfig                 `yaml:"splitter"`
	Categories map[string][]severity.Severity `yaml:"categories"`
	Webhooks   []WebhookConfig                `yaml:"webhooks,omitempty"`
}

// SourceConfig locates the host log buffer.
type SourceConfig struct {
	// Path is the host buffer dump (one JSON record per line, oldest first).
	Path string `yaml:"path"`

	// HostVersion selects the record layout: modern or legacy.
	HostVersion string `yaml:"host_version"`
}

// SearchConfig controls search behavior.
type SearchConfig struct {
	// ExactCounts scans the whole buffer on every search so that filtered and
	// matched counts are exact. When false, a search stops once its page is
	// filled.
	ExactCounts bool `yaml:"exact_counts"`

	// DefaultLimit is the page size used when the caller gives none.
	DefaultLimit int `yaml:"default_limit"`
}

// SplitterConfig tunes the stack trace heuristic.
type SplitterConfig struct {
	// FramePrefixes are namespace prefixes that start a stack frame line.
	FramePrefixes []string `yaml:"frame_prefixes"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnResults fires only when a query returned entries (default).
	WebhookTriggerOnResults WebhookTrigger = "on_results"
	// WebhookTriggerAlways fires after every query.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending query results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_results" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
