package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/logscope/pkg/category"
	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/severity"
	"github.com/ccollicutt/logscope/pkg/source"
	"github.com/ccollicutt/logscope/pkg/splitter"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or the defaults plus environment overrides when
// path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and fills unset defaults.
func Validate(cfg *Config) error {
	if cfg.Source.HostVersion == "" {
		cfg.Source.HostVersion = DefaultHostVersion
	}
	if _, err := source.LayoutFor(source.HostVersion(cfg.Source.HostVersion)); err != nil {
		return fmt.Errorf("source.host_version: %w", err)
	}

	if cfg.Search.DefaultLimit <= 0 {
		cfg.Search.DefaultLimit = query.DefaultLimit
	}
	if cfg.Search.DefaultLimit > query.MaxLimit {
		cfg.Search.DefaultLimit = query.MaxLimit
	}

	if err := validateTable(&cfg.Severity); err != nil {
		return fmt.Errorf("severity: %w", err)
	}

	for i, p := range cfg.Splitter.FramePrefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("splitter.frame_prefixes[%d]: prefix is empty", i)
		}
	}

	if len(cfg.Categories) == 0 {
		cfg.Categories = category.DefaultSets()
	}
	for name, sevs := range cfg.Categories {
		if strings.TrimSpace(name) == "" {
			return errors.New("categories: category name is empty")
		}
		if len(sevs) == 0 {
			return fmt.Errorf("categories (%s): at least one severity is required", name)
		}
		for _, s := range sevs {
			if _, err := severity.Parse(string(s)); err != nil {
				return fmt.Errorf("categories (%s): %w", name, err)
			}
		}
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateTable(t *severity.Table) error {
	bits := map[string]int32{
		"error":             t.Bits.Error,
		"assert":            t.Bits.Assert,
		"log":               t.Bits.Log,
		"warning":           t.Bits.Warning,
		"exception":         t.Bits.Exception,
		"scripting_error":   t.Bits.ScriptingError,
		"scripting_warning": t.Bits.ScriptingWarning,
		"compile_error":     t.Bits.CompileError,
		"compile_warning":   t.Bits.CompileWarning,
	}
	for name, v := range bits {
		if v&(v-1) != 0 {
			return fmt.Errorf("bits.%s: %d is not a single bit", name, v)
		}
	}

	for i, code := range t.Observed {
		if code.Name == "" {
			return fmt.Errorf("observed_codes[%d]: name is required", i)
		}
		if code.Mode == 0 {
			return fmt.Errorf("observed_codes[%d] (%s): mode is required", i, code.Name)
		}
		if _, err := severity.Parse(string(code.Severity)); err != nil {
			return fmt.Errorf("observed_codes[%d] (%s): %w", i, code.Name, err)
		}
	}

	for i, m := range t.Markers {
		if m.Text == "" {
			return fmt.Errorf("markers[%d]: text is required", i)
		}
		if _, err := severity.Parse(string(m.Severity)); err != nil {
			return fmt.Errorf("markers[%d] (%s): %w", i, m.Text, err)
		}
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case WebhookTriggerOnResults, WebhookTriggerAlways, WebhookTriggerNever:
	case "":
		wh.Trigger = WebhookTriggerOnResults
	default:
		return fmt.Errorf("invalid trigger %q (must be on_results, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}
	return s
}

// SeverityTable returns the classification table.
func (c *Config) SeverityTable() *severity.Table {
	t := c.Severity
	return &t
}

// CategoryMapper builds the category mapper.
func (c *Config) CategoryMapper() *category.Mapper {
	return category.NewMapper(c.Categories)
}

// NewSplitter builds the message splitter.
func (c *Config) NewSplitter() *splitter.Splitter {
	return splitter.New(c.Splitter.FramePrefixes...)
}

// OpenSource opens the configured host buffer.
func (c *Config) OpenSource() (source.RawRecordSource, error) {
	return source.Open(c.Source.Path, source.HostVersion(c.Source.HostVersion))
}

// EngineOptions returns the query engine options derived from the config.
func (c *Config) EngineOptions() []query.Option {
	return []query.Option{
		query.WithClassifier(severity.NewClassifier(c.SeverityTable())),
		query.WithCategories(c.CategoryMapper()),
		query.WithSplitter(c.NewSplitter()),
		query.WithExactCounts(c.Search.ExactCounts),
	}
}
