package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/logscope/pkg/config"
	"github.com/ccollicutt/logscope/pkg/output"
	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/source"
	"github.com/ccollicutt/logscope/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath  string
	Source      string
	HostVersion string
	LogLevel    string
}

// loadConfig reads the config file (if any) and applies flag overrides.
func loadConfig(ctx context.Context, g *GlobalOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if g.Source != "" {
		cfg.Source.Path = g.Source
	}
	if g.HostVersion != "" {
		cfg.Source.HostVersion = g.HostVersion
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("validating config: %w", err)
		}
	}

	return cfg, nil
}

// newLogger builds a console logger on w at the named level.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.WarnLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger(), nil
}

// openEngine loads config, opens the source and builds an engine over it.
func openEngine(ctx context.Context, g *GlobalOptions) (*query.Engine, *config.Config, error) {
	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(os.Stderr, g.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	src, err := openSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := append(cfg.EngineOptions(), query.WithLogger(logger))
	return query.NewEngine(src, opts...), cfg, nil
}

// openSource opens the configured source. A missing source path is not an
// error here: the engine reports it as an unsuccessful result.
func openSource(cfg *config.Config, logger zerolog.Logger) (source.RawRecordSource, error) {
	src, err := cfg.OpenSource()
	if errors.Is(err, source.ErrUnavailable) {
		logger.Warn().Err(err).Msg("no host log buffer configured")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	return src, nil
}

// webhookOptions are the CLI webhook flags shared by list and search.
type webhookOptions struct {
	URL     string
	Token   string
	Trigger string
}

// sendWebhooks notifies every configured webhook about the report.
// Errors are logged to stderr but don't fail the query.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts webhookOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient(Version)
	note := webhook.NewNotification(report)

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.HasResults()) {
			continue
		}

		d := client.Notify(ctx, note, webhook.Target{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if d.Success() {
			fmt.Fprintf(os.Stderr, "Webhook %s: sent %s (%d, %s)\n", name, d.ID, d.StatusCode, d.Duration)
		} else {
			fmt.Fprintf(os.Stderr, "Webhook %s: failed %s (%v)\n", name, d.ID, d.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts webhookOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.URL != "" {
		trigger := config.WebhookTrigger(opts.Trigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnResults
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.URL,
			Token:   opts.Token,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

func shouldFireWebhook(trigger config.WebhookTrigger, hasResults bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasResults
	}
}

// sourceName describes the source for report metadata.
func sourceName(cfg *config.Config) string {
	if cfg.Source.Path == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", cfg.Source.Path, cfg.Source.HostVersion)
}

// writeReport formats the report to stdout and sets ExitCode from the result.
func writeReport(ctx context.Context, w io.Writer, format string, fo output.FormatOptions, report *output.Report) error {
	formatter, err := output.NewFormatter(format, fo)
	if err != nil {
		return err
	}
	if err := formatter.Format(ctx, report, w); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	if !report.Result.Success {
		ExitCode = 1
	}
	return nil
}
