package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/tools"
)

// NewServeCommand creates the serve command.
func NewServeCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve list_logs and search_logs over MCP stdio",
		Long: `Run an MCP server on stdin and stdout exposing two tools:

  list_logs    list entries newest first with an optional category filter
  search_logs  search entries by keyword or regular expression

Logs are written to stderr as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, g)
		},
	}
}

func runServe(ctx context.Context, g *GlobalOptions) error {
	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if g.LogLevel != "" {
		if level, err = zerolog.ParseLevel(g.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q: %w", g.LogLevel, err)
		}
	}
	// stdout carries the protocol
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("component", "serve").Logger()

	src, err := openSource(cfg, logger)
	if err != nil {
		return err
	}

	engine := query.NewEngine(src, append(cfg.EngineOptions(), query.WithLogger(logger))...)
	handler := tools.NewHandler(engine, cfg.Search.DefaultLimit, logger)

	logger.Info().
		Str("source", cfg.Source.Path).
		Str("host_version", cfg.Source.HostVersion).
		Bool("exact_counts", cfg.Search.ExactCounts).
		Msg("serving MCP tools on stdio")

	if err := tools.Serve(ctx, tools.NewServer(handler, Version)); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
