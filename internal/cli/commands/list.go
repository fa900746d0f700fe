package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/output"
	"github.com/ccollicutt/logscope/pkg/query"
)

// ListOptions holds command-line options for the list command.
type ListOptions struct {
	Type         string
	Offset       int
	Limit        int
	NoStackTrace bool
	Output       string
	Verbose      bool
	Quiet        bool

	Webhook webhookOptions
}

// NewListCommand creates the list command.
func NewListCommand(g *GlobalOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List host log entries, newest first",
		Long: `List entries from the host log buffer, newest first.

--type filters by category: error (errors, exceptions and asserts), warning,
info, or any single severity name.

Exit codes:
  0 - Query succeeded
  1 - Query failed (source unavailable or unreadable)
  2 - Configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Category filter (error|warning|info|<severity>)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum entries to return (default from config)")
	cmd.Flags().BoolVar(&opts.NoStackTrace, "no-stack-trace", false, "Omit stack traces")
	addReportFlags(cmd, &opts.Output, &opts.Verbose, &opts.Quiet, &opts.Webhook)

	return cmd
}

func addReportFlags(cmd *cobra.Command, format *string, verbose, quiet *bool, wh *webhookOptions) {
	cmd.Flags().StringVarP(format, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(verbose, "verbose", "v", false, "Include query parameters and timing")
	cmd.Flags().BoolVarP(quiet, "quiet", "q", false, "Summary only, no entries")

	cmd.Flags().StringVar(&wh.URL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&wh.Token, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&wh.Trigger, "webhook-trigger", "on_results", "When to fire webhook (on_results|always|never)")
}

func runList(cmd *cobra.Command, g *GlobalOptions, opts *ListOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	engine, cfg, err := openEngine(ctx, g)
	if err != nil {
		return err
	}

	limit := opts.Limit
	if limit == 0 {
		limit = cfg.Search.DefaultLimit
	}
	page := query.NewPage(opts.Offset, limit)

	result := engine.List(ctx, query.ListRequest{
		Category:          opts.Type,
		Page:              page,
		IncludeStackTrace: !opts.NoStackTrace,
	})

	report := output.NewReport("list", output.QueryInfo{
		Category:          opts.Type,
		IncludeStackTrace: !opts.NoStackTrace,
		Offset:            page.Offset,
		Limit:             page.Limit,
	}, result, sourceName(cfg), started)

	if err := writeReport(ctx, cmd.OutOrStdout(), opts.Output, output.FormatOptions{Verbose: opts.Verbose, Quiet: opts.Quiet}, report); err != nil {
		return err
	}

	sendWebhooks(ctx, cfg, opts.Webhook, report)
	return nil
}
