package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/output"
	"github.com/ccollicutt/logscope/pkg/query"
)

// SearchOptions holds command-line options for the search command.
type SearchOptions struct {
	Keyword       string
	Pattern       string
	Type          string
	CaseSensitive bool
	NoStackTrace  bool
	Offset        int
	Limit         int
	Output        string
	Verbose       bool
	Quiet         bool

	Webhook webhookOptions
}

// NewSearchCommand creates the search command.
func NewSearchCommand(g *GlobalOptions) *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search host log entries by keyword or pattern",
		Long: `Search the host log buffer, newest first.

A --pattern (regular expression) takes precedence over --keyword (substring).
Matching is case-insensitive unless --case-sensitive is set. Stack traces are
searched too unless --no-stack-trace is set.

Example:
  logscope search -k "NullReference" --type error
  logscope search -p "timeout after \d+ms" --limit 5

Exit codes:
  0 - Query succeeded
  1 - Query failed (invalid pattern, source unavailable)
  2 - Configuration or runtime error, or no search term`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Keyword, "keyword", "k", "", "Substring to search for")
	cmd.Flags().StringVarP(&opts.Pattern, "pattern", "p", "", "Regular expression to search for")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Category filter (error|warning|info|<severity>)")
	cmd.Flags().BoolVar(&opts.CaseSensitive, "case-sensitive", false, "Match case")
	cmd.Flags().BoolVar(&opts.NoStackTrace, "no-stack-trace", false, "Neither search nor return stack traces")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of matches to skip")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum matches to return (default from config)")
	addReportFlags(cmd, &opts.Output, &opts.Verbose, &opts.Quiet, &opts.Webhook)

	return cmd
}

func runSearch(cmd *cobra.Command, g *GlobalOptions, opts *SearchOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	if opts.Keyword == "" && opts.Pattern == "" {
		return query.ErrNoSearchTerm
	}

	engine, cfg, err := openEngine(ctx, g)
	if err != nil {
		return err
	}

	limit := opts.Limit
	if limit == 0 {
		limit = cfg.Search.DefaultLimit
	}
	page := query.NewPage(opts.Offset, limit)

	result, err := engine.Search(ctx, query.SearchRequest{
		Keyword:           opts.Keyword,
		Pattern:           opts.Pattern,
		Category:          opts.Type,
		CaseSensitive:     opts.CaseSensitive,
		IncludeStackTrace: !opts.NoStackTrace,
		Page:              page,
	})
	if err != nil {
		return err
	}

	report := output.NewReport("search", output.QueryInfo{
		Category:          opts.Type,
		Keyword:           opts.Keyword,
		Pattern:           opts.Pattern,
		CaseSensitive:     opts.CaseSensitive,
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
