package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/source"
)

// WatchOptions holds command-line options for the watch command.
type WatchOptions struct {
	Refresh bool
	Type    string
}

// errNoNotifier is returned when the configured source cannot report changes.
var errNoNotifier = errors.New("source does not support change notifications")

// NewWatchCommand creates the watch command.
func NewWatchCommand(g *GlobalOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a line whenever the host log buffer changes",
		Long: `Subscribe to change notifications for the host log buffer and print one line
per change until interrupted.

With --refresh, the buffer is listed again after each change and the current
counts are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), g, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Re-count entries after each change")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Category counted by --refresh")

	return cmd
}

func runWatch(ctx context.Context, w io.Writer, g *GlobalOptions, opts *WatchOptions) error {
	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, g.LogLevel)
	if err != nil {
		return err
	}

	src, err := cfg.OpenSource()
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	return watchSource(ctx, w, src, query.NewEngine(src, append(cfg.EngineOptions(), query.WithLogger(logger))...), opts)
}

// watchSource prints changes from src until ctx is done.
func watchSource(ctx context.Context, w io.Writer, src source.RawRecordSource, engine *query.Engine, opts *WatchOptions) error {
	notifier, ok := src.(source.Notifier)
	if !ok {
		return errNoNotifier
	}

	changes := make(chan source.Change, 16)
	unsubscribe, err := notifier.Subscribe(func(c source.Change) {
		select {
		case changes <- c:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to changes: %w", err)
	}
	defer unsubscribe()

	if f, ok := src.(interface{ Path() string }); ok {
		fmt.Fprintf(w, "Watching %s for changes (Ctrl+C to stop)...\n", f.Path())
	} else {
		fmt.Fprintln(w, "Watching for changes (Ctrl+C to stop)...")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-changes:
			printChange(w, c)
			if opts.Refresh && c.Err == nil {
				res := engine.List(ctx, query.ListRequest{Category: opts.Type, Page: query.NewPage(0, 1)})
				if res.Success {
					fmt.Fprintf(w, "  %d in category, %d total\n", res.FilteredCount, res.TotalCount)
				} else {
					fmt.Fprintf(w, "  refresh failed: %s\n", res.Message)
				}
			}
		}
	}
}

func printChange(w io.Writer, c source.Change) {
	ts := c.At.Format("15:04:05.000")
	if c.Err != nil {
		fmt.Fprintf(w, "%s %s %s: %v\n", ts, c.Op, c.Path, c.Err)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", ts, c.Op, c.Path)
}
