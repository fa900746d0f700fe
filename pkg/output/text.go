package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/logscope/pkg/query"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if !report.Result.Success {
		_, err := fmt.Fprintf(w, "logscope %s failed: %s\n", report.Operation, report.Result.Message)
		return err
	}
	if f.opts.Quiet {
		return f.formatSummary(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatSummary(report *Report, w io.Writer) error {
	r := report.Result
	switch report.Operation {
	case "search":
		fmt.Fprintf(w, "logscope: %d matched, %d returned (%d in category, %d total)",
			r.MatchedCount, r.ReturnedCount, r.FilteredCount, r.TotalCount)
	default:
		fmt.Fprintf(w, "logscope: %d returned of %d in category (%d total)",
			r.ReturnedCount, r.FilteredCount, r.TotalCount)
	}
	if r.PartialCounts {
		fmt.Fprint(w, " [counts partial]")
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	if f.opts.Verbose {
		f.formatQuery(report, w)
	}

	if len(report.Result.Items) == 0 {
		fmt.Fprintln(w, "No log entries")
	}
	for _, entry := range report.Result.Items {
		formatEntry(entry, w)
	}

	fmt.Fprintln(w, "---")
	if err := f.formatSummary(report, w); err != nil {
		return err
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}
	return nil
}

func (f *TextFormatter) formatQuery(report *Report, w io.Writer) {
	q := report.Query
	fmt.Fprintf(w, "=== logscope %s ===\n", report.Operation)
	if report.Metadata.Source != "" {
		fmt.Fprintf(w, "Source:   %s\n", report.Metadata.Source)
	}
	if q.Category != "" {
		fmt.Fprintf(w, "Category: %s\n", q.Category)
	}
	if q.Pattern != "" {
		fmt.Fprintf(w, "Pattern:  %s\n", q.Pattern)
	} else if q.Keyword != "" {
		fmt.Fprintf(w, "Keyword:  %s\n", q.Keyword)
	}
	fmt.Fprintf(w, "Window:   offset %d, limit %d\n", q.Offset, q.Limit)
	fmt.Fprintln(w)
}

func formatEntry(e query.Entry, w io.Writer) {
	fmt.Fprintf(w, "[%s] #%d %s\n", strings.ToUpper(string(e.Type)), e.Index, indent(e.Message, "    "))
	if e.StackTrace != "" {
		fmt.Fprintf(w, "    %s\n", indent(strings.TrimRight(e.StackTrace, "\r\n"), "    "))
	}
}

// indent prefixes every line after the first.
func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
