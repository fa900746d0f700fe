package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/query"
)

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	Output string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(g *GlobalOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <index>",
		Short: "Show how one record is split and classified",
		Long: `Show the raw mode bits of one host record, the strategy used to split its
message from its stack trace, and the rule that decided its severity.

Index 0 is the oldest record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			return runInspect(cmd, g, opts, index)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runInspect(cmd *cobra.Command, g *GlobalOptions, opts *InspectOptions, index int) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, _, err := openEngine(ctx, g)
	if err != nil {
		return err
	}

	ins, err := engine.Inspect(ctx, index)
	if err != nil {
		return fmt.Errorf("inspecting record %d: %w", index, err)
	}

	switch opts.Output {
	case "json":
		return writeInspectJSON(cmd.OutOrStdout(), ins)
	case "text", "":
		writeInspectText(cmd.OutOrStdout(), ins)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func writeInspectText(w io.Writer, ins *query.Inspection) {
	fmt.Fprintf(w, "Record:   #%d of %d\n", ins.Entry.SourceIndex, ins.TotalCount)
	fmt.Fprintf(w, "Mode:     %d (0x%x)\n", ins.Mode, ins.Mode)
	fmt.Fprintf(w, "Severity: %s (%s)\n", ins.Entry.Severity, ins.Entry.Rule)
	fmt.Fprintf(w, "Split:    %s\n", ins.Entry.Split)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- message ---")
	fmt.Fprintln(w, ins.Entry.Message)
	if ins.Entry.StackTrace != "" {
		fmt.Fprintln(w, "--- stack trace ---")
		fmt.Fprintln(w, ins.Entry.StackTrace)
	}
}

// InspectJSON is the JSON form of an inspection.
type InspectJSON struct {
	Index      int    `json:"index"`
	Total      int    `json:"totalCount"`
	Mode       int32  `json:"mode"`
	Severity   string `json:"type"`
	Rule       string `json:"rule"`
	Split      string `json:"split"`
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace,omitempty"`
	Text       string `json:"text"`
}

func writeInspectJSON(w io.Writer, ins *query.Inspection) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(InspectJSON{
		Index:      ins.Entry.SourceIndex,
		Total:      ins.TotalCount,
		Mode:       ins.Mode,
		Severity:   string(ins.Entry.Severity),
		Rule:       ins.Entry.Rule,
		Split:      string(ins.Entry.Split),
		Message:    ins.Entry.Message,
		StackTrace: ins.Entry.StackTrace,
		Text:       ins.Text,
	})
}
