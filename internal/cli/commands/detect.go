package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <dump-file>",
		Short: "Detect the host record layout of a buffer dump",
		Long: `Sample a host log buffer dump and report which host record layout decodes it.

Layouts:
  modern  - message text with UTF-16 and UTF-8 callstack offsets
  legacy  - condition text only; stack traces are split heuristically

Optionally generates a starter config file with --write-config.

Example:
  logscope detect editor-log.jsonl
  logscope detect --sample 500 editor-log.jsonl
  logscope detect -w logscope.yaml editor-log.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 100, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching layouts, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	dumpFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(dumpFile); os.IsNotExist(err) {
		return fmt.Errorf("dump file not found: %s", dumpFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, dumpFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, dumpFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, dumpFile, opts)
	default:
		outputDetectText(w, result, dumpFile, opts)
		return nil
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, dumpFile string, opts *DetectOptions) {
	fmt.Fprintln(w, "=== Host Layout Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", dumpFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines decoded: %d\n", result.DecodedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No host layout detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: each line must be one JSON record with a \"message\" or \"condition\" field.")
		return
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Layout: %s\n", best.Version)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines decoded)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintf(w, "Records with callstack offsets: %d\n", best.WithOffsets)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample message:\n  %s\n", best.SampleText)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "source:")
	fmt.Fprintf(w, "  path: %s\n", dumpFile)
	fmt.Fprintf(w, "  host_version: %s\n", best.Version)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative layouts detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Version, m.Confidence*100)
		}
		fmt.Fprintln(w)
	}
}

// JSONMatch represents a layout match in JSON output.
type JSONMatch struct {
	Layout      string  `json:"layout"`
	Confidence  float64 `json:"confidence"`
	MatchCount  int     `json:"match_count"`
	WithOffsets int     `json:"with_offsets"`
	SampleText  string  `json:"sample_text"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledLines int         `json:"sampled_lines"`
	DecodedLines int         `json:"decoded_lines"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, dumpFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         dumpFile,
		SampledLines: result.SampledLines,
		DecodedLines: result.DecodedLines,
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Layout:      string(m.Version),
			Confidence:  m.Confidence,
			MatchCount:  m.MatchCount,
			WithOffsets: m.WithOffsets,
			SampleText:  m.SampleText,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file with the detected layout.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, dumpFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no host layout detected")
	}

	content := generateStarterConfig(dumpFile, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(dumpFile string, match *detector.LayoutMatch) string {
	absDump := dumpFile
	if abs, err := filepath.Abs(dumpFile); err == nil {
		absDump = abs
	}

	return fmt.Sprintf(`# logscope configuration
# Generated by: logscope detect
# Detected layout: %s (%.0f%% confidence)

source:
  path: %s
  host_version: %s

search:
  # Scan the whole buffer so filtered and matched counts are exact.
  # Set to false to stop once the page is filled.
  exact_counts: true
  default_limit: 100

# categories:
#   error: [Error, Exception, Assert]
#   warning: [Warning]
#   info: [Info]

# splitter:
#   frame_prefixes: [UnityEngine., UnityEditor., System.]

# webhooks:
#   - name: alerts
#     url: https://hooks.example.com/logscope
#     token: ${LOGSCOPE_WEBHOOK_TOKEN}
#     trigger: on_results
`, match.Version, match.Confidence*100, absDump, match.Version)
}
