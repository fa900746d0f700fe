package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/config"
	"github.com/ccollicutt/logscope/pkg/detector"
	"github.com/ccollicutt/logscope/pkg/query"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose common source and configuration issues",
		Long: `Diagnose common source and configuration issues.

This command checks:
- Config file syntax and structure (when --config is given)
- Host log buffer dump existence and accessibility
- Configured host version against the layout detected in the dump
- A full read of the buffer through the query engine
- Webhook configuration

Example:
  logscope diagnose -s editor-log.jsonl
  logscope diagnose -c logscope.yaml -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), g, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, g *GlobalOptions, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	if g.ConfigPath != "" {
		result := checkConfigExists(g.ConfigPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
	}

	cfg, result := checkConfigParseable(ctx, g)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	result = checkSourceFile(cfg)
	results = append(results, result)
	if result.Status == "ok" {
		results = append(results, checkHostLayout(ctx, cfg, opts))
		results = append(results, checkEnumeration(ctx, cfg))
	}

	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'logscope detect <dump-file> --write-config logscope.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, g *GlobalOptions) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	cfg, err := loadConfig(ctx, g)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	if g.ConfigPath == "" {
		result.Message = "Using built-in defaults"
	} else {
		result.Message = "Config file parsed successfully"
	}
	result.Details = []string{
		fmt.Sprintf("Host version: %s", cfg.Source.HostVersion),
		fmt.Sprintf("Exact counts: %t", cfg.Search.ExactCounts),
		fmt.Sprintf("Categories: %d", len(cfg.Categories)),
		fmt.Sprintf("Observed codes: %d", len(cfg.Severity.Observed)),
		fmt.Sprintf("Markers: %d", len(cfg.Severity.Markers)),
	}
	return cfg, result
}

func checkSourceFile(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Source",
	}

	path := cfg.Source.Path
	if path == "" {
		result.Status = "error"
		result.Message = "No host log buffer configured"
		result.Suggests = []string{
			"Pass --source <dump-file>",
			fmt.Sprintf("Or set %s or source.path in the config file", config.EnvSource),
		}
		return result
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = "error"
		result.Message = fmt.Sprintf("File does not exist: %s", path)
		result.Suggests = []string{"Check that the host is writing its buffer dump to this path"}
	case err != nil:
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
	case info.Size() == 0:
		result.Status = "warning"
		result.Message = "File is empty (0 bytes)"
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
	}
	return result
}

func checkHostLayout(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Host Layout",
	}

	det, err := detector.New(detector.WithSampleSize(20)).DetectFromFile(ctx, cfg.Source.Path)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot sample file: %v", err)
		return result
	}

	best := det.BestMatch()
	if best == nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("No sampled line decodes (%d sampled)", det.SampledLines)
		result.Suggests = []string{"Each line must be one JSON record with a \"message\" or \"condition\" field"}
		return result
	}

	configured := strings.ToLower(cfg.Source.HostVersion)
	if string(best.Version) != configured {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Configured %s but the dump looks like %s", configured, best.Version)
		result.Suggests = []string{fmt.Sprintf("Use --host-version %s", best.Version)}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%s layout decodes %.0f%% of sampled lines", best.Version, best.Confidence*100)
	if opts.Verbose {
		result.Details = []string{
			fmt.Sprintf("Records with callstack offsets: %d/%d", best.WithOffsets, best.MatchCount),
			fmt.Sprintf("Sample: %s", truncate(best.SampleText, 80)),
		}
	}
	return result
}

func checkEnumeration(ctx context.Context, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Enumeration",
	}

	src, err := cfg.OpenSource()
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot open source: %v", err)
		return result
	}

	// exact counts so the totals cover the whole buffer
	engine := query.NewEngine(src, append(cfg.EngineOptions(), query.WithExactCounts(true))...)
	res := engine.List(ctx, query.ListRequest{Page: query.NewPage(0, 1)})
	if !res.Success {
		result.Status = "error"
		result.Message = res.Message
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d records read", res.TotalCount)

	errs := engine.List(ctx, query.ListRequest{Category: "error", Page: query.NewPage(0, 1)})
	warns := engine.List(ctx, query.ListRequest{Category: "warning", Page: query.NewPage(0, 1)})
	result.Details = []string{
		fmt.Sprintf("Errors: %d", errs.FilteredCount),
		fmt.Sprintf("Warnings: %d", warns.FilteredCount),
	}
	if res.FilteredCount < res.TotalCount {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d of %d records could not be decoded", res.TotalCount-res.FilteredCount, res.TotalCount)
	}
	return result
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		issues := []string{}
		warnings := []string{}

		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		switch wh.Trigger {
		case "", config.WebhookTriggerOnResults, config.WebhookTriggerAlways, config.WebhookTriggerNever:
		default:
			issues = append(issues, fmt.Sprintf("Invalid trigger %q (use on_results, always, or never)", wh.Trigger))
		}

		if wh.Token == "" && wh.Trigger != config.WebhookTriggerNever {
			warnings = append(warnings, "No token configured; the endpoint must accept unauthenticated requests")
		}

		switch {
		case len(issues) > 0:
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		case len(warnings) > 0:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
			}
		}

		results = append(results, result)
	}

	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== logscope Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before querying.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nSource is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nEverything looks good!")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
