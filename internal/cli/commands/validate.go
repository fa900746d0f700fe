package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a logscope configuration file without querying.

Checks:
  - YAML syntax
  - Host version name
  - Severity table bits, observed codes and markers
  - Category severity names
  - Webhook URLs and triggers
  - Source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	printConfigSummary(w, cfg)

	if cfg.Source.Path == "" {
		fmt.Fprintf(w, "\nWarning: No source path configured (set source.path or %s)\n", config.EnvSource)
	} else if _, err := os.Stat(cfg.Source.Path); err != nil {
		fmt.Fprintf(w, "\nWarning: Source not readable: %v\n", err)
	} else {
		fmt.Fprintf(w, "\nSource found: %s\n", cfg.Source.Path)
	}

	return nil
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Host version:   %s\n", cfg.Source.HostVersion)
	fmt.Fprintf(w, "  Exact counts:   %t\n", cfg.Search.ExactCounts)
	fmt.Fprintf(w, "  Default limit:  %d\n", cfg.Search.DefaultLimit)
	fmt.Fprintf(w, "  Observed codes: %d\n", len(cfg.Severity.Observed))
	fmt.Fprintf(w, "  Markers:        %d\n", len(cfg.Severity.Markers))
	fmt.Fprintf(w, "  Frame prefixes: %d\n", len(cfg.Splitter.FramePrefixes))
	fmt.Fprintf(w, "  Webhooks:       %d\n", len(cfg.Webhooks))

	names := make([]string, 0, len(cfg.Categories))
	for name := range cfg.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	mapper := cfg.CategoryMapper()
	fmt.Fprintf(w, "\nCategories:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %v\n", name, mapper.Resolve(name).Severities())
	}
}
