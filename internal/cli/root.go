// Package cli provides the command-line interface for logscope.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logscope/internal/cli/commands"
	"github.com/ccollicutt/logscope/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	// An unknown first argument may name a logscope-<command> plugin.
	if len(os.Args) > 1 {
		name := os.Args[1]
		if name != "" && name[0] != '-' && !isBuiltinCommand(rootCmd, name) {
			if pluginPath, err := plugins.FindPlugin(name); err == nil {
				return plugins.Execute(pluginPath, os.Args[2:])
			}
			_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(name))
			return 2
		}
	}

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion" || name == cobra.ShellCompRequestCmd || name == cobra.ShellCompNoDescRequestCmd
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "logscope",
		Short: "Query a host application's in-memory log buffer",
		Long: `logscope lists and searches the log buffer of a host application, newest
first, with severity classification, category filters and paging.

The buffer is read from a dump file (one JSON record per line, oldest first)
given by --source, the LOGSCOPE_SOURCE environment variable, or source.path in
the config file.

Run "logscope serve" to expose list_logs and search_logs as MCP tools.

PLUGINS:
  Unknown commands run a logscope-<command> binary found next to logscope,
  in ~/.logscope/plugins/, or anywhere in PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "Config file (YAML)")
	flags.StringVarP(&g.Source, "source", "s", "", "Host log buffer dump file")
	flags.StringVar(&g.HostVersion, "host-version", "", "Host record layout (modern|legacy)")
	flags.StringVar(&g.LogLevel, "log-level", "", "Log level for stderr diagnostics (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewListCommand(g))
	rootCmd.AddCommand(commands.NewSearchCommand(g))
	rootCmd.AddCommand(commands.NewInspectCommand(g))
	rootCmd.AddCommand(commands.NewWatchCommand(g))
	rootCmd.AddCommand(commands.NewServeCommand(g))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
