// logscope lists and searches a host application's log buffer from the
// command line or as MCP tools.
package main

import (
	"os"

	"github.com/ccollicutt/logscope/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
