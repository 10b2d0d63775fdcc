// Giro CLI - inspect, compile, and lint introspection metadata
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the top-level `giro` command. Errors and usage
// stay silent so main decides how to print them.
func newRootCmd() *cobra.Command {
	var verbosity int

	root := &cobra.Command{
		Use:           "giro",
		Short:         "giro: namespace metadata tooling for the callable bridge",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			commonlog.Configure(verbosity, nil)
		},
	}
	root.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity (0 quiet, 2 debug)")

	root.AddCommand(
		newInspectCmd(),
		newCompileCmd(),
		newLintCmd(),
	)
	return root
}
