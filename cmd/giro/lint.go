package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/giro/gi"
	"github.com/chazu/giro/marshal"
)

func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <file.gir.toml>",
		Short: "Validate metadata and dry-run the wrapper builder",
		Long: `Validate a metadata file (schema and structure), then dry-plan a
wrapper for every callback and signal. Callable shapes the builder
would refuse are reported one per line.

Exit code 0 if every callable can be wrapped, 1 otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := gi.LoadNamespace(args[0])
			if err != nil {
				return err
			}

			diags := marshal.Lint(ns)
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "unsupported: %s\n", d)
			}
			if n := len(diags); n > 0 {
				return fmt.Errorf("%d callable(s) cannot be wrapped", n)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: all callables can be wrapped\n", ns.Name, ns.Version)
			return nil
		},
	}
	return cmd
}
