package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/giro/gi"
	"github.com/chazu/giro/typelib"
)

func newCompileCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile <file.gir.toml>",
		Short: "Validate metadata and compile a typelib blob",
		Long: `Validate a metadata file and compile it into a typelib blob:
a digest-protected, canonically encoded namespace that loads without
re-running schema validation over TOML.

Compilation is deterministic: the same metadata always produces the
same bytes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := gi.LoadNamespace(args[0])
			if err != nil {
				return err
			}
			blob, err := typelib.Compile(ns)
			if err != nil {
				return err
			}

			out := output
			if out == "" {
				out = strings.TrimSuffix(args[0], ".gir.toml") + ".typelib"
			}
			if err := os.WriteFile(out, blob, 0o644); err != nil {
				return fmt.Errorf("cannot write %s: %w", out, err)
			}

			digest, err := typelib.Digest(blob)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, sha256 %x)\n", out, len(blob), digest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input with .typelib extension)")
	return cmd
}
