package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/giro/gi"
	"github.com/chazu/giro/typelib"
)

func newInspectCmd() *cobra.Command {
	var fromTypelib bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the namespace tree",
		Long: `Print a namespace's objects, signals, and callbacks with
direction, transfer, and nullability annotations.

The input is a .gir.toml metadata file, or a compiled typelib blob
with --typelib.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ns *gi.Namespace
			var err error
			if fromTypelib {
				ns, err = typelib.LoadFile(args[0])
			} else {
				ns, err = gi.LoadNamespace(args[0])
			}
			if err != nil {
				return err
			}
			printNamespace(cmd.OutOrStdout(), ns)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromTypelib, "typelib", false, "read a compiled typelib blob instead of metadata TOML")
	return cmd
}

func printNamespace(w io.Writer, ns *gi.Namespace) {
	fmt.Fprintf(w, "namespace %s %s\n", ns.Name, ns.Version)

	deps := make([]string, 0, len(ns.Dependencies))
	for name := range ns.Dependencies {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	for _, name := range deps {
		fmt.Fprintf(w, "  requires %s %s\n", name, ns.Dependencies[name])
	}

	for i := range ns.Objects {
		obj := &ns.Objects[i]
		if obj.Parent != "" {
			fmt.Fprintf(w, "object %s : %s\n", obj.Name, obj.Parent)
		} else {
			fmt.Fprintf(w, "object %s\n", obj.Name)
		}
		for j := range obj.Signals {
			fmt.Fprintf(w, "  signal %s\n", describeSignal(&obj.Signals[j]))
		}
	}

	for i := range ns.Callbacks {
		cb := &ns.Callbacks[i]
		fmt.Fprintf(w, "callback %s [scope %s]\n", describeCallable(cb), cb.Scope)
	}
}

func describeSignal(sig *gi.Signal) string {
	var notes []string
	if sig.Detailed {
		notes = append(notes, "detailed")
	}
	if sig.RunLast {
		notes = append(notes, "run-last")
	}
	s := describeCallable(&sig.Callable)
	if len(notes) > 0 {
		s += " [" + strings.Join(notes, ", ") + "]"
	}
	return s
}

func describeCallable(c *gi.Callable) string {
	parts := make([]string, 0, len(c.Args))
	for i := range c.Args {
		parts = append(parts, describeArg(&c.Args[i]))
	}
	s := fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
	if c.HasReturn() {
		s += " -> " + c.Return.String()
		if c.MayReturnNull {
			s += "?"
		}
	}
	if c.Throws {
		s += " throws"
	}
	return s
}

func describeArg(a *gi.Arg) string {
	s := fmt.Sprintf("%s: %s %s", a.Name, a.Direction, a.Type)
	if a.Transfer != gi.TransferNone {
		s += " " + a.Transfer.String()
	}
	if a.Nullable {
		s += "?"
	}
	if a.Closure >= 0 {
		s += fmt.Sprintf(" closure=%d", a.Closure)
	}
	if a.Destroy >= 0 {
		s += fmt.Sprintf(" destroy=%d", a.Destroy)
	}
	return s
}
