// cmd/irae-cli is a thin HTTP client for a running irae-server: it never
// wires the orchestrator itself, it only speaks the wire protocol the
// server's handlers expose under /v1 and /healthz.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var serverAddr string

	root := &cobra.Command{
		Use:     "irae-cli",
		Short:   "Command-line client for the Ingredient Resolution and Aggregation Engine",
		Version: fmt.Sprintf("%s (%s)", version, gitCommit),
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "base URL of a running irae-server")

	root.AddCommand(newResolveCommand(&serverAddr))
	root.AddCommand(newIngredientCommand(&serverAddr))
	root.AddCommand(newHealthCommand(&serverAddr))
	return root
}
