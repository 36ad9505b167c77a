// Package cli implements the placeq command tree: compile a filter spec to
// SQL, or run a one-shot query job and export the results.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "placeq",
		Short:         "Overture Maps places query tool",
		Long:          "Compose geographic and category filters over the Overture Maps places dataset, compile them to DuckDB SQL, and run cancellable export queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newQueryCmd())
	return rootCmd
}
