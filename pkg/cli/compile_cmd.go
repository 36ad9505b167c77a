package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"placequery/internal/sqlbuild"
)

func newCompileCmd() *cobra.Command {
	var (
		flags     specFlags
		showCount bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a filter spec to DuckDB SQL without executing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := flags.resolve()
			if err != nil {
				return err
			}
			if showCount {
				fmt.Fprintln(cmd.OutOrStdout(), sqlbuild.BuildCount(spec))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), sqlbuild.Build(spec))
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&showCount, "count", false, "emit the count query instead of the row query")
	return cmd
}
