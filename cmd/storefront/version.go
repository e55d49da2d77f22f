package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/version"
)

func newVersionCmd() *cobra.Command {
	var extended bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			out := cmd.OutOrStdout()
			if !extended {
				fmt.Fprintln(out, info.String())
				return nil
			}
			fmt.Fprintf(out, "storefront %s\n", info.Version)
			fmt.Fprintf(out, "Commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "Built: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	return cmd
}
