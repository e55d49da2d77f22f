package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCacheCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the persistent cache",
		Long: `Inspect and clear the persistent cache tier configured under storage.
The memory tier lives only inside a running server; use the
/api/v1/admin/cache endpoints for that.`,
	}
	cmd.AddCommand(newCacheStatsCmd(flags), newCacheClearCmd(flags))
	return cmd
}

func newCacheStatsCmd(flags *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			a, err := newApp(flags.options(cmd))
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			stats := a.cache.Stats(cmd.Context())
			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Tier", "Entries"})
			t.AppendRows([]table.Row{
				{"memory", stats.MemoryEntries},
				{fmt.Sprintf("persistent (%s)", a.cfg.Storage.Type), stats.PersistentEntries},
			})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table|json")
	return cmd
}

func newCacheClearCmd(flags *rootFlags) *cobra.Command {
	var expired bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cache entries",
		Long:  "Remove every cache entry, or only the stale ones with --expired.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags.options(cmd))
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if expired {
				removed := a.cache.ClearExpired(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
				return nil
			}

			before := a.cache.Stats(cmd.Context())
			a.cache.ClearAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", before.PersistentEntries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries")
	return cmd
}
