// Command storefront serves the agency's content API and offers one-shot
// commands for fetching content and inspecting the persistent cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	verbose    bool
	mock       bool
}

func (f *rootFlags) options(cmd *cobra.Command) appOptions {
	return appOptions{
		configPath: f.configPath,
		verbose:    f.verbose,
		mock:       f.mock,
		mockSet:    cmd.Flags().Changed("mock"),
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Content API for the Creative Star agency site",
		Long: `storefront serves blog posts, portfolio projects, products, team and
services through a rate limited API client backed by a two-tier cache.

Use the subcommands to run the server or perform one-shot operations.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("STOREFRONT_CONFIG"), "Path to configuration file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	root.PersistentFlags().BoolVar(&flags.mock, "mock", false, "serve the built-in dataset instead of calling the content API")

	root.AddCommand(
		newServeCmd(flags),
		newFetchCmd(flags),
		newContactCmd(flags),
		newCacheCmd(flags),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
