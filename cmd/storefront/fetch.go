package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/content"
)

var fetchResources = []string{"posts", "post", "categories", "portfolio", "products", "product", "team", "services"}

func newFetchCmd(flags *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <resource> [id]",
		Short: "Fetch content through the cache and API client",
		Long: `Fetch content the same way the server does: from the cache when fresh,
otherwise through the rate limited API client (or the built-in dataset
with --mock). Fetched content is written to the persistent cache.

Resources: posts, post <id>, categories, portfolio, products, product <id>,
team, services.`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: fetchResources,
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

			v, err := fetchResource(cmd.Context(), a.content, args)
			if err != nil {
				return err
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			return renderResource(cmd.OutOrStdout(), v)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table|json")
	return cmd
}

func fetchResource(ctx context.Context, p content.Provider, args []string) (any, error) {
	resource := args[0]
	needsID := resource == "post" || resource == "product"
	if needsID && len(args) != 2 {
		return nil, fmt.Errorf("%s requires an id", resource)
	}
	if !needsID && len(args) != 1 {
		return nil, fmt.Errorf("%s takes no id", resource)
	}

	switch resource {
	case "posts":
		return p.Posts(ctx)
	case "post":
		return p.Post(ctx, args[1])
	case "categories":
		return p.Categories(ctx)
	case "portfolio":
		return p.Portfolio(ctx)
	case "products":
		return p.Products(ctx)
	case "product":
		return p.Product(ctx, args[1])
	case "team":
		return p.Team(ctx)
	case "services":
		return p.Services(ctx)
	default:
		return nil, fmt.Errorf("unknown resource: %s", resource)
	}
}
