package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/catalog"
	"github.com/shopfront/shopfront/internal/route"
)

var (
	productsPage          int
	productsLimit         int
	productsSearch        string
	productsCategory      string
	productsFilter        string
	productsFilterCat     string
	productsAvailableOnly bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the product catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a catalog page",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathProducts); err != nil {
			return err
		}

		if err := a.catalog.FetchProducts(ctx, productsPage, productsLimit, productsSearch, productsCategory); err != nil {
			return fmt.Errorf("%s", a.catalog.LastError())
		}

		a.catalog.SetSearchQuery(productsFilter)
		if productsFilterCat != "" {
			a.catalog.SetSelectedCategory(productsFilterCat)
		}

		products := a.catalog.FilteredProducts()
		if productsAvailableOnly {
			products = intersectAvailable(products, a.catalog.AvailableProducts())
		}

		printProducts(products)
		fmt.Printf("\nPage %d of %d", a.catalog.CurrentPage(), a.catalog.TotalPages())
		if categories := a.catalog.Categories(); len(categories) > 0 {
			fmt.Printf("  Categories: %s", strings.Join(categories, ", "))
		}
		fmt.Println()
		return nil
	},
}

var productsGetCmd = &cobra.Command{
	Use:   "get <product-id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathProducts); err != nil {
			return err
		}

		if err := a.catalog.FetchProduct(ctx, id); err != nil {
			return fmt.Errorf("%s", a.catalog.LastError())
		}

		p := a.catalog.Current()
		fmt.Printf("%s (#%d)\n", p.Name, p.ID)
		fmt.Printf("  Price:    %.2f\n", p.Price)
		fmt.Printf("  Stock:    %d\n", p.StockQuantity)
		fmt.Printf("  Category: %s\n", p.Category)
		if p.Description != "" {
			fmt.Printf("  %s\n", p.Description)
		}
		return nil
	},
}

var productsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the full catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathProducts); err != nil {
			return err
		}

		if err := a.catalog.SearchProducts(ctx, args[0]); err != nil {
			return fmt.Errorf("%s", a.catalog.LastError())
		}

		printProducts(a.catalog.Products())
		return nil
	},
}

// printProducts renders a product list, one line each.
func printProducts(products []api.Product) {
	if len(products) == 0 {
		fmt.Println("No products found")
		return
	}
	for _, p := range products {
		stock := fmt.Sprintf("%d in stock", p.StockQuantity)
		if p.StockQuantity == 0 {
			stock = "out of stock"
		}
		fmt.Printf("#%-6d %-30s %10.2f  %-12s %s\n", p.ID, p.Name, p.Price, p.Category, stock)
	}
}

// intersectAvailable keeps the filtered products that are also available,
// preserving filter order.
func intersectAvailable(filtered, available []api.Product) []api.Product {
	ids := make(map[int64]struct{}, len(available))
	for _, p := range available {
		ids[p.ID] = struct{}{}
	}
	kept := filtered[:0]
	for _, p := range filtered {
		if _, ok := ids[p.ID]; ok {
			kept = append(kept, p)
		}
	}
	return kept
}

func init() {
	productsListCmd.Flags().IntVar(&productsPage, "page", 1, "page number")
	productsListCmd.Flags().IntVar(&productsLimit, "limit", 0, "page size (default from config)")
	productsListCmd.Flags().StringVar(&productsSearch, "search", "", "server-side search term")
	productsListCmd.Flags().StringVar(&productsCategory, "category", "", "server-side category filter")
	productsListCmd.Flags().StringVar(&productsFilter, "filter", "", "local name/description filter")
	productsListCmd.Flags().StringVar(&productsFilterCat, "filter-category", "", "local category filter ("+catalog.CategoryAll+" disables)")
	productsListCmd.Flags().BoolVar(&productsAvailableOnly, "available", false, "only show products with stock")

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsGetCmd)
	productsCmd.AddCommand(productsSearchCmd)
	rootCmd.AddCommand(productsCmd)
}
