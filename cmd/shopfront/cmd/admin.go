package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/route"
)

var productInput api.ProductInput

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage catalog products (admin)",
}

var productCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathProducts); err != nil {
			return err
		}

		p, err := a.catalog.CreateProduct(ctx, productInput)
		if err != nil {
			return fmt.Errorf("%s", a.catalog.LastError())
		}

		fmt.Printf("Created product #%d %s\n", p.ID, p.Name)
		return nil
	},
}

var productUpdateCmd = &cobra.Command{
	Use:   "update <product-id>",
	Short: "Update a product",
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

		p, err := a.catalog.UpdateProduct(ctx, id, productInput)
		if err != nil {
			return fmt.Errorf("%s", a.catalog.LastError())
		}

		fmt.Printf("Updated product #%d %s\n", p.ID, p.Name)
		return nil
	},
}

var productDeleteCmd = &cobra.Command{
	Use:   "delete <product-id>",
	Short: "Delete a product",
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

		if err := a.catalog.DeleteProduct(ctx, id); err != nil {
			return fmt.Errorf("%s", a.catalog.LastError())
		}

		fmt.Printf("Deleted product #%d\n", id)
		return nil
	},
}

// addProductInputFlags registers the shared create/update payload flags.
func addProductInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&productInput.Name, "name", "", "product name")
	cmd.Flags().StringVar(&productInput.Description, "description", "", "product description")
	cmd.Flags().Float64Var(&productInput.Price, "price", 0, "unit price")
	cmd.Flags().IntVar(&productInput.StockQuantity, "stock", 0, "stock quantity")
	cmd.Flags().StringVar(&productInput.ImageURL, "image-url", "", "image URL")
	cmd.Flags().StringVar(&productInput.Category, "category", "", "category")
}

func init() {
	addProductInputFlags(productCreateCmd)
	addProductInputFlags(productUpdateCmd)
	_ = productCreateCmd.MarkFlagRequired("name")

	productCmd.AddCommand(productCreateCmd)
	productCmd.AddCommand(productUpdateCmd)
	productCmd.AddCommand(productDeleteCmd)
	rootCmd.AddCommand(productCmd)
}
