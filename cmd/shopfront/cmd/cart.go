package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shopfront/shopfront/internal/route"
)

var cartAddQuantity int

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the shopping cart",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathCart); err != nil {
			return err
		}

		if a.cart.IsEmpty() {
			fmt.Println("Cart is empty")
			return nil
		}

		for _, item := range a.cart.Items() {
			fmt.Printf("#%-6d %-30s %3d x %8.2f = %10.2f\n",
				item.ProductID, item.Name, item.Quantity, item.UnitPrice,
				item.UnitPrice*float64(item.Quantity))
		}
		fmt.Printf("\n%d items, total %s\n", a.cart.TotalItems(), a.cart.FormattedTotalPrice())
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart",
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

		if err := a.navigate(route.PathCart); err != nil {
			return err
		}

		p, err := a.client.Product(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch product: %w", err)
		}

		if err := a.cart.Add(*p, cartAddQuantity); err != nil {
			return err
		}

		fmt.Printf("Added %s (quantity now %d)\n", p.Name, a.cart.Quantity(id))
		return nil
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathCart); err != nil {
			return err
		}

		if err := a.cart.Remove(id); err != nil {
			return err
		}

		fmt.Println("Removed")
		return nil
	},
}

var cartSetCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set a product's quantity (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathCart); err != nil {
			return err
		}

		if err := a.cart.SetQuantity(id, quantity); err != nil {
			return err
		}

		fmt.Printf("Quantity now %d\n", a.cart.Quantity(id))
		return nil
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathCart); err != nil {
			return err
		}

		if err := a.cart.Clear(); err != nil {
			return err
		}

		fmt.Println("Cart cleared")
		return nil
	},
}

var cartValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Reconcile the cart against current stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathCart); err != nil {
			return err
		}

		before := a.cart.TotalItems()
		if err := a.cart.Validate(ctx); err != nil {
			return err
		}

		fmt.Printf("Cart validated: %d items (was %d)\n", a.cart.TotalItems(), before)
		return nil
	},
}

func init() {
	cartAddCmd.Flags().IntVar(&cartAddQuantity, "quantity", 1, "quantity to add")

	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartClearCmd)
	cartCmd.AddCommand(cartValidateCmd)
	rootCmd.AddCommand(cartCmd)
}
