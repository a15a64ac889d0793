package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/route"
)

var profileUpdate api.ProfileUpdate

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the account profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathProducts); err != nil {
			return err
		}

		if err := a.session.FetchProfile(ctx); err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}

		user := a.session.User()
		if user == nil {
			return fmt.Errorf("no profile loaded")
		}

		fmt.Printf("Name:  %s %s\n", user.FirstName, user.LastName)
		fmt.Printf("Email: %s\n", user.Email)
		if user.Phone != "" {
			fmt.Printf("Phone: %s\n", user.Phone)
		}
		fmt.Printf("Role:  %s\n", user.Role)
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathProducts); err != nil {
			return err
		}

		if err := a.session.UpdateProfile(ctx, profileUpdate); err != nil {
			return fmt.Errorf("%s", a.session.LastError())
		}

		fmt.Println("Profile updated")
		return nil
	},
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileUpdate.FirstName, "first-name", "", "first name")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.LastName, "last-name", "", "last name")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Email, "email", "", "email")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Phone, "phone", "", "phone number")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}
