package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/route"
)

var registerData api.Registration

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create a new account. Registration does not log you in;
run 'shopfront login' afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if err := a.navigate(route.PathRegister); err != nil {
			return err
		}

		if err := a.session.Register(ctx, registerData); err != nil {
			return fmt.Errorf("%s", a.session.LastError())
		}

		fmt.Println("Registration successful. Run 'shopfront login' to sign in.")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerData.Email, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerData.Password, "password", "", "account password")
	registerCmd.Flags().StringVar(&registerData.FirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerData.LastName, "last-name", "", "last name")
	registerCmd.Flags().StringVar(&registerData.Phone, "phone", "", "phone number")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(registerCmd)
}
