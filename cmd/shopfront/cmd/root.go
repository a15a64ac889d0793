// Package cmd provides the CLI commands for shopfront.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shopfront/shopfront/internal/config"
)

var cfgFile string
var stateDir string
var devMode bool

var rootCmd = &cobra.Command{
	Use:   "shopfront",
	Short: "shopfront - storefront client",
	Long: `shopfront is a command-line client for the storefront backend.

It keeps a local session (bearer token) and cart mirrored under a state
directory, so separate invocations behave like page reloads of the web
storefront: the session and cart survive, the catalog is re-fetched.

Quick start:
  1. shopfront register --email you@example.com --password secret \
       --first-name You --last-name Example
  2. shopfront login --email you@example.com --password secret
  3. shopfront products list
  4. shopfront cart add 42

Configuration:
  Config is loaded from shopfront.yaml in the current directory,
  $HOME/.shopfront/, or /etc/shopfront/.

  Environment variables can override config values with the SHOPFRONT_ prefix.
  Example: SHOPFRONT_API_BASE_URL=http://localhost:3000`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./shopfront.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "state directory (default: ~/.shopfront/state)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "enable development mode (debug logging)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
