// Package main runs the settleup Connect server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath points at the YAML config file. A missing file is allowed.
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "settleup",
	Short: "Shared expense settlement server",
	Long: `settleup records shared expenses, derives who owes whom, and sends
payment requests through the messaging provider.

Running without a subcommand starts the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Connect server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "settleup.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
