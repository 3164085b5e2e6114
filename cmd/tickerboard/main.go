package main

import (
	"log"

	"github.com/spf13/cobra"

	"TickerBoard/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "tickerboard",
	Short:        "Finance dashboard widget refresh engine",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", config.Path(), "path to config.yaml (CONFIG_PATH)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newProvidersCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
