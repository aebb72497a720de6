package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "brewhaus",
	Short: "Brewhaus — coffee storefront backend",
	Long:  "Brewhaus is the storefront backend for the coffee shop: catalog, carts, orders and checkout settlement.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(indexesCmd)
}
