package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/internetyev/paafetch/pkg/dataforseo"
)

// countriesCmd lists the country codes accepted by --country.
var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List supported country codes",
	Long:  `List the ISO 3166-1 alpha-2 country codes accepted by the --country flag.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, code := range dataforseo.SupportedCountries() {
			fmt.Println(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}
