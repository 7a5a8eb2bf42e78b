package main

import (
	"github.com/spf13/cobra"

	"receipts/internal/config"
	"receipts/internal/core"
)

var flagRates string

var rootCmd = &cobra.Command{
	Use:           "receiptctl",
	Short:         "Offline exchange rates and expense reports",
	Long:          "Convert amounts between the supported currencies and build expense reports from invoice lists.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRates, "rates", "r", "", "TOML rates file (defaults to the built-in table)")
}

// loadRates is the rate table shared by every command.
func loadRates() (core.RateTable, error) {
	if flagRates == "" {
		return core.DefaultRates(), nil
	}
	return config.LoadRatesFile(flagRates)
}
