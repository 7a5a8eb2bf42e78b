package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"receipts/internal/cli"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Print the effective exchange rate table",
	Args:  cobra.NoArgs,
	RunE:  runRates,
}

func init() {
	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, _ []string) error {
	rates, err := loadRates()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRates(rates))
	return nil
}
