package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"receipts/internal/core"
)

var convertCmd = &cobra.Command{
	Use:     "convert AMOUNT FROM TO",
	Short:   "Convert an amount between two currencies",
	Example: "  receiptctl convert 120.50 EUR JPY",
	Args:    cobra.ExactArgs(3),
	RunE:    runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil || amount < 0 {
		return fmt.Errorf("%w: %q", core.ErrInvalidAmount, args[0])
	}
	from, err := core.ParseCurrency(args[1])
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	to, err := core.ParseCurrency(args[2])
	if err != nil {
		return fmt.Errorf("%s: %w", args[2], err)
	}

	rates, err := loadRates()
	if err != nil {
		return err
	}

	converted := core.Convert(amount, from, to, rates)
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s %s = %s%s %s  (rate %s)\n",
		from.Symbol(), core.FormatAmount(amount), from,
		to.Symbol(), core.FormatAmount(converted), to,
		strconv.FormatFloat(core.RoundRate(core.EffectiveRate(from, to, rates)), 'f', -1, 64))
	return nil
}
