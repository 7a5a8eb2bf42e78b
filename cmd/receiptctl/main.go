// Command receiptctl converts amounts and builds expense reports offline,
// using the same rate table and report layout as the receipts server.
package main

import "receipts/internal/cli"

func main() {
	if err := rootCmd.Execute(); err != nil {
		cli.Fatal(err)
	}
}
