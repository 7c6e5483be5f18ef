package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Load deal records into the store",
	Long: `Load deal records from a JSON file (one object or an array) into the store.

Records without an id are assigned one on insert. Records that fail
validation are reported and skipped; the rest are still imported.

Example:
  matchbox import deals.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		deals, err := readDealsFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		ctx := context.Background()
		imported := 0
		skipped := 0
		for _, deal := range deals {
			if err := store.CreateDeal(ctx, deal); err != nil {
				fmt.Printf("  %s %s: %v\n", red("✗"), deal.Name, err)
				skipped++
				continue
			}
			imported++
			fmt.Printf("  %s %s %s\n", green("✓"), deal.Name, gray(deal.ID))
		}

		fmt.Printf("\n%s Imported %d deal(s)", green("✓"), imported)
		if skipped > 0 {
			fmt.Printf(", %s", red(fmt.Sprintf("%d skipped", skipped)))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
