package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sellside/matchbox/internal/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run duplicate detection over every stored deal",
	Long: `Compare every stored deal against the full pool and report the ones that
look like duplicates of another record.

Example:
  matchbox batch`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		engine, err := openEngine(store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		deals, err := store.ListDeals(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list deals: %v\n", err)
			os.Exit(1)
		}

		results, err := engine.DetectBatch(ctx, deals)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: batch detection failed: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s %d deal(s) checked\n\n", cyan("Batch detection:"), len(deals))

		byName := make(map[string]string, len(deals))
		ids := make([]string, 0, len(results))
		for id, result := range results {
			if result.IsDuplicate {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		for _, deal := range deals {
			byName[deal.ID] = deal.Name
		}

		if len(ids) == 0 {
			fmt.Printf("  %s No duplicates found\n\n", green("✓"))
			return
		}

		autoMerge := 0
		for _, id := range ids {
			result := results[id]
			if result.SuggestedAction == types.ActionAutoMerge {
				autoMerge++
			}
			top := result.TopMatch()
			fmt.Printf("  %s %s\n", yellow("!"), byName[id])
			fmt.Printf("    matches %s at %.2f (%s) %s\n",
				byName[top.MatchedID], top.Confidence, top.Strategy, gray(id))
		}

		fmt.Printf("\n  %d duplicate(s), %d safe to auto-merge\n\n", len(ids), autoMerge)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
