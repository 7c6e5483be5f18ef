package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group stored deals into duplicate clusters",
	Long: `Find groups of deals that are transitively linked by high-confidence
pairwise matches. Each cluster lists every member, so a deal entered three
times shows up as one three-member cluster rather than three separate pairs.

Example:
  matchbox cluster`,
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

		clusters, err := engine.BuildClusters(ctx, deals)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: clustering failed: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s %d deal(s) checked\n\n", cyan("Clustering:"), len(deals))

		if len(clusters) == 0 {
			fmt.Printf("  %s No duplicate clusters\n\n", green("✓"))
			return
		}

		byName := make(map[string]string, len(deals))
		for _, deal := range deals {
			byName[deal.ID] = deal.Name
		}

		for i, cluster := range clusters {
			fmt.Printf("  %s Cluster %d (%d members)\n", yellow("●"), i+1, len(cluster.MemberIDs))
			for _, id := range cluster.MemberIDs {
				fmt.Printf("    - %s %s\n", byName[id], gray(id))
			}
		}

		fmt.Printf("\n  %d cluster(s)\n\n", len(clusters))
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
}
