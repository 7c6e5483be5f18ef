package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sellside/matchbox/internal/detection"
	"github.com/sellside/matchbox/internal/types"
)

var detectThreshold float64

var detectCmd = &cobra.Command{
	Use:   "detect <file.json|deal-id>",
	Short: "Detect duplicates for one deal",
	Long: `Compare one deal against the store and print ranked potential duplicates.

The argument is either a JSON file holding the deal to check (for records not
yet imported) or the id of a stored deal. Candidates come from the store's
bounded candidate query; each reported match shows its confidence, the
strategy that found it, and the per-field factor scores.

Example:
  matchbox detect new-deal.json
  matchbox detect 4e2d61b1-8a2f-4c57-9f05-1d3f3f2b1a01
  matchbox detect new-deal.json --threshold 0.70`,
	Args: cobra.ExactArgs(1),
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
		deal, err := resolveDeal(ctx, store, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		result, err := engine.Detect(ctx, deal, detection.Options{Threshold: detectThreshold})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: detection failed: %v\n", err)
			os.Exit(1)
		}

		printResult(deal, result)
	},
}

func init() {
	detectCmd.Flags().Float64Var(&detectThreshold, "threshold", 0, "minimum match confidence (0 = configured default)")
	rootCmd.AddCommand(detectCmd)
}

// resolveDeal loads the deal to check: a JSON file when the argument names
// one, otherwise a stored deal by id.
func resolveDeal(ctx context.Context, store dealGetter, arg string) (*types.Deal, error) {
	if _, err := os.Stat(arg); err == nil {
		deals, err := readDealsFile(arg)
		if err != nil {
			return nil, err
		}
		if len(deals) == 0 {
			return nil, fmt.Errorf("no deals in %s", arg)
		}
		return deals[0], nil
	}
	return store.GetDeal(ctx, arg)
}

type dealGetter interface {
	GetDeal(ctx context.Context, id string) (*types.Deal, error)
}

func printResult(deal *types.Deal, result *types.DetectionResult) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s %s\n\n", cyan("Detection:"), deal.Name)

	if !result.IsDuplicate {
		fmt.Printf("  %s No duplicates found\n\n", green("✓"))
		return
	}

	for i, m := range result.Matches {
		name := m.MatchedID
		if m.Matched != nil {
			name = fmt.Sprintf("%s %s", m.Matched.Name, gray(m.MatchedID))
		}
		fmt.Printf("  %d. %s\n", i+1, name)
		fmt.Printf("     confidence %.2f  strategy %s\n", m.Confidence, m.Strategy)
		if m.Reasoning != "" {
			fmt.Printf("     %s\n", gray(m.Reasoning))
		}
	}

	action := string(result.SuggestedAction)
	switch result.SuggestedAction {
	case types.ActionAutoMerge:
		action = red(action) // merging destroys a record, flag it loudly
	case types.ActionManualReview:
		action = yellow(action)
	}
	fmt.Printf("\n  Suggested action: %s (top confidence %.2f)\n\n", action, result.Confidence)
}
